package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/repository"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/usecase"
)

type received struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type testServer struct {
	url        string
	dispatcher *usecase.Dispatcher
	hub        *Hub
}

func newServer(options Options, observers ...usecase.MatchObserver) (*Server, *usecase.Dispatcher, *Hub) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := NewHub(logger)
	controller := usecase.NewMatchController(
		logger,
		repository.NewPlayerRepository(20),
		repository.NewRoomRepository(),
		repository.NewWaitingQueue(),
		200,
	)
	dispatcher := usecase.NewDispatcher(logger, controller, hub, observers...)

	return New(logger, hub, dispatcher, options), dispatcher, hub
}

func newTestServerWith(t *testing.T, options Options) *testServer {
	t.Helper()

	server, dispatcher, hub := newServer(options)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testServer{url: ts.URL, dispatcher: dispatcher, hub: hub}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	return newTestServerWith(t, Options{SendBuffer: 64})
}

func (that *testServer) dial(t *testing.T, name string) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(that.url, "http") + "/ws?name=" + url.QueryEscape(name)

	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg received
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func write(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// startGame - connects Alice then Bob and consumes the start notifications.
func startGame(t *testing.T, ts *testServer) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	alice := ts.dial(t, "Alice")
	assert.Equal(t, usecase.EventWaitForOpponent, read(t, alice).Action)

	bob := ts.dial(t, "Bob")

	start := read(t, alice)
	require.Equal(t, usecase.EventGameStart, start.Action)
	assert.JSONEq(t, `{"symbol":"X","opponentName":"Bob"}`, string(start.Payload))
	assert.Equal(t, usecase.EventUpdateGame, read(t, alice).Action)

	start = read(t, bob)
	require.Equal(t, usecase.EventGameStart, start.Action)
	assert.JSONEq(t, `{"symbol":"O","opponentName":"Alice"}`, string(start.Payload))
	assert.Equal(t, usecase.EventUpdateGame, read(t, bob).Action)

	return alice, bob
}

func TestServer_Game(t *testing.T) {
	t.Run("Full game over a real socket", func(t *testing.T) {
		ts := newTestServer(t)
		alice, bob := startGame(t, ts)

		// When: X wins with the top row
		moves := []struct {
			conn *websocket.Conn
			cell int
		}{{alice, 0}, {bob, 3}, {alice, 1}, {bob, 4}, {alice, 2}}

		var last received
		for _, m := range moves {
			write(t, m.conn, `{"action":"make_move","payload":{"index":`+strconv.Itoa(m.cell)+`}}`)
			last = read(t, alice)
			assert.Equal(t, usecase.EventUpdateGame, last.Action)
			assert.Equal(t, last, read(t, bob))
		}

		// Then: the final state names X as the winner
		var state struct {
			Board  []*string `json:"board"`
			Turn   string    `json:"turn"`
			Over   bool      `json:"over"`
			Result *string   `json:"result"`
		}
		require.NoError(t, json.Unmarshal(last.Payload, &state))
		assert.True(t, state.Over)
		require.NotNil(t, state.Result)
		assert.Equal(t, "X", *state.Result)
		assert.Len(t, state.Board, 9)
		assert.Nil(t, state.Board[8])
	})

	t.Run("Update payload shape", func(t *testing.T) {
		ts := newTestServer(t)
		alice, bob := startGame(t, ts)

		write(t, alice, `{"action":"make_move","payload":{"index":4}}`)
		update := read(t, bob)

		var state map[string]any
		require.NoError(t, json.Unmarshal(update.Payload, &state))
		assert.ElementsMatch(t, []string{"id", "board", "turn", "players", "names", "over", "result"}, keys(state))
		assert.Equal(t, "O", state["turn"])
		assert.Nil(t, state["result"])
		_ = read(t, alice)
	})

	t.Run("Errors go only to the sender", func(t *testing.T) {
		ts := newTestServer(t)
		alice, bob := startGame(t, ts)

		// When: O moves out of turn, then X sends garbage
		write(t, bob, `{"action":"make_move","payload":{"index":0}}`)
		msg := read(t, bob)
		assert.Equal(t, usecase.EventGameError, msg.Action)
		assert.JSONEq(t, `{"message":"Not your turn."}`, string(msg.Payload))

		write(t, alice, `{"action":"make_move","payload":{"index":"four"}}`)
		msg = read(t, alice)
		assert.JSONEq(t, `{"message":"Invalid cell index."}`, string(msg.Payload))

		write(t, alice, `{"action":"make_move"}`)
		msg = read(t, alice)
		assert.JSONEq(t, `{"message":"Invalid cell index."}`, string(msg.Payload))

		// Then: the next frame Bob sees is the chat, not any of Alice's errors
		write(t, alice, `{"action":"dance"}`)
		write(t, alice, `not json`)
		write(t, alice, `{"action":"send_message","payload":{"text":"sorry"}}`)

		msg = read(t, bob)
		assert.Equal(t, usecase.EventNewMessage, msg.Action)
		assert.JSONEq(t, `{"sender":"Alice","text":"sorry"}`, string(msg.Payload))
	})

	t.Run("Long chat message is truncated, not disconnected", func(t *testing.T) {
		ts := newTestServer(t)
		alice, bob := startGame(t, ts)

		// When: Alice sends a 5000 character message
		text := strings.Repeat("a", 5000)
		write(t, alice, `{"action":"send_message","payload":{"text":"`+text+`"}}`)

		// Then: Bob gets it cut to 200 characters and the match goes on
		msg := read(t, bob)
		require.Equal(t, usecase.EventNewMessage, msg.Action)

		var chat usecase.ChatPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &chat))
		assert.Equal(t, "Alice", chat.Sender)
		assert.Equal(t, text[:200], chat.Text)

		assert.Equal(t, usecase.Stats{Players: 2, Rooms: 1, Waiting: 0}, ts.dispatcher.Stats())
	})

	t.Run("Opponent left and requeued", func(t *testing.T) {
		ts := newTestServer(t)
		alice, bob := startGame(t, ts)

		// When: Bob closes his socket
		require.NoError(t, bob.Close())

		// Then: Alice is told and waits for the next opponent
		assert.Equal(t, usecase.EventOpponentLeft, read(t, alice).Action)
		assert.Equal(t, usecase.EventWaitForOpponent, read(t, alice).Action)

		carol := ts.dial(t, "Carol")
		start := read(t, carol)
		assert.Equal(t, usecase.EventGameStart, start.Action)
		assert.JSONEq(t, `{"symbol":"O","opponentName":"Alice"}`, string(start.Payload))

		assert.Eventually(t, func() bool {
			return ts.dispatcher.Stats() == usecase.Stats{Players: 2, Rooms: 1, Waiting: 0}
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Wait message has no payload", func(t *testing.T) {
		ts := newTestServer(t)
		conn := ts.dial(t, "")

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"wait_for_opponent"}`, string(data))
	})

	t.Run("Closed connection is unregistered", func(t *testing.T) {
		ts := newTestServer(t)
		conn := ts.dial(t, "Alice")
		_ = read(t, conn)

		require.NoError(t, conn.Close())

		assert.Eventually(t, func() bool {
			return ts.hub.Len() == 0 && ts.dispatcher.Stats() == usecase.Stats{}
		}, time.Second, 10*time.Millisecond)
	})
}

func TestServer_Keepalive(t *testing.T) {
	options := Options{SendBuffer: 64, PongWait: 300 * time.Millisecond, PingPeriod: 100 * time.Millisecond}

	t.Run("Responsive client is pinged and kept", func(t *testing.T) {
		ts := newTestServerWith(t, options)
		conn := ts.dial(t, "Alice")

		// Given: a client that answers every ping while reading
		var pings atomic.Int32
		conn.SetPingHandler(func(data string) error {
			pings.Add(1)
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})

		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		// When: several pong deadlines pass
		time.Sleep(4 * options.PongWait)

		// Then: pings kept arriving and the player is still registered
		assert.GreaterOrEqual(t, pings.Load(), int32(5))
		assert.Equal(t, 1, ts.dispatcher.Stats().Players)
	})

	t.Run("Silent client is dropped after the pong deadline", func(t *testing.T) {
		ts := newTestServerWith(t, options)

		// Given: a client that never reads, so it never answers pings
		_ = ts.dial(t, "Alice")

		// Then: the server disconnects it once the read deadline passes
		assert.Eventually(t, func() bool {
			return ts.dispatcher.Stats() == usecase.Stats{} && ts.hub.Len() == 0
		}, 10*options.PongWait, 20*time.Millisecond)
	})
}

// recordingObserver - keeps observed events for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	events []entity.MatchEvent
}

func (that *recordingObserver) Observe(event entity.MatchEvent) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, event)
}

func (that *recordingObserver) kinds() []entity.MatchEventKind {
	that.mu.Lock()
	defer that.mu.Unlock()

	result := make([]entity.MatchEventKind, 0, len(that.events))
	for _, event := range that.events {
		result = append(result, event.Kind)
	}

	return result
}

func TestServer_Shutdown(t *testing.T) {
	// Given: a running server with one match in progress
	observer := &recordingObserver{}
	server, dispatcher, hub := newServer(Options{SendBuffer: 64}, observer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, listener)
	}()

	ts := &testServer{url: "http://" + listener.Addr().String(), dispatcher: dispatcher, hub: hub}
	startGame(t, ts)

	// When: the server is shut down
	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	// Then: by the time Serve returns every disconnect was dispatched and the room closed
	assert.Equal(t, usecase.Stats{}, dispatcher.Stats())
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, []entity.MatchEventKind{entity.MatchStarted, entity.MatchClosed}, observer.kinds())
}

func keys(m map[string]any) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}

	return result
}
