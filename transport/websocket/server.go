package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/pkg"
)

type dispatcher interface {
	Connect(connID, name string)
	Disconnect(connID string)
	MakeMove(connID string, index *int)
	SendMessage(connID, text string)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Options - per-connection limits and keepalive timings. Zero fields take the defaults.
type Options struct {
	SendBuffer int
	ReadLimit  int64
	PongWait   time.Duration
	PingPeriod time.Duration
}

func (that Options) withDefaults() Options {
	if that.SendBuffer <= 0 {
		that.SendBuffer = 1
	}

	if that.ReadLimit <= 0 {
		that.ReadLimit = maxMessageSize
	}

	if that.PongWait <= 0 {
		that.PongWait = pongWait
	}

	if that.PingPeriod <= 0 || that.PingPeriod >= that.PongWait {
		that.PingPeriod = (that.PongWait * 9) / 10
	}

	return that
}

type Server struct {
	logger     *slog.Logger
	hub        *Hub
	dispatcher dispatcher
	options    Options

	// pumps - live read pumps; Serve waits for them so every disconnect is dispatched before it returns.
	pumps sync.WaitGroup

	handlers map[string]func(connID string, payload json.RawMessage)
}

func New(logger *slog.Logger, hub *Hub, dispatcher dispatcher, options Options) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		hub:        hub,
		dispatcher: dispatcher,
		options:    options.withDefaults(),

		handlers: make(map[string]func(string, json.RawMessage)),
	}

	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionSendMessage] = server.handleSendMessage

	return server
}

func (that *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", that.serveWS).Methods(http.MethodGet)

	return router
}

// Start - starts WebSocket server and blocks until ctx is done or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve - serves on listener until ctx is done. On shutdown it closes every connection and
// returns only after their disconnects went through the dispatcher.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	// hijacked connections are not closed by Shutdown
	that.hub.closeAll()
	that.pumps.Wait()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// serveWS - upgrades the request, registers the connection and starts its pumps.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	// counted before the upgrade, while Shutdown still tracks this request
	that.pumps.Add(1)

	conn, err := upgrader.Upgrade(writer, req, nil)
	if err != nil {
		that.pumps.Done()
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	client := &client{
		id:   pkg.GenerateConnectionID(),
		conn: conn,
		send: make(chan []byte, that.options.SendBuffer),
	}

	if !that.hub.register(client) {
		_ = conn.Close()
		that.pumps.Done()
		log.Info("server is shutting down, connection refused")
		return
	}

	log.Info("WebSocket connection established", "conn_id", client.id)

	go client.writePump(that.options.PingPeriod)

	that.dispatcher.Connect(client.id, req.URL.Query().Get("name"))

	go client.readPump(that)
}

func (that *Server) handleMessage(connID string, data []byte) {
	log := that.logger.With("method", "handleMessage", "conn_id", connID)

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		return
	}

	handler(connID, message.Payload)
}

func (that *Server) handleMakeMove(connID string, payload json.RawMessage) {
	var move movePayload
	if err := json.Unmarshal(payload, &move); err != nil {
		// an unreadable index is rejected as an invalid cell
		move.Index = nil
	}

	that.dispatcher.MakeMove(connID, move.Index)
}

func (that *Server) handleSendMessage(connID string, payload json.RawMessage) {
	var chat chatPayload
	if err := json.Unmarshal(payload, &chat); err != nil {
		chat.Text = ""
	}

	that.dispatcher.SendMessage(connID, chat.Text)
}
