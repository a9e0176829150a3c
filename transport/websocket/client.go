package websocket

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Default time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum frame size allowed from peer. Chat text is truncated well below it.
	maxMessageSize = 64 * 1024
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// readPump - reads frames until the peer goes away and hands each one to the server.
func (that *client) readPump(server *Server) {
	log := server.logger.With("method", "readPump", "conn_id", that.id)

	defer func() {
		server.dispatcher.Disconnect(that.id)
		server.hub.unregister(that)
		_ = that.conn.Close()

		log.Info("connection closed")
		server.pumps.Done()
	}()

	that.conn.SetReadLimit(server.options.ReadLimit)
	_ = that.conn.SetReadDeadline(time.Now().Add(server.options.PongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(server.options.PongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				log.Warn("frame exceeds read limit", "limit", server.options.ReadLimit)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}

			return
		}

		server.handleMessage(that.id, data)
	}
}

// writePump - writes queued frames and pings. It owns every write on the connection.
func (that *client) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
