package websocket

import "encoding/json"

// Message - envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type movePayload struct {
	Index *int `json:"index"`
}

type chatPayload struct {
	Text string `json:"text"`
}

const (
	actionMakeMove    = "make_move"
	actionSendMessage = "send_message"
)
