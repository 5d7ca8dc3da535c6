package websocket

import "encoding/json"

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	SessionID string `json:"session_id"`
}

type MovePayload struct {
	SessionID string `json:"session_id"`
	Cell      int    `json:"cell"`
}

type ResetPayload struct {
	SessionID string `json:"session_id"`
}
