package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptySessionID = errors.New("session id is empty")

func (that *Server) handleJoin(connID string, msg *Message) error {
	var payload JoinPayload

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal join payload: %w", err)
	}

	if payload.SessionID == "" {
		return ErrEmptySessionID
	}

	that.coordinator.HandleJoin(connID, payload.SessionID)

	return nil
}

func (that *Server) handleMove(connID string, msg *Message) error {
	var payload MovePayload

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal move payload: %w", err)
	}

	// the binding table, not the payload, decides which session the
	// move lands in
	that.coordinator.HandleMove(connID, payload.Cell)

	return nil
}

func (that *Server) handleReset(connID string, msg *Message) error {
	var payload ResetPayload

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reset payload: %w", err)
	}

	that.coordinator.HandleReset(connID)

	return nil
}
