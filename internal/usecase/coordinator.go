package usecase

import (
	"errors"
	"log/slog"
	"sync"

	"tictactoe-server/internal/apperror"
	"tictactoe-server/internal/entity"
	"tictactoe-server/internal/registry"
)

// EventSender delivers an event to a single connection. The transport
// implements it; events addressed to connections that are already gone
// are dropped there.
type EventSender interface {
	Send(connID string, event Event) error
}

// binding records which session and slot a connection holds. A
// connection is bound to at most one session at a time.
type binding struct {
	sessionID string
	slot      int
}

// Coordinator translates transport events into session operations and
// session state back into unicast and broadcast events. Per-request
// failures are local: an illegal request changes nothing and emits no
// broadcast, it never tears a session down.
//
// Each operation and its broadcast run under a per-session room lock,
// so every connection in a session receives state updates in the order
// the operations were applied, and each broadcast carries the state
// its operation produced. Sessions do not order against each other.
type Coordinator struct {
	logger   *slog.Logger
	registry *registry.Registry
	sender   EventSender

	mu       sync.Mutex
	bindings map[string]binding
	rooms    map[string]*sync.Mutex
}

func NewCoordinator(logger *slog.Logger, reg *registry.Registry) *Coordinator {
	return &Coordinator{
		logger:   logger,
		registry: reg,
		bindings: make(map[string]binding),
		rooms:    make(map[string]*sync.Mutex),
	}
}

// SetSender - attaches the transport. The transport needs the
// coordinator to dispatch inbound messages and the coordinator needs
// the transport to emit events, so the sender is wired in second.
func (that *Coordinator) SetSender(sender EventSender) {
	that.sender = sender
}

// HandleJoin - finds or creates the session, assigns the first vacant
// slot and broadcasts the new state. A rejected connection is told the
// session is full; nobody else hears about it.
func (that *Coordinator) HandleJoin(connID, sessionID string) {
	log := that.logger.With("method", "HandleJoin", "connID", connID, "sessionID", sessionID)

	if _, bound := that.bindingFor(connID); bound {
		log.Info("connection already bound to a session, join ignored")
		return
	}

	room := that.roomLock(sessionID)
	room.Lock()
	defer room.Unlock()

	session, slot, ready, err := that.registry.Join(sessionID, connID)
	if errors.Is(err, apperror.ErrSessionFull) {
		log.Info("session is full, join rejected")
		that.send(connID, Event{Action: ActionFull})
		return
	}

	that.mu.Lock()
	that.bindings[connID] = binding{sessionID: sessionID, slot: slot}
	that.mu.Unlock()

	that.send(connID, Event{
		Action:  ActionAssigned,
		Payload: AssignedPayload{Slot: slot, Mark: entity.MarkForSlot(slot)},
	})

	that.broadcastState(session)

	if ready {
		that.broadcast(session, Event{Action: ActionReady})
	}

	log.Info("participant joined", "slot", slot)
}

// HandleMove - applies a move for the connection's bound session.
// Illegal moves are not errors: nothing changes and nothing is sent.
func (that *Coordinator) HandleMove(connID string, cell int) {
	b, ok := that.bindingFor(connID)
	if !ok {
		return
	}

	room := that.roomLock(b.sessionID)
	room.Lock()
	defer room.Unlock()

	session, ok := that.registry.Get(b.sessionID)
	if !ok {
		return
	}

	if !session.Move(b.slot, cell) {
		return
	}

	that.broadcastState(session)
}

// HandleReset - restarts the game on behalf of a bound participant.
// Requests from connections without a binding are ignored.
func (that *Coordinator) HandleReset(connID string) {
	b, ok := that.bindingFor(connID)
	if !ok {
		return
	}

	room := that.roomLock(b.sessionID)
	room.Lock()
	defer room.Unlock()

	session, ok := that.registry.Get(b.sessionID)
	if !ok {
		return
	}

	if !session.Reset() {
		return
	}

	that.logger.Info("session reset", "sessionID", b.sessionID, "connID", connID)

	that.broadcastState(session)
}

// HandleDisconnect - vacates the connection's slot, removes the
// session once it is empty, and otherwise tells the remaining
// participant which slot left.
func (that *Coordinator) HandleDisconnect(connID string) {
	log := that.logger.With("method", "HandleDisconnect", "connID", connID)

	that.mu.Lock()
	b, ok := that.bindings[connID]
	delete(that.bindings, connID)
	that.mu.Unlock()

	if !ok {
		return
	}

	room := that.roomLock(b.sessionID)
	room.Lock()
	defer room.Unlock()

	session, ok := that.registry.Get(b.sessionID)
	if !ok {
		return
	}

	slot, remaining, removed := session.RemoveParticipant(connID)
	if !removed {
		return
	}

	if remaining == 0 {
		if that.registry.RemoveIfEmpty(b.sessionID) {
			that.dropRoomLock(b.sessionID)
		}
		log.Info("last participant left, session removed", "sessionID", b.sessionID)
		return
	}

	that.broadcast(session, Event{Action: ActionLeft, Payload: LeftPayload{Slot: slot}})

	log.Info("participant left", "sessionID", b.sessionID, "slot", slot)
}

func (that *Coordinator) bindingFor(connID string) (binding, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	b, ok := that.bindings[connID]

	return b, ok
}

// roomLock - returns the lock that serializes operations and their
// broadcasts for one session id.
func (that *Coordinator) roomLock(sessionID string) *sync.Mutex {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[sessionID]
	if !ok {
		room = &sync.Mutex{}
		that.rooms[sessionID] = room
	}

	return room
}

// dropRoomLock - forgets the room lock of a removed session so the
// rooms table does not grow with every session id ever seen.
func (that *Coordinator) dropRoomLock(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, sessionID)
}

// broadcastState - sends one consistent snapshot to every connection
// in the session. Callers hold the room lock, so the snapshot is the
// state produced by the operation being broadcast.
func (that *Coordinator) broadcastState(session *entity.Session) {
	that.broadcast(session, Event{Action: ActionState, Payload: session.Snapshot()})
}

func (that *Coordinator) broadcast(session *entity.Session, event Event) {
	for _, connID := range session.ParticipantIDs() {
		that.send(connID, event)
	}
}

func (that *Coordinator) send(connID string, event Event) {
	if err := that.sender.Send(connID, event); err != nil {
		that.logger.Error("failed to send event", "connID", connID, "action", event.Action, "error", err)
	}
}
