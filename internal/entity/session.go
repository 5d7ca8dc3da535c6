package entity

import (
	"sync"

	"tictactoe-server/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	OutcomeTie = "tie"
)

// Capacity is the number of participant slots in a session.
const Capacity = 2

// MarkForSlot - maps a participant slot to its permanent mark.
// Slot 0 always plays X, slot 1 always plays O.
func MarkForSlot(slot int) string {
	if slot == 0 {
		return PlayerX
	}
	return PlayerO
}

// Session is one game room. It owns its board and participant slots;
// the mutex serializes every operation against the session, so callers
// never observe a torn intermediate state.
//
// Slots are positional and permanent: a departing participant leaves
// its slot vacant, and a later join fills the first vacant slot.
type Session struct {
	ID string

	mu           sync.Mutex
	participants [Capacity]string
	board        Board
	turn         int
	status       string
	outcome      string
}

func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		status: StatusWaiting,
	}
}

// State is a consistent copy of the observable session state, taken
// under the session lock. Every recipient of one broadcast sees the
// same snapshot.
type State struct {
	Board        Board  `json:"board"`
	Turn         int    `json:"turn"`
	Participants int    `json:"participants"`
	Finished     bool   `json:"finished"`
	Outcome      string `json:"outcome,omitempty"`
}

// Join - places the connection into the first vacant slot and returns
// the assigned slot index. ready is true exactly once, on the join
// that fills the session while it is still waiting for players.
// Returns apperror.ErrSessionFull when no slot is vacant; the session
// state is unaffected in that case.
func (that *Session) Join(connID string) (slot int, ready bool, err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, participant := range that.participants {
		if participant != "" {
			continue
		}

		that.participants[i] = connID

		if that.occupied() == Capacity && that.status == StatusWaiting {
			that.status = StatusOngoing
			return i, true, nil
		}

		return i, false, nil
	}

	return -1, false, apperror.ErrSessionFull
}

// Move - applies a move by the given slot. Returns false without any
// state change when the game is finished, it is not the slot's turn,
// the cell is occupied, or the cell index is invalid.
//
// On acceptance the win check runs before the full-board check, so a
// final move that both completes a line and fills the board counts as
// a win, not a tie.
func (that *Session) Move(slot, cell int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status == StatusFinished {
		return false
	}

	if slot != that.turn {
		return false
	}

	mark := MarkForSlot(slot)
	if err := that.board.Set(cell, mark); err != nil {
		return false
	}

	switch {
	case that.board.HasLine(mark):
		that.status = StatusFinished
		that.outcome = mark
	case that.board.IsFull():
		that.status = StatusFinished
		that.outcome = OutcomeTie
	default:
		that.turn = 1 - that.turn
	}

	return true
}

// Reset - clears the board and hands the first turn back to slot 0.
// Only meaningful once the session has left the waiting state; the
// participant list is never touched.
func (that *Session) Reset() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status == StatusWaiting {
		return false
	}

	that.board.Reset()
	that.turn = 0
	that.outcome = ""

	if that.occupied() == Capacity {
		that.status = StatusOngoing
	} else {
		that.status = StatusWaiting
	}

	return true
}

// RemoveParticipant - vacates the slot held by the connection. The
// remaining participant keeps its slot index; nothing is renumbered.
// remaining == 0 signals the caller that the session can be deleted.
func (that *Session) RemoveParticipant(connID string) (slot, remaining int, ok bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, participant := range that.participants {
		if participant != connID {
			continue
		}

		that.participants[i] = ""

		return i, that.occupied(), true
	}

	return -1, that.occupied(), false
}

// ParticipantIDs - returns the connection ids currently holding a slot.
func (that *Session) ParticipantIDs() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]string, 0, Capacity)
	for _, participant := range that.participants {
		if participant != "" {
			ids = append(ids, participant)
		}
	}

	return ids
}

func (that *Session) ParticipantCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.occupied()
}

func (that *Session) Snapshot() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return State{
		Board:        that.board,
		Turn:         that.turn,
		Participants: that.occupied(),
		Finished:     that.status == StatusFinished,
		Outcome:      that.outcome,
	}
}

// occupied - counts filled slots. Caller must hold the lock.
func (that *Session) occupied() int {
	count := 0
	for _, participant := range that.participants {
		if participant != "" {
			count++
		}
	}

	return count
}
