package registry

import (
	"sync"

	"tictactoe-server/internal/entity"
)

// Registry owns the collection of live sessions, keyed by session id.
// All operations are atomic per id: two joins racing on an unseen id
// always observe the same session instance.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*entity.Session),
	}
}

// GetOrCreate - returns the session for id, creating it on first use.
func (that *Registry) GetOrCreate(id string) *entity.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.getOrCreate(id)
}

// Join - finds or creates the session for id and joins the connection
// to it, all under the registry lock. RemoveIfEmpty takes the same
// lock, so a session can never be dropped from the registry while a
// join is mid-flight on it: the returned session is the registered one.
func (that *Registry) Join(id, connID string) (*entity.Session, int, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session := that.getOrCreate(id)

	slot, ready, err := session.Join(connID)
	if err != nil {
		return nil, -1, false, err
	}

	return session, slot, ready, nil
}

// getOrCreate - caller must hold the lock.
func (that *Registry) getOrCreate(id string) *entity.Session {
	if session, ok := that.sessions[id]; ok {
		return session
	}

	session := entity.NewSession(id)
	that.sessions[id] = session

	return session
}

func (that *Registry) Get(id string) (*entity.Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]

	return session, ok
}

// RemoveIfEmpty - deletes the session when its last participant is
// gone. Reports whether the session was removed.
func (that *Registry) RemoveIfEmpty(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return false
	}

	if session.ParticipantCount() > 0 {
		return false
	}

	delete(that.sessions, id)

	return true
}

func (that *Registry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}
