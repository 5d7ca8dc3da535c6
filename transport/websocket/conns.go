package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// connection pairs a socket with a write lock; gorilla allows only one
// concurrent writer per connection.
type connection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *connection) writeJSON(v any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn.WriteJSON(v)
}

// connectionManager maps connection ids to live sockets.
type connectionManager struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

func newConnectionManager() *connectionManager {
	return &connectionManager{
		conns: make(map[string]*connection),
	}
}

func (that *connectionManager) add(id string, conn *websocket.Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.conns[id] = &connection{conn: conn}
}

func (that *connectionManager) remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.conns, id)
}

func (that *connectionManager) get(id string) (*connection, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conn, ok := that.conns[id]

	return conn, ok
}
