package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connection wraps one client socket. Writes are serialized by the
// connection's own mutex; gorilla allows a single concurrent writer.
type connection struct {
	participantID string

	mu   sync.Mutex
	sock *websocket.Conn
}

func newConnection(participantID string, sock *websocket.Conn) *connection {
	return &connection{
		participantID: participantID,
		sock:          sock,
	}
}

func (that *connection) send(v any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.sock.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return that.sock.WriteJSON(v)
}

// connections tracks open connections by participant id.
type connections struct {
	mu   sync.RWMutex
	byID map[string]*connection
}

func newConnections() *connections {
	return &connections{
		byID: make(map[string]*connection),
	}
}

func (that *connections) add(conn *connection) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.byID[conn.participantID] = conn
}

func (that *connections) remove(participantID string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.byID, participantID)
}

func (that *connections) get(participantID string) (*connection, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()
	conn, ok := that.byID[participantID]
	return conn, ok
}

func (that *connections) all() []*connection {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conns := make([]*connection, 0, len(that.byID))
	for _, conn := range that.byID {
		conns = append(conns, conn)
	}

	return conns
}
