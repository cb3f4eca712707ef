package agentws

import (
	"context"
	"encoding/json"
	"sync"

	ws "nhooyr.io/websocket"
)

// Registry keeps at most one agent connection per session.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*ws.Conn
}

func NewRegistry() *Registry { return &Registry{conns: make(map[string]*ws.Conn)} }

// Replace sets the connection for a session and closes the previous one if present.
func (r *Registry) Replace(sessionID string, c *ws.Conn) (prevClosed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[sessionID]; ok && old != nil {
		_ = old.Close(ws.StatusNormalClosure, "replaced")
		prevClosed = true
	}
	r.conns[sessionID] = c
	return
}

func (r *Registry) Get(sessionID string) *ws.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[sessionID]
}

// Remove drops the registration only while c is still the registered
// connection. A replaced handler's teardown must not evict its successor.
func (r *Registry) Remove(sessionID string, c *ws.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[sessionID] == c {
		delete(r.conns, sessionID)
	}
}

// SendJSON writes v to the session's connection, if any.
func (r *Registry) SendJSON(ctx context.Context, sessionID string, v any) error {
	r.mu.Lock()
	c := r.conns[sessionID]
	r.mu.Unlock()
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(ctx, ws.MessageText, b)
}
