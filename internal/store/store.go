package store

import (
	"errors"
	"sync"
	"time"

	"improv/host/internal/improv"
	"improv/host/internal/types"
)

var ErrSessionExists = errors.New("session already exists")

// Store owns all per-session data: session metadata, the improv state the
// tool surface mutates, and a bounded event log per session.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*types.Session
	states       map[string]*improv.State
	events       map[string][]types.Event
	agentRunning map[string]bool
}

func New() *Store {
	return &Store{
		sessions:     make(map[string]*types.Session),
		states:       make(map[string]*improv.State),
		events:       make(map[string][]types.Event),
		agentRunning: make(map[string]bool),
	}
}

func (s *Store) CreateSession(sess *types.Session, st *improv.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	s.sessions[sess.ID] = sess
	s.states[sess.ID] = st
	s.events[sess.ID] = []types.Event{}
	return nil
}

func (s *Store) GetSession(id string) *types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// StateCopy returns an independent copy of a session's improv state.
func (s *Store) StateCopy(id string) (improv.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.states[id]
	if st == nil {
		return improv.State{}, false
	}
	return st.Clone(), true
}

// MutateState runs fn against the session's live state under the store
// lock. Each session is driven by one cooperative flow, but the HTTP API
// and the agent channel may both reach the same state, so mutations all
// funnel through here.
func (s *Store) MutateState(id string, fn func(*improv.State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[id]
	if st == nil {
		return false
	}
	fn(st)
	return true
}

func (s *Store) AppendEvent(sessionID, typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], evt)
	// Cap total events per session to avoid unbounded growth
	const maxEvents = 200
	if l := len(s.events[sessionID]); l > maxEvents {
		keep := maxEvents - 1
		dropped := l - keep
		s.events[sessionID] = append([]types.Event(nil), s.events[sessionID][l-keep:]...)
		warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"session_id": sessionID, "dropped": dropped, "kept": keep}}
		s.events[sessionID] = append(s.events[sessionID], warn)
	}
	return evt
}

func (s *Store) ListEvents(sessionID string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.events[sessionID]
	out := make([]types.Event, len(src))
	copy(out, src)
	return out
}

func (s *Store) SetAgentRunning(sessionID string, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentRunning[sessionID] = running
}

func (s *Store) IsAgentRunning(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentRunning[sessionID]
}

func (s *Store) SetAgentPID(sessionID string, pid int) {
	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.AgentPID = pid
	}
	s.mu.Unlock()
}

func (s *Store) SetAgentExit(sessionID string, code int, at time.Time) {
	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.AgentLastExitCode = code
		sess.AgentLastExitAt = &at
	}
	s.mu.Unlock()
}

func (s *Store) ListSessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}
