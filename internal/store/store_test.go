package store

import (
	"testing"
	"time"

	"improv/host/internal/improv"
	"improv/host/internal/types"
)

func TestCreateAndGetSession(t *testing.T) {
	st := New()
	s := &types.Session{ID: "abc123", CreatedAt: time.Now()}
	if err := st.CreateSession(s, &improv.State{MaxRounds: 3}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	got := st.GetSession("abc123")
	if got == nil || got.ID != s.ID {
		t.Fatalf("expected session %q, got %#v", s.ID, got)
	}
	if err := st.CreateSession(s, &improv.State{}); err != ErrSessionExists {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
}

func TestStateCopyIsIndependent(t *testing.T) {
	st := New()
	game := &improv.State{CurrentRound: 1, MaxRounds: 3, StoryHistory: []any{}}
	_ = st.CreateSession(&types.Session{ID: "s1"}, game)

	cp, ok := st.StateCopy("s1")
	if !ok {
		t.Fatal("expected state for s1")
	}
	cp.CurrentRound = 99

	again, _ := st.StateCopy("s1")
	if again.CurrentRound != 1 {
		t.Fatalf("copy mutation leaked into store, got %d", again.CurrentRound)
	}
}

func TestMutateState(t *testing.T) {
	st := New()
	_ = st.CreateSession(&types.Session{ID: "s1"}, &improv.State{})

	ok := st.MutateState("s1", func(s *improv.State) { s.CurrentRound = 2 })
	if !ok {
		t.Fatal("mutate should find s1")
	}
	got, _ := st.StateCopy("s1")
	if got.CurrentRound != 2 {
		t.Fatalf("mutation not applied, got %d", got.CurrentRound)
	}
	if st.MutateState("nope", func(s *improv.State) {}) {
		t.Fatal("mutate on unknown session should report false")
	}
}

func TestEventsAppendAndList(t *testing.T) {
	st := New()
	_ = st.CreateSession(&types.Session{ID: "s1"}, &improv.State{})
	st.AppendEvent("s1", "tool_call", map[string]any{"tool": "next_round"})

	events := st.ListEvents("s1")
	if len(events) != 1 || events[0].Type != "tool_call" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestEventsAreCapped(t *testing.T) {
	st := New()
	_ = st.CreateSession(&types.Session{ID: "s1"}, &improv.State{})
	for i := 0; i < 250; i++ {
		st.AppendEvent("s1", "agent_log", nil)
	}
	events := st.ListEvents("s1")
	if len(events) > 200 {
		t.Fatalf("events not capped, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Type != "events_truncated" {
		t.Fatalf("expected truncation warning last, got %q", last.Type)
	}
}

func TestAgentLifecycleFlags(t *testing.T) {
	st := New()
	_ = st.CreateSession(&types.Session{ID: "s1"}, &improv.State{})

	st.SetAgentRunning("s1", true)
	if !st.IsAgentRunning("s1") {
		t.Fatal("expected agent running")
	}
	st.SetAgentPID("s1", 4242)
	st.SetAgentExit("s1", 1, time.Now().UTC())
	sess := st.GetSession("s1")
	if sess.AgentPID != 4242 || sess.AgentLastExitCode != 1 || sess.AgentLastExitAt == nil {
		t.Fatalf("agent exit info not recorded: %+v", sess)
	}
}
