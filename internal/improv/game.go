// Package improv holds the round state machine for the improv game show.
package improv

import (
	"errors"

	"improv/host/internal/random"
	"improv/host/internal/scenario"
)

// Phase is descriptive metadata about where the show is. No operation
// transitions it automatically; the model runtime sets it if it cares.
type Phase string

const (
	PhaseIntro    Phase = "intro"
	PhaseAwaiting Phase = "awaiting_improv"
	PhaseReacting Phase = "reacting"
	PhaseDone     Phase = "done"
)

// ErrNoRounds is returned by CurrentScene when no rounds have been drawn.
var ErrNoRounds = errors.New("no rounds selected")

// Closing returns the fixed wrap-up record served once all rounds are
// played. Repeated calls past the end return it again unchanged.
func Closing() scenario.Scenario {
	return scenario.Scenario{
		ID:     "closing",
		Prompt: "Thanks for playing! You completed the improv show. Summarize the player's strengths and one suggestion.",
	}
}

// State is the full per-session improv state. It is owned by the session
// store and mutated only through Game operations.
type State struct {
	PlayerName   string              `json:"player_name"`
	CurrentRound int                 `json:"current_round"`
	MaxRounds    int                 `json:"max_rounds"`
	Rounds       []scenario.Scenario `json:"rounds"`
	Phase        Phase               `json:"phase"`
	StoryHistory []any               `json:"story_history"`
}

// Clone returns an independent copy for diagnostics and snapshots.
func (s State) Clone() State {
	out := s
	out.Rounds = make([]scenario.Scenario, len(s.Rounds))
	for i, r := range s.Rounds {
		out.Rounds[i] = r.Clone()
	}
	out.StoryHistory = make([]any, len(s.StoryHistory))
	copy(out.StoryHistory, s.StoryHistory)
	return out
}

// Game binds the round state machine to a catalog and a configured round
// count. It carries no per-session state itself.
type Game struct {
	catalog   *scenario.Catalog
	maxRounds int
}

func New(catalog *scenario.Catalog, maxRounds int) *Game {
	if maxRounds <= 0 {
		maxRounds = 3
	}
	return &Game{catalog: catalog, maxRounds: maxRounds}
}

func (g *Game) MaxRounds() int { return g.maxRounds }

// Initialize overwrites st with a fresh draw and zeroed counters. It is
// used both at session start and on restart; any prior state is discarded.
func (g *Game) Initialize(st *State, seed int64) {
	*st = State{
		CurrentRound: 0,
		MaxRounds:    g.maxRounds,
		Rounds:       g.catalog.PickUniqueSet(g.maxRounds, seed),
		Phase:        PhaseIntro,
		StoryHistory: []any{},
	}
}

// Restart re-draws rounds and returns the first scene, or the fallback
// when the draw came back empty.
func (g *Game) Restart(st *State, seed int64) scenario.Scenario {
	g.Initialize(st, seed)
	if len(st.Rounds) == 0 {
		return scenario.Fallback()
	}
	return st.Rounds[0].Clone()
}

// CurrentScene returns the record for the round the session is on. An
// out-of-range index is clamped to 0 rather than failing; a live show must
// not dead-end on corrupted state.
func (g *Game) CurrentScene(st *State) (scenario.Scenario, error) {
	if len(st.Rounds) == 0 {
		return scenario.Scenario{}, ErrNoRounds
	}
	if st.CurrentRound < 0 || st.CurrentRound >= len(st.Rounds) {
		st.CurrentRound = 0
	}
	return st.Rounds[st.CurrentRound].Clone(), nil
}

// AdvanceRound moves to the next round and returns its record. With no
// rounds drawn yet it first draws a fresh set. At or past the last round
// it returns the closing record and leaves the index alone, so calling it
// again keeps returning the same closing record.
func (g *Game) AdvanceRound(st *State) scenario.Scenario {
	if len(st.Rounds) == 0 {
		st.Rounds = g.catalog.PickUniqueSet(g.maxRounds, random.NewSeed())
	}
	if st.CurrentRound+1 < len(st.Rounds) {
		st.CurrentRound++
		return st.Rounds[st.CurrentRound].Clone()
	}
	return Closing()
}
