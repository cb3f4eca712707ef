package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"improv/host/internal/improv"
	"improv/host/internal/random"
	"improv/host/internal/scenario"
)

// SceneResult is the MCP tool output for a scenario or closing record.
type SceneResult struct {
	ID     string         `json:"id" jsonschema:"scenario identifier"`
	Prompt string         `json:"prompt" jsonschema:"the improv prompt the host reads out"`
	Hint   string         `json:"hint,omitempty" jsonschema:"short hint for the player"`
	Extra  map[string]any `json:"extra,omitempty" jsonschema:"catalog metadata beyond the core fields"`
	Error  string         `json:"error,omitempty" jsonschema:"set when no rounds are selected"`
}

// StateResult is the MCP tool output for the full session state.
type StateResult struct {
	PlayerName   string        `json:"player_name" jsonschema:"player name, if known"`
	CurrentRound int           `json:"current_round" jsonschema:"zero-based index of the current round"`
	MaxRounds    int           `json:"max_rounds" jsonschema:"configured number of rounds"`
	Rounds       []SceneResult `json:"rounds" jsonschema:"the drawn round sequence"`
	Phase        string        `json:"phase" jsonschema:"descriptive phase (intro, awaiting_improv, reacting, done)"`
	StoryHistory []any         `json:"story_history" jsonschema:"accumulated story history entries"`
}

// SaveSessionInput names the snapshot; omitted means a timestamp name.
type SaveSessionInput struct {
	SessionName string `json:"session_name,omitempty" jsonschema:"optional snapshot name"`
}

type SaveSessionResult struct {
	Path string `json:"path" jsonschema:"filesystem path the snapshot was written to"`
}

// RestartStoryInput optionally fixes the draw seed for reproducibility.
type RestartStoryInput struct {
	Seed *int64 `json:"seed,omitempty" jsonschema:"optional seed for a reproducible round draw"`
}

type emptyInput struct{}

func sceneResult(sc scenario.Scenario) SceneResult {
	return SceneResult{ID: sc.ID, Prompt: sc.Prompt, Hint: sc.Hint, Extra: sc.Extra}
}

func stateResult(st improv.State) StateResult {
	out := StateResult{
		PlayerName:   st.PlayerName,
		CurrentRound: st.CurrentRound,
		MaxRounds:    st.MaxRounds,
		Phase:        string(st.Phase),
		StoryHistory: st.StoryHistory,
	}
	out.Rounds = make([]SceneResult, len(st.Rounds))
	for i, r := range st.Rounds {
		out.Rounds[i] = sceneResult(r)
	}
	return out
}

func registerImprovTools(mcpServer *mcp.Server, s *Server) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "get_current_scene",
		Description: "Return the scene for the round the player is currently on.",
	}, s.getCurrentScene)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "next_round",
		Description: "Advance to the next round, or return the closing summary when all rounds are played.",
	}, s.nextRound)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "save_session",
		Description: "Save the full session state to a named JSON snapshot and return its path.",
	}, s.saveSession)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "restart_story",
		Description: "Re-draw the rounds, reset counters, and return the first scene.",
	}, s.restartStory)
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "get_improv_state",
		Description: "Return the whole session state for debugging or UI display.",
	}, s.getImprovState)
}

func (s *Server) getCurrentScene(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, SceneResult, error) {
	var out SceneResult
	s.withState(func(st *improv.State) {
		scene, err := s.game.CurrentScene(st)
		if err != nil {
			out = SceneResult{Error: "No rounds selected."}
			return
		}
		out = sceneResult(scene)
	})
	return nil, out, nil
}

func (s *Server) nextRound(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, SceneResult, error) {
	var out SceneResult
	s.withState(func(st *improv.State) {
		out = sceneResult(s.game.AdvanceRound(st))
	})
	return nil, out, nil
}

func (s *Server) saveSession(ctx context.Context, _ *mcp.CallToolRequest, input SaveSessionInput) (*mcp.CallToolResult, SaveSessionResult, error) {
	var st improv.State
	s.withState(func(cur *improv.State) { st = cur.Clone() })
	path, err := s.snaps.Save(input.SessionName, st)
	if err != nil {
		return nil, SaveSessionResult{}, fmt.Errorf("save session: %w", err)
	}
	return nil, SaveSessionResult{Path: path}, nil
}

func (s *Server) restartStory(ctx context.Context, _ *mcp.CallToolRequest, input RestartStoryInput) (*mcp.CallToolResult, SceneResult, error) {
	seed := random.NewSeed()
	if input.Seed != nil {
		seed = *input.Seed
	}
	var out SceneResult
	s.withState(func(st *improv.State) {
		out = sceneResult(s.game.Restart(st, seed))
	})
	return nil, out, nil
}

func (s *Server) getImprovState(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, StateResult, error) {
	var out StateResult
	s.withState(func(st *improv.State) {
		out = stateResult(st.Clone())
	})
	return nil, out, nil
}
