// Package tools implements the callable tool surface the model runtime
// drives the improv game through.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"improv/host/internal/improv"
	"improv/host/internal/random"
	"improv/host/internal/snapshot"
	"improv/host/internal/store"
)

var ErrUnknownSession = errors.New("unknown session")

const (
	ToolGetCurrentScene = "get_current_scene"
	ToolNextRound       = "next_round"
	ToolSaveSession     = "save_session"
	ToolRestartStory    = "restart_story"
	ToolGetImprovState  = "get_improv_state"
)

// Dispatcher maps tool names to game operations against a session's state.
type Dispatcher struct {
	game  *improv.Game
	store *store.Store
	snaps *snapshot.Store
}

func New(game *improv.Game, st *store.Store, snaps *snapshot.Store) *Dispatcher {
	return &Dispatcher{game: game, store: st, snaps: snaps}
}

type saveArgs struct {
	SessionName string `json:"session_name"`
}

type restartArgs struct {
	Seed *int64 `json:"seed"`
}

// Call executes a named tool for a session. The result is JSON-encodable.
// Only persistence failures and protocol misuse (unknown tool or session)
// come back as errors; degraded game state resolves to fallback results so
// the conversation never dead-ends.
func (d *Dispatcher) Call(sessionID, name string, args json.RawMessage) (any, error) {
	metricToolCalls.WithLabelValues(name).Inc()
	res, err := d.call(sessionID, name, args)
	if err != nil {
		metricToolErrors.WithLabelValues(name).Inc()
	}
	return res, err
}

func (d *Dispatcher) call(sessionID, name string, args json.RawMessage) (any, error) {
	switch name {
	case ToolGetCurrentScene:
		var out any
		ok := d.store.MutateState(sessionID, func(st *improv.State) {
			scene, err := d.game.CurrentScene(st)
			if err != nil {
				// Degraded, not fatal: the model reads the error text
				// and keeps the show going.
				out = map[string]any{"error": "No rounds selected."}
				return
			}
			out = scene
		})
		if !ok {
			return nil, ErrUnknownSession
		}
		return out, nil

	case ToolNextRound:
		var out any
		ok := d.store.MutateState(sessionID, func(st *improv.State) {
			scene := d.game.AdvanceRound(st)
			if scene.ID == "closing" {
				metricShowsCompleted.Inc()
			} else {
				metricRoundsAdvanced.Inc()
			}
			out = scene
		})
		if !ok {
			return nil, ErrUnknownSession
		}
		return out, nil

	case ToolSaveSession:
		var a saveArgs
		if len(args) > 0 {
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("save_session args: %w", err)
			}
		}
		st, ok := d.store.StateCopy(sessionID)
		if !ok {
			return nil, ErrUnknownSession
		}
		path, err := d.snaps.Save(a.SessionName, st)
		if err != nil {
			return nil, err
		}
		metricSnapshotsWritten.Inc()
		return map[string]any{"path": path}, nil

	case ToolRestartStory:
		var a restartArgs
		if len(args) > 0 {
			if err := json.Unmarshal(args, &a); err != nil {
				return nil, fmt.Errorf("restart_story args: %w", err)
			}
		}
		seed := random.NewSeed()
		if a.Seed != nil {
			seed = *a.Seed
		}
		var out any
		ok := d.store.MutateState(sessionID, func(st *improv.State) {
			out = d.game.Restart(st, seed)
		})
		if !ok {
			return nil, ErrUnknownSession
		}
		return out, nil

	case ToolGetImprovState:
		st, ok := d.store.StateCopy(sessionID)
		if !ok {
			return nil, ErrUnknownSession
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}
