package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"improv/host/internal/agent"
	"improv/host/internal/auth"
	"improv/host/internal/config"
	"improv/host/internal/improv"
	"improv/host/internal/random"
	"improv/host/internal/scenario"
	"improv/host/internal/snapshot"
	"improv/host/internal/store"
	"improv/host/internal/types"
)

type Handlers struct {
	cfg     config.Config
	store   *store.Store
	catalog *scenario.Catalog
	game    *improv.Game
	snaps   *snapshot.Store
	runner  agent.Runner
}

func NewHandlers(cfg config.Config, st *store.Store, cat *scenario.Catalog, g *improv.Game, snaps *snapshot.Store, r agent.Runner) *Handlers {
	return &Handlers{cfg: cfg, store: st, catalog: cat, game: g, snaps: snaps, runner: r}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type createSessionReq struct {
	Seed       *int64 `json:"seed"`
	PlayerName string `json:"player_name"`
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	seed := random.NewSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	id := uuid.New().String()
	var st improv.State
	h.game.Initialize(&st, seed)
	st.PlayerName = req.PlayerName

	sess := &types.Session{ID: id, CreatedAt: time.Now().UTC(), Status: "created"}
	_ = h.store.CreateSession(sess, &st)
	h.store.AppendEvent(id, "session_created", map[string]any{"max_rounds": st.MaxRounds})

	writeJSON(w, map[string]any{
		"session_id": id,
		"greeting":   h.cfg.Improv.Greeting,
		"state":      st.Clone(),
	})
}

func (h *Handlers) HandleGetState(w http.ResponseWriter, r *http.Request, id string) {
	st, ok := h.store.StateCopy(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, st)
}

type restartReq struct {
	Seed *int64 `json:"seed"`
}

func (h *Handlers) HandleRestart(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	var req restartReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	seed := random.NewSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	var first scenario.Scenario
	h.store.MutateState(id, func(st *improv.State) {
		first = h.game.Restart(st, seed)
	})
	h.store.AppendEvent(id, "story_restarted", map[string]any{"first_scene": first.ID})
	writeJSON(w, first)
}

func (h *Handlers) HandleAdvance(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	var scene scenario.Scenario
	h.store.MutateState(id, func(st *improv.State) {
		scene = h.game.AdvanceRound(st)
	})
	h.store.AppendEvent(id, "round_advanced", map[string]any{"scene": scene.ID})
	writeJSON(w, scene)
}

type snapshotReq struct {
	Name string `json:"name"`
}

func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	st, ok := h.store.StateCopy(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var req snapshotReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	path, err := h.snaps.Save(req.Name, st)
	if err != nil {
		// Persistence failures surface to the caller; nothing is retried.
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.store.AppendEvent(id, "snapshot_saved", map[string]any{"path": path})
	writeJSON(w, map[string]any{"path": path})
}

func (h *Handlers) HandleRestore(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	var req snapshotReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Name == "" {
		http.Error(w, "missing snapshot name", http.StatusBadRequest)
		return
	}
	st, err := h.snaps.Load(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.store.MutateState(id, func(cur *improv.State) { *cur = st })
	h.store.AppendEvent(id, "snapshot_restored", map[string]any{"name": req.Name})
	writeJSON(w, st.Clone())
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"session_id": id,
		"events":     h.store.ListEvents(id),
	})
}

func (h *Handlers) HandleStartAgent(w http.ResponseWriter, r *http.Request, id string) {
	sess := h.store.GetSession(id)
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	if h.store.IsAgentRunning(id) {
		h.store.AppendEvent(id, "agent_start_requested", map[string]any{"noop": true})
		writeJSON(w, map[string]any{"ok": true, "running": true})
		return
	}
	h.store.AppendEvent(id, "agent_start_requested", nil)

	exp := time.Now().Add(time.Duration(h.cfg.Agent.TokenExpMin) * time.Minute).Unix()
	token := auth.GenerateAgentToken(h.cfg.Agent.TokenSecret, id, exp)
	env := map[string]string{
		"IMPROV_SESSION_ID":  id,
		"IMPROV_HOST_WS":     "ws://localhost:" + h.cfg.Server.Port + "/ws/agent?session_id=" + id,
		"IMPROV_AGENT_TOKEN": token,
		"IMPROV_GREETING":    h.cfg.Improv.Greeting,
	}
	if err := h.runner.Start(id, env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.store.SetAgentRunning(id, true)
	h.store.AppendEvent(id, "agent_started", nil)
	writeJSON(w, map[string]any{"ok": true, "running": true})
}

func (h *Handlers) HandleEndAgent(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	if !h.runner.IsRunning(id) {
		h.store.AppendEvent(id, "agent_stop_requested", map[string]any{"noop": true})
		writeJSON(w, map[string]any{"ok": true, "running": false})
		return
	}
	h.store.AppendEvent(id, "agent_stop_requested", nil)
	_ = h.runner.Stop(id)
	h.store.SetAgentRunning(id, false)
	h.store.AppendEvent(id, "agent_stopped", nil)
	writeJSON(w, map[string]any{"ok": true, "running": false})
}

func (h *Handlers) HandleMintAgentToken(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	if h.cfg.Agent.TokenSecret == "" {
		http.Error(w, "agent auth not configured", http.StatusBadRequest)
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.Agent.TokenExpMin) * time.Minute).Unix()
	token := auth.GenerateAgentToken(h.cfg.Agent.TokenSecret, id, exp)
	writeJSON(w, map[string]any{"token": token, "exp": exp})
}

func (h *Handlers) HandleListCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"scenarios": h.catalog.All()})
}

func (h *Handlers) HandleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "count": h.catalog.Len()})
}
