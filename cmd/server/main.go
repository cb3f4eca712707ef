package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"improv/host/internal/agent"
	"improv/host/internal/agentws"
	"improv/host/internal/api"
	"improv/host/internal/config"
	"improv/host/internal/health"
	"improv/host/internal/improv"
	"improv/host/internal/scenario"
	"improv/host/internal/snapshot"
	"improv/host/internal/store"
	"improv/host/internal/tools"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	// Catalog validation failures are fatal: bad scenario data must be
	// fixed before the host serves any session.
	catalog, err := scenario.NewCatalog(cfg.Improv.ScenariosPath)
	if err != nil {
		log.Fatalf("load scenarios: %v", err)
	}
	log.Printf("catalog loaded: %d scenarios from %s", catalog.Len(), catalog.Path())

	st := store.New()
	game := improv.New(catalog, cfg.Improv.MaxRounds)
	snaps := snapshot.NewStore(cfg.Improv.SessionsDir)

	runner := agent.NewLocalRunner(cfg.Agent.WorkerCmd, func(sessionID string, err error) {
		st.SetAgentRunning(sessionID, false)
		st.SetAgentExit(sessionID, exitCodeFromErr(err), time.Now().UTC())
		st.AppendEvent(sessionID, "agent_exit", map[string]any{"error": errString(err)})
	}, func(sessionID, stream, line string) {
		st.AppendEvent(sessionID, "agent_log", map[string]any{"stream": stream, "line": line})
	}, func(sessionID string, pid int) {
		st.SetAgentPID(sessionID, pid)
	})

	h := api.NewHandlers(cfg, st, catalog, game, snaps, runner)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := health.CheckAll(r.Context(), cfg)
		w.Header().Set("Content-Type", "application/json")
		if !status.OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	// Agent worker WS route carries the tool surface
	reg := agentws.NewRegistry()
	disp := tools.New(game, st, snaps)
	wss := agentws.NewServer(cfg, st, reg, disp)
	mux.HandleFunc("/ws/agent", wss.HandleAgentWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		// Stop running agent workers before draining HTTP
		for _, id := range st.ListSessionIDs() {
			if runner.IsRunning(id) {
				_ = runner.Stop(id)
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("improv host starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func exitCodeFromErr(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
