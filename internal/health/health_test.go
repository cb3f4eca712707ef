package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"improv/host/internal/config"
)

func TestCheckAllHealthy(t *testing.T) {
	var cfg config.Config
	cfg.Improv.ScenariosPath = filepath.Join(t.TempDir(), "missing.json")
	cfg.Improv.SessionsDir = filepath.Join(t.TempDir(), "sessions")

	status := CheckAll(context.Background(), cfg)
	if !status.OK {
		t.Fatalf("expected healthy status, got %s", status)
	}
}

func TestCheckAllBadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var cfg config.Config
	cfg.Improv.ScenariosPath = path
	cfg.Improv.SessionsDir = t.TempDir()

	status := CheckAll(context.Background(), cfg)
	if status.OK {
		t.Fatal("expected unhealthy status for invalid scenarios file")
	}
}
