package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"improv/host/internal/config"
	"improv/host/internal/scenario"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type HealthStatus struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

func (h HealthStatus) String() string {
	status := "OK"
	if !h.OK {
		status = "FAIL"
	}
	s := fmt.Sprintf("Health: %s\n", status)
	for _, c := range h.Checks {
		mark := "ok"
		if !c.OK {
			mark = "fail"
		}
		s += fmt.Sprintf("  [%s] %s (%dms)", mark, c.Name, c.Latency.Milliseconds())
		if c.Error != "" {
			s += " - " + c.Error
		}
		s += "\n"
	}
	return s
}

// CheckAll runs all health checks and returns combined status.
func CheckAll(ctx context.Context, cfg config.Config) HealthStatus {
	checks := []CheckResult{
		checkScenarios(cfg),
		checkSessionsDir(cfg),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}
	return HealthStatus{OK: allOK, Checks: checks, CheckedAt: time.Now().UTC()}
}

// checkScenarios runs a trial catalog load. A missing file is healthy (it
// means an empty catalog), invalid content is not.
func checkScenarios(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "scenarios"}
	if _, err := scenario.NewCatalog(cfg.Improv.ScenariosPath); err != nil {
		result.Error = err.Error()
		result.Latency = time.Since(start)
		return result
	}
	result.OK = true
	result.Latency = time.Since(start)
	return result
}

// checkSessionsDir verifies the snapshot directory is writable.
func checkSessionsDir(cfg config.Config) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "sessions_dir"}
	dir := cfg.Improv.SessionsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Error = err.Error()
		result.Latency = time.Since(start)
		return result
	}
	probe := filepath.Join(dir, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.Error = err.Error()
		result.Latency = time.Since(start)
		return result
	}
	_ = os.Remove(probe)
	result.OK = true
	result.Latency = time.Since(start)
	return result
}
