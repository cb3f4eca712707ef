package agent

import "testing"

func TestStopUnknownSession(t *testing.T) {
	r := NewLocalRunner("sleep 60", nil, nil, nil)
	if err := r.Stop("ghost"); err == nil {
		t.Fatal("expected error stopping a session with no worker")
	}
}

func TestStopDuringStartWindow(t *testing.T) {
	r := NewLocalRunner("sleep 60", nil, nil, nil)
	canceled := false
	// a reserved slot has no process handle yet
	r.procs["s1"] = &proc{cancel: func() { canceled = true }}

	if err := r.Stop("s1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !canceled {
		t.Fatal("stop should cancel the worker context")
	}
	if r.IsRunning("s1") {
		t.Fatal("slot should be released after stop")
	}
}

func TestStartWithoutWorkerCmd(t *testing.T) {
	r := NewLocalRunner("", nil, nil, nil)
	if err := r.Start("s1", nil); err == nil {
		t.Fatal("expected error with no worker command configured")
	}
}
