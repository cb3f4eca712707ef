// Package agent launches and supervises the voice-agent worker process
// that carries the actual audio pipeline for a session.
package agent

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Runner starts and stops the per-session voice-agent worker.
type Runner interface {
	Start(sessionID string, env map[string]string) error
	Stop(sessionID string) error
	IsRunning(sessionID string) bool
}

type ExitCallback func(sessionID string, err error)
type LogCallback func(sessionID, stream, line string)
type StartCallback func(sessionID string, pid int)

// LocalRunner runs the worker as a local child process. The worker command
// comes from config; session specifics are passed through the environment.
type LocalRunner struct {
	workerCmd string
	onExit    ExitCallback
	onLog     LogCallback
	onStart   StartCallback

	mu    sync.Mutex
	procs map[string]*proc
}

type proc struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

func NewLocalRunner(workerCmd string, onExit ExitCallback, onLog LogCallback, onStart StartCallback) *LocalRunner {
	return &LocalRunner{
		workerCmd: workerCmd,
		onExit:    onExit,
		onLog:     onLog,
		onStart:   onStart,
		procs:     make(map[string]*proc),
	}
}

func (r *LocalRunner) IsRunning(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[sessionID]
	return ok
}

func (r *LocalRunner) Start(sessionID string, env map[string]string) error {
	if strings.TrimSpace(r.workerCmd) == "" {
		return errors.New("agent worker command not configured")
	}

	parts := strings.Fields(r.workerCmd)
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)

	// Reserve the slot first so two starts for one session cannot race.
	r.mu.Lock()
	if _, exists := r.procs[sessionID]; exists {
		r.mu.Unlock()
		cancel()
		return errors.New("agent already running for session")
	}
	r.procs[sessionID] = &proc{cancel: cancel}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.procs, sessionID)
		r.mu.Unlock()
		cancel()
	}

	cmd.Env = append(os.Environ(), envToList(env)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		release()
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		release()
		return err
	}
	if err := cmd.Start(); err != nil {
		release()
		return err
	}

	r.mu.Lock()
	r.procs[sessionID] = &proc{cmd: cmd, cancel: cancel}
	r.mu.Unlock()

	if r.onStart != nil && cmd.Process != nil {
		r.onStart(sessionID, cmd.Process.Pid)
	}

	go r.stream(sessionID, "stdout", stdout)
	go r.stream(sessionID, "stderr", stderr)

	go func() {
		err := cmd.Wait()
		r.mu.Lock()
		delete(r.procs, sessionID)
		r.mu.Unlock()
		if r.onExit != nil {
			r.onExit(sessionID, err)
		}
	}()

	return nil
}

// Stop cancels the worker's context and force-kills after a short grace.
func (r *LocalRunner) Stop(sessionID string) error {
	r.mu.Lock()
	p, ok := r.procs[sessionID]
	r.mu.Unlock()
	if !ok {
		return errors.New("agent not running for session")
	}
	p.cancel()
	if p.cmd == nil {
		// Stop landed between slot reservation and process start; the
		// canceled context makes the start path clean up after itself.
		r.mu.Lock()
		delete(r.procs, sessionID)
		r.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	go func() {
		_ = p.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(3 * time.Second):
		_ = p.cmd.Process.Kill()
		return nil
	}
}

func (r *LocalRunner) stream(sessionID, stream string, rdr io.Reader) {
	scanner := bufio.NewScanner(rdr)
	for scanner.Scan() {
		line := scanner.Text()
		log.Printf("agent[%s] %s: %s", sessionID, stream, line)
		if r.onLog != nil {
			r.onLog(sessionID, stream, line)
		}
	}
}

func envToList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
