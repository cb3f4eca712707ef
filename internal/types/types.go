package types

import "time"

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`

	AgentPID          int        `json:"agent_pid,omitempty"`
	AgentLastExitCode int        `json:"agent_last_exit_code,omitempty"`
	AgentLastExitAt   *time.Time `json:"agent_last_exit_at,omitempty"`
}
