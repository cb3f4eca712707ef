// Package agentws is the control channel the voice-agent worker connects
// to. The worker invokes the improv tool surface as JSON messages and gets
// results back on the same connection.
package agentws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"improv/host/internal/auth"
	"improv/host/internal/config"
	"improv/host/internal/store"
	"improv/host/internal/tools"

	ws "nhooyr.io/websocket"
)

type Message struct {
	Type      string          `json:"type"`
	TsMs      int64           `json:"ts_ms"`
	SessionID string          `json:"session_id"`
	CallID    string          `json:"call_id,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Result    any             `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type Server struct {
	Cfg   config.Config
	Store *store.Store
	Reg   *Registry
	Disp  *tools.Dispatcher
}

func NewServer(cfg config.Config, st *store.Store, reg *Registry, disp *tools.Dispatcher) *Server {
	return &Server{Cfg: cfg, Store: st, Reg: reg, Disp: disp}
}

func (s *Server) HandleAgentWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if s.Store.GetSession(sessionID) == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	if s.Cfg.Agent.TokenSecret == "" {
		http.Error(w, "agent auth not configured", http.StatusUnauthorized)
		return
	}
	if _, _, err := auth.ValidateAgentToken(s.Cfg.Agent.TokenSecret, token, sessionID, time.Now(), s.Cfg.Agent.TokenSkewSecs); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("ws accept: %v", err)
		return
	}
	if s.Reg.Replace(sessionID, c) {
		s.Store.AppendEvent(sessionID, "agent_replaced", nil)
	}
	s.Store.AppendEvent(sessionID, "agent_connected", nil)

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Store.AppendEvent(sessionID, "agent_msg_invalid", map[string]any{"error": err.Error()})
			continue
		}
		switch msg.Type {
		case "tool_call":
			s.handleToolCall(ctx, sessionID, msg)
		case "agent_hello":
			s.Store.AppendEvent(sessionID, "agent_hello", msg.payloadEvent())
		default:
			s.Store.AppendEvent(sessionID, msg.Type, msg.payloadEvent())
		}
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.Reg.Remove(sessionID, c)
	s.Store.AppendEvent(sessionID, "agent_disconnected", nil)
}

func (s *Server) handleToolCall(ctx context.Context, sessionID string, msg Message) {
	res, err := s.Disp.Call(sessionID, msg.Tool, msg.Args)
	out := Message{
		Type:      "tool_result",
		TsMs:      time.Now().UnixMilli(),
		SessionID: sessionID,
		CallID:    msg.CallID,
		Tool:      msg.Tool,
	}
	if err != nil {
		out.Type = "tool_error"
		out.Error = err.Error()
		s.Store.AppendEvent(sessionID, "tool_error", map[string]any{"tool": msg.Tool, "error": err.Error()})
	} else {
		out.Result = res
		s.Store.AppendEvent(sessionID, "tool_call", map[string]any{"tool": msg.Tool, "call_id": msg.CallID})
	}
	if err := s.Reg.SendJSON(ctx, sessionID, out); err != nil {
		log.Printf("ws send tool result: %v", err)
	}
}

func (m Message) payloadEvent() map[string]any {
	p := map[string]any{"ts_ms": m.TsMs}
	if m.CallID != "" {
		p["call_id"] = m.CallID
	}
	return p
}
