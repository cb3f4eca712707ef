// Package mcpserver exposes the improv tool surface over the Model
// Context Protocol, for model runtimes that speak MCP instead of the
// agent websocket channel. One MCP connection hosts one session.
package mcpserver

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"improv/host/internal/improv"
	"improv/host/internal/random"
	"improv/host/internal/snapshot"
)

const (
	serverName    = "Improv Host MCP"
	serverVersion = "0.1.0"
)

// Server hosts the MCP server bound to a single session state.
type Server struct {
	mcpServer *mcp.Server
	game      *improv.Game
	snaps     *snapshot.Store

	mu    sync.Mutex
	state improv.State
}

// New creates an MCP server with the improv tools registered and the
// session's rounds already drawn.
func New(game *improv.Game, snaps *snapshot.Store) *Server {
	s := &Server{game: game, snaps: snaps}
	game.Initialize(&s.state, random.NewSeed())

	s.mcpServer = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerImprovTools(s.mcpServer, s)
	return s
}

// Run serves MCP over the given transport until the context ends.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// RunStdio serves MCP over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// withState runs fn against the session state under the lock.
func (s *Server) withState(fn func(*improv.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}
