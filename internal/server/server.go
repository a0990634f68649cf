// Package server exposes the engine as an MCP server over stdio.
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codenav/internal/engine"
)

const systemPrompt = `# codenav

codenav jumps from a symbol reference to the symbol's definition, searching
every source file it has loaded.

1. Call load_units with the files (or a directory) the lookup may search.
   A definition in a file that was never loaded cannot be found; the jump then
   lands on the nearest declaration instead.
2. Call go_to_definition with a 1-based line and column. Pass unsaved editor
   text as buffers so the lookup sees it.
3. "moved": false means nothing better than the given position was found.

Use list_units to see what is loaded and jump_history for earlier jumps.`

// Server wraps the MCP server and the engine it serves.
type Server struct {
	mcpServer    *mcp.Server
	engine       *engine.Engine
	systemPrompt string
}

// NewServer registers the codenav tools and resources for e.
func NewServer(e *engine.Engine, version string) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "codenav",
			Version: version,
		}, &mcp.ServerOptions{
			Instructions: systemPrompt,
		}),
		engine:       e,
		systemPrompt: systemPrompt,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
