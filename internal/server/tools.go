package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codenav/internal/unit"
	"codenav/internal/workspace"
)

// Arguments structs

type LoadUnitsArgs struct {
	Paths     []string `json:"paths,omitempty" jsonschema:"Source files to parse into the unit cache"`
	Directory string   `json:"directory,omitempty" jsonschema:"Directory whose source files are loaded using the preload patterns"`
}

type BufferArg struct {
	FilePath string `json:"file_path" jsonschema:"Absolute path of the open file"`
	Text     string `json:"text" jsonschema:"Full current text of the file, saved or not"`
}

type GoToDefinitionArgs struct {
	FilePath string      `json:"file_path" jsonschema:"Absolute path of the file holding the reference"`
	Line     int         `json:"line" jsonschema:"1-based line of the reference"`
	Column   int         `json:"column" jsonschema:"1-based byte column of the reference"`
	Buffers  []BufferArg `json:"buffers,omitempty" jsonschema:"Unsaved editor buffers to use instead of the files on disk"`
}

type ListUnitsArgs struct{}

type JumpHistoryArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of jumps to return, newest first (default 20)"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "load_units",
		Description: "Parses source files into the unit cache so definitions in them can be found",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LoadUnitsArgs) (*mcp.CallToolResult, any, error) {
		if len(args.Paths) == 0 && args.Directory == "" {
			return errorResult("Either paths or directory is required"), nil, nil
		}

		var failed []string
		report := func(file string, err error) {
			if err != nil {
				failed = append(failed, err.Error())
			}
		}

		if args.Directory != "" {
			if !workspace.IsDir(args.Directory) {
				return errorResult(fmt.Sprintf("Not a directory: %s", args.Directory)), nil, nil
			}
			if _, err := s.engine.Preload(args.Directory, report); err != nil && len(failed) == 0 {
				return errorResult(fmt.Sprintf("Scan failed: %v", err)), nil, nil
			}
		}
		if len(args.Paths) > 0 {
			s.engine.Load(args.Paths, report)
		}

		result := map[string]any{
			"units": len(s.engine.Units()),
		}
		if len(failed) > 0 {
			result["errors"] = failed
			fmt.Fprintf(os.Stderr, "Warning: %d files failed to load\n", len(failed))
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "go_to_definition",
		Description: "Finds the definition of the symbol referenced at a position, searching every loaded file",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GoToDefinitionArgs) (*mcp.CallToolResult, any, error) {
		if args.FilePath == "" || args.Line < 1 || args.Column < 1 {
			return errorResult("file_path, line and column (1-based) are required"), nil, nil
		}

		buffers := make([]unit.Buffer, 0, len(args.Buffers))
		for _, b := range args.Buffers {
			buffers = append(buffers, unit.Buffer{File: b.FilePath, Text: []byte(b.Text)})
		}

		jump := s.engine.GoToDefinition(args.FilePath, args.Line, args.Column, buffers)

		type JumpResult struct {
			FilePath string `json:"file_path"`
			Line     int    `json:"line"`
			Column   int    `json:"column"`
			Moved    bool   `json:"moved"`
			Symbol   string `json:"symbol,omitempty"`
			Fallback bool   `json:"declaration_only,omitempty"`
		}
		jsonBytes, _ := json.MarshalIndent(JumpResult{
			FilePath: jump.File,
			Line:     jump.Line,
			Column:   jump.Column,
			Moved:    jump.Moved,
			Symbol:   jump.Symbol,
			Fallback: jump.Fallback,
		}, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_units",
		Description: "Lists the files currently held in the unit cache, in load order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListUnitsArgs) (*mcp.CallToolResult, any, error) {
		units := s.engine.Units()
		if len(units) == 0 {
			return textResult("No units loaded."), nil, nil
		}
		jsonBytes, _ := json.MarshalIndent(units, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "jump_history",
		Description: "Returns the most recent go-to-definition jumps",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args JumpHistoryArgs) (*mcp.CallToolResult, any, error) {
		limit := args.Limit
		if limit <= 0 {
			limit = 20
		}
		jumps, err := s.engine.History(limit)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(jumps) == 0 {
			return textResult("No jumps recorded."), nil, nil
		}

		type JumpEntry struct {
			From     string `json:"from"`
			To       string `json:"to"`
			Symbol   string `json:"symbol,omitempty"`
			Fallback bool   `json:"declaration_only,omitempty"`
			At       string `json:"at"`
		}
		var entries []JumpEntry
		for _, j := range jumps {
			entries = append(entries, JumpEntry{
				From:     fmt.Sprintf("%s:%d:%d", j.FromFile, j.FromLine, j.FromColumn),
				To:       fmt.Sprintf("%s:%d:%d", j.ToFile, j.ToLine, j.ToColumn),
				Symbol:   j.Symbol,
				Fallback: j.Fallback,
				At:       j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}

		jsonBytes, _ := json.MarshalIndent(entries, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}
