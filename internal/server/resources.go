package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	guidelinesURI = "codenav://usage-guidelines"
	unitsURI      = "codenav://units"
	schemaPrefix  = "codenav://schemas/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         guidelinesURI,
		Name:        "Usage Guidelines",
		Description: "How to use the codenav tools, with the state of the current session",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return contents(guidelinesURI, "text/markdown", s.guidelines()), nil
	})

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         unitsURI,
		Name:        "Loaded Units",
		Description: "Files in the unit cache, in load order",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		units := s.engine.Units()
		if units == nil {
			units = []string{}
		}
		data, err := json.MarshalIndent(units, "", "  ")
		if err != nil {
			return nil, err
		}
		return contents(unitsURI, "application/json", string(data)), nil
	})

	schemas := toolSchemas()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaPrefix + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		tool := strings.TrimPrefix(req.Params.URI, schemaPrefix)
		schema, ok := schemas[tool]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", tool)
		}
		return contents(req.Params.URI, "application/schema+json", schema), nil
	})
}

// guidelines renders the usage prompt followed by what the engine currently
// serves.
func (s *Server) guidelines() string {
	var b strings.Builder
	b.WriteString(s.systemPrompt)
	b.WriteString("\n\n## Session\n\n")
	fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(s.engine.Languages(), ", "))
	fmt.Fprintf(&b, "- Loaded units: %d\n", len(s.engine.Units()))
	fmt.Fprintf(&b, "- Home: %s\n", s.engine.Home())
	if path := s.engine.SessionPath(); path != "" {
		fmt.Fprintf(&b, "- Jump history: %s (up to %d jumps)\n", path, s.engine.Config().Session.HistoryLimit)
	} else {
		b.WriteString("- Jump history: disabled\n")
	}
	return b.String()
}

func contents(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// toolSchemas maps each tool name to the JSON schema of its arguments. A
// schema that cannot be derived is left out.
func toolSchemas() map[string]string {
	m := make(map[string]string)
	for name, schema := range map[string]func() (*jsonschema.Schema, error){
		"load_units":       schemaFor[LoadUnitsArgs],
		"go_to_definition": schemaFor[GoToDefinitionArgs],
		"list_units":       schemaFor[ListUnitsArgs],
		"jump_history":     schemaFor[JumpHistoryArgs],
	} {
		s, err := schema()
		if err != nil {
			continue
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			continue
		}
		m[name] = string(data)
	}
	return m
}

func schemaFor[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}
