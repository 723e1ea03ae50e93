// Package mcp provides the MCP (Model Context Protocol) server for Coderef.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// ElementSource supplies the element sequence analyses run over. The
// returned slice must be treated as an immutable snapshot for the duration
// of one call.
type ElementSource interface {
	Elements(ctx context.Context) ([]index.Element, error)
	IndexPath() string
}

// CacheSource is an ElementSource backed by the read-through index cache.
type CacheSource struct {
	Cache *index.Cache
	Path  string
}

// Elements implements ElementSource.
func (s *CacheSource) Elements(ctx context.Context) ([]index.Element, error) {
	return s.Cache.Load(s.Path)
}

// IndexPath implements ElementSource.
func (s *CacheSource) IndexPath() string {
	return s.Path
}

// Server represents the MCP server.
type Server struct {
	source ElementSource
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over the given element source.
func NewServer(source ElementSource) *Server {
	s := &Server{
		source: source,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "coderef-go",
		Version: "0.1.0",
	}, nil)

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "coderef_impact",
			Description: "Blast radius analysis: find all elements affected by changing a given element, grouped by traversal depth.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"element_name": {Type: "string", Description: "Name of the element to analyze"},
					"max_depth":    {Type: "integer", Description: "Maximum traversal depth (default 3)"},
					"direction":    {Type: "string", Description: "Traversal direction: callers (default) or callees"},
				},
				Required: []string{"element_name"},
			},
		},
		{
			Name:        "coderef_complexity",
			Description: "Complexity estimate for a single element, or an aggregated task estimate over a list of element names.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"element_name": {Type: "string", Description: "Name of a single element"},
					"element_names": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "Element names to aggregate as one task",
					},
				},
			},
		},
		{
			Name:        "coderef_hotspots",
			Description: "File-level complexity hotspots: elements whose raw cyclomatic estimate meets the hotspot threshold.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"limit": {Type: "integer", Description: "Maximum number of hotspots"},
				},
			},
		},
		{
			Name:        "coderef_patterns",
			Description: "Naming conventions, handler functions, and decorator/import frequency across the index.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "coderef_coverage",
			Description: "CodeRef tag coverage percentage across the index.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "coderef_detect_changes",
			Description: "Map changed files to their elements and list the directly affected dependents.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"files": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "List of changed file paths",
					},
				},
				Required: []string{"files"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "coderef://overview",
			Name:        "Index Overview",
			Description: "High-level statistics about the scanned element index",
			MimeType:    "text/plain",
		},
		{
			URI:         "coderef://schema",
			Name:        "Index Schema",
			Description: "Description of the element index document shape",
			MimeType:    "text/plain",
		},
		{
			URI:         "coderef://hotspots",
			Name:        "Complexity Hotspots",
			Description: "Elements exceeding the raw complexity hotspot threshold",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "coderef_impact":
		elementName, _ := args["element_name"].(string)
		depth, _ := args["max_depth"].(float64)
		direction, _ := args["direction"].(string)
		return s.handleImpact(ctx, elementName, int(depth), direction, args["max_depth"] != nil)
	case "coderef_complexity":
		elementName, _ := args["element_name"].(string)
		namesArg, _ := args["element_names"].([]any)
		names := make([]string, 0, len(namesArg))
		for _, n := range namesArg {
			if name, ok := n.(string); ok {
				names = append(names, name)
			}
		}
		return s.handleComplexity(ctx, elementName, names)
	case "coderef_hotspots":
		limit, _ := args["limit"].(float64)
		return s.handleHotspots(ctx, int(limit))
	case "coderef_patterns":
		return s.handlePatterns(ctx)
	case "coderef_coverage":
		return s.handleCoverage(ctx)
	case "coderef_detect_changes":
		filesArg, _ := args["files"].([]any)
		files := make([]string, 0, len(filesArg))
		for _, f := range filesArg {
			if file, ok := f.(string); ok {
				files = append(files, file)
			}
		}
		return s.handleDetectChanges(ctx, files)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "coderef://overview":
		return s.getOverview(ctx)
	case "coderef://schema":
		return getSchema(), nil
	case "coderef://hotspots":
		return s.handleHotspots(ctx, 0)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "coderef-go",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
