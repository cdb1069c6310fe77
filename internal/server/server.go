package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/config"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/imaging"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/ocr"
)

// Server handles MCP protocol communication for the screenshot analyzer.
type Server struct {
	cache   *imaging.ImageCache
	engine  *ocr.Engine
	schemas map[string]*jsonschema.Schema
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance from the given configuration.
//
// Tool input schemas are compiled once at construction; every tools/call
// validates its arguments against the compiled schema before dispatch.
func New(cfg *config.Config) *Server {
	cache := imaging.NewImageCache()
	return &Server{
		cache:   cache,
		engine:  ocr.NewEngine(cfg, cache),
		schemas: compileToolSchemas(),
	}
}

// Terminate releases the engine's recognition workers. Idempotent.
func (s *Server) Terminate() error {
	return s.engine.Terminate()
}

// compileToolSchemas compiles every tool's input schema for argument
// validation. A schema that fails to compile is a programming error, so
// this panics rather than returning an error.
func compileToolSchemas() map[string]*jsonschema.Schema {
	schemas := make(map[string]*jsonschema.Schema)
	for _, tool := range GetToolDefinitions() {
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			panic(fmt.Sprintf("tool %s: marshal schema: %v", tool.Name, err))
		}
		compiler := jsonschema.NewCompiler()
		url := "mcp:///" + tool.Name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			panic(fmt.Sprintf("tool %s: add schema resource: %v", tool.Name, err))
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("tool %s: compile schema: %v", tool.Name, err))
		}
		schemas[tool.Name] = schema
	}
	return schemas
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "screenshot-analyzer-mcp",
				"version": "0.1.0",
			},
		},
	}
}
