// Package server implements the MCP (Model Context Protocol) server for the
// screenshot analyzer.
//
// This package provides a JSON-RPC 2.0 server that exposes the hybrid OCR
// pipeline through the MCP protocol, enabling AI systems to read and
// understand screenshots.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - analyze_screenshot: Full pipeline; OCR with structure, content
//     classification, dominant colors and table detection
//   - extract_text_only: Plain-text extraction without structural analysis
//   - get_image_metadata: Dimensions, format, color depth and file size
//   - preprocess_image: Run the adaptive preprocessor and write the result
//
// Tool arguments are validated against each tool's published input schema
// before dispatch.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution failures (unreadable image, no OCR backend available,
// invalid arguments) are reported as tool results with "isError": true, so a
// calling agent always receives a structured response it can act on.
// JSON-RPC error responses are reserved for protocol problems: unknown
// methods (-32601) and malformed parameters (-32602).
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(config.Load())
//	defer srv.Terminate()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
