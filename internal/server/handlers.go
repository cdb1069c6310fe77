package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/Dakai666/screenshot-analyzer-mcp/internal/imaging"
	"github.com/Dakai666/screenshot-analyzer-mcp/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "analyze_screenshot").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution failures (unreadable image, no backend available, bad
// arguments) produce a result with "isError": true so the calling agent
// always receives a structured response. Protocol-level errors are reserved
// for malformed requests.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	if err := s.validateArguments(params.Name, params.Arguments); err != nil {
		return s.toolErrorResponse(req.ID, err)
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.toolErrorResponse(req.ID, err)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// validateArguments checks the tool arguments against the tool's compiled
// input schema. An unknown tool name is reported by executeTool instead.
func (s *Server) validateArguments(name string, args json.RawMessage) error {
	schema, ok := s.schemas[name]
	if !ok {
		return nil
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	return nil
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "analyze_screenshot":
		return s.handleAnalyzeScreenshot(args)
	case "extract_text_only":
		return s.handleExtractTextOnly(args)
	case "get_image_metadata":
		return s.handleGetImageMetadata(args)
	case "preprocess_image":
		return s.handlePreprocessImage(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// toolErrorResponse wraps a tool execution failure in MCP's content format
// with the isError flag set.
func (s *Server) toolErrorResponse(id interface{}, err error) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": err.Error(),
				},
			},
			"isError": true,
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared option plumbing ===

type imageProcessingArgs struct {
	EnhanceContrast *bool `json:"enhance_contrast"`
	RemoveNoise     *bool `json:"remove_noise"`
	Resize          *struct {
		Width               int  `json:"width"`
		Height              int  `json:"height"`
		MaintainAspectRatio bool `json:"maintain_aspect_ratio"`
	} `json:"resize"`
}

// toProcessOptions converts the wire-level processing options to the
// imaging package's representation, applying defaults for omitted fields.
func (ip *imageProcessingArgs) toProcessOptions() imaging.ProcessOptions {
	opts := imaging.DefaultProcessOptions()
	if ip == nil {
		return opts
	}
	if ip.EnhanceContrast != nil {
		opts.EnhanceContrast = *ip.EnhanceContrast
	}
	if ip.RemoveNoise != nil {
		opts.RemoveNoise = *ip.RemoveNoise
	}
	if ip.Resize != nil {
		opts.Resize = &imaging.ResizeSpec{
			Width:               ip.Resize.Width,
			Height:              ip.Resize.Height,
			MaintainAspectRatio: ip.Resize.MaintainAspectRatio,
		}
	}
	return opts
}

func boolOrDefault(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

// === analyze_screenshot ===

type analyzeScreenshotArgs struct {
	Path    string `json:"path"`
	Options *struct {
		Languages           []string             `json:"languages"`
		ConfidenceThreshold float64              `json:"confidence_threshold"`
		ImageProcessing     *imageProcessingArgs `json:"image_processing"`
		ExtractStructure    *bool                `json:"extract_structure"`
		DetectTables        *bool                `json:"detect_tables"`
	} `json:"options"`
}

func (s *Server) handleAnalyzeScreenshot(args json.RawMessage) (interface{}, error) {
	var a analyzeScreenshotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	languages := []string{"eng"}
	var threshold float64
	var processing *imageProcessingArgs
	extractStructure := true
	detectTables := true
	if a.Options != nil {
		if len(a.Options.Languages) > 0 {
			languages = a.Options.Languages
		}
		threshold = a.Options.ConfidenceThreshold
		processing = a.Options.ImageProcessing
		extractStructure = boolOrDefault(a.Options.ExtractStructure, true)
		detectTables = boolOrDefault(a.Options.DetectTables, true)
	}

	opts := ocr.AnalyzeOptions{
		Options: ocr.Options{
			Languages:           languages,
			ConfidenceThreshold: threshold,
		},
		Preprocess:   processing.toProcessOptions(),
		EnhanceImage: true,
		DetectTables: detectTables,
	}

	analyzed, err := s.engine.Analyze(context.Background(), a.Path, opts)
	if err != nil {
		return nil, err
	}

	metadata, err := imaging.LoadMetadata(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	ocrSection := map[string]interface{}{
		"text":       analyzed.OCR.Text,
		"confidence": analyzed.OCR.Confidence,
		"words":      analyzed.OCR.Words,
		"engine":     analyzed.OCR.Engine,
	}
	if extractStructure {
		ocrSection["paragraphs"] = analyzed.OCR.Paragraphs
		ocrSection["blocks"] = analyzed.OCR.Blocks
	}

	response := map[string]interface{}{
		"ocr":                ocrSection,
		"metadata":           metadata,
		"image_stats":        analyzed.Stats,
		"pipeline":           analyzed.Pipeline,
		"analysis":           AnalyzeContent(img, analyzed.OCR),
		"processing_time_ms": analyzed.ProcessingMS,
	}
	if analyzed.Tables != nil {
		response["tables"] = analyzed.Tables
	}
	return response, nil
}

// === extract_text_only ===

type extractTextOnlyArgs struct {
	Path         string   `json:"path"`
	Languages    []string `json:"languages"`
	EnhanceImage *bool    `json:"enhance_image"`
}

func (s *Server) handleExtractTextOnly(args json.RawMessage) (interface{}, error) {
	var a extractTextOnlyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Languages) == 0 {
		a.Languages = []string{"eng"}
	}

	extracted, err := s.engine.ExtractText(context.Background(), a.Path, a.Languages, boolOrDefault(a.EnhanceImage, true))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"text":               extracted.Text,
		"confidence":         extracted.Confidence,
		"word_count":         extracted.WordCount,
		"engines_used":       extracted.EnginesUsed,
		"processing_time_ms": extracted.ProcessingMS,
	}, nil
}

// === get_image_metadata ===

type getImageMetadataArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleGetImageMetadata(args json.RawMessage) (interface{}, error) {
	var a getImageMetadataArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadMetadata(s.cache, a.Path)
}

// === preprocess_image ===

type preprocessImageArgs struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	Options    *struct {
		ImageProcessing *imageProcessingArgs `json:"image_processing"`
	} `json:"options"`
}

func (s *Server) handlePreprocessImage(args json.RawMessage) (interface{}, error) {
	var a preprocessImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var processing *imageProcessingArgs
	if a.Options != nil {
		processing = a.Options.ImageProcessing
	}

	data, pipeline, err := s.engine.Preprocess(a.InputPath, processing.toProcessOptions())
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.OutputPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode processed image: %w", err)
	}

	return map[string]interface{}{
		"output_path": a.OutputPath,
		"width":       cfg.Width,
		"height":      cfg.Height,
		"pipeline":    pipeline,
	}, nil
}
