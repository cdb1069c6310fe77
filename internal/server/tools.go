package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// optionsSchema is the shared shape of the "options" argument accepted by the
// analysis tools.
func optionsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"languages": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "OCR language hints, e.g. [\"eng\"], [\"chi_tra\", \"eng\"]. Default [\"eng\"]",
			},
			"confidence_threshold": map[string]interface{}{
				"type":        "number",
				"minimum":     0,
				"maximum":     100,
				"description": "Drop recognized words below this confidence (0-100). Default is per-backend",
			},
			"image_processing": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"enhance_contrast": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply contrast enhancement steps (default true)",
						"default":     true,
					},
					"remove_noise": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply denoising steps (default true)",
						"default":     true,
					},
					"resize": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"width":                 map[string]interface{}{"type": "integer"},
							"height":                map[string]interface{}{"type": "integer"},
							"maintain_aspect_ratio": map[string]interface{}{"type": "boolean", "default": true},
						},
						"description": "Explicit target size. If omitted, narrow images are upscaled to the working width",
					},
				},
				"description": "Preprocessing overrides",
			},
			"extract_structure": map[string]interface{}{
				"type":        "boolean",
				"description": "Include paragraph and block structure in the response (default true)",
				"default":     true,
			},
			"detect_tables": map[string]interface{}{
				"type":        "boolean",
				"description": "Run table detection concurrently with recognition (default true)",
				"default":     true,
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "analyze_screenshot",
			Description: "Run the full analysis pipeline on a screenshot: adaptive preprocessing, " +
				"hybrid OCR (Tesseract and PaddleOCR), paragraph/block structure, content " +
				"classification, dominant colors and table detection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"options": optionsSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "extract_text_only",
			Description: "Extract plain text from a screenshot without structural analysis or " +
				"table detection. Faster than analyze_screenshot when only the text matters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"languages": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "OCR language hints. Default [\"eng\"]",
					},
					"enhance_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply adaptive preprocessing before recognition (default true)",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "get_image_metadata",
			Description: "Get the dimensions, format, color depth, alpha presence and file size of an image without running OCR.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "preprocess_image",
			Description: "Run the adaptive preprocessing pipeline on an image and write the result " +
				"as PNG. Reports which pipeline was selected from the image statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the source image",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path where the processed PNG is written",
					},
					"options": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"image_processing": optionsSchema()["properties"].(map[string]interface{})["image_processing"],
						},
					},
				},
				"required": []string{"input_path", "output_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
