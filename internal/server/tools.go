package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "stack_info",
			Description: "Load a TIRF image stack and return its shape, sample range, and reference-frame noise statistics. Caches the stack for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the stack: a multi-page TIFF, a single image file, or a directory of frame images",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "detect_insertions",
			Description: "Detect insertion events (newly appearing fluorescent spots) in an image stack by frame differencing against the first-frame noise floor. Returns one event per detected spot with frame, centroid, and peak differential intensity.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the stack file or directory",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Detection threshold in multiples of the reference standard deviation. Default 5.0",
						"default":     5.0,
					},
					"min_distance": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum pixel distance between events. Accepted for compatibility; the current algorithm performs no suppression. Default 3",
						"default":     3,
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Frame pairs processed concurrently. Output is identical regardless. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "render_overlay",
			Description: "Run detection and write annotated PNG overlays (one per frame with events) into a directory. Markers are colored by relative event intensity.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the stack file or directory",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write overlay PNGs into (created if missing)",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Detection threshold in multiples of the reference standard deviation. Default 5.0",
						"default":     5.0,
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer upscaling factor for the PNGs (nearest neighbor). Default 1",
						"default":     1,
					},
				},
				"required": []string{"path", "output_dir"},
			},
		},
		{
			Name:        "stack_evict",
			Description: "Remove a cached stack from memory. Use after finishing with a large stack.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "The exact path the stack was loaded with",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
