package server

import (
	"encoding/json"
	"fmt"

	"github.com/tirflab/insertion-tools/internal/detection"
	"github.com/tirflab/insertion-tools/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detect_insertions").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsList responds with the full tool catalog.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "stack_info":
		return s.handleStackInfo(args)
	case "detect_insertions":
		return s.handleDetectInsertions(args)
	case "render_overlay":
		return s.handleRenderOverlay(args)
	case "stack_evict":
		return s.handleStackEvict(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Stack Information ===

type stackPathArgs struct {
	Path string `json:"path"`
}

// StackInfoResult describes a loaded stack.
type StackInfoResult struct {
	Frames    int                      `json:"frames"`
	Height    int                      `json:"height"`
	Width     int                      `json:"width"`
	MinSample float64                  `json:"min_sample"`
	MaxSample float64                  `json:"max_sample"`
	Reference detection.ReferenceStats `json:"reference"`
}

func (s *Server) handleStackInfo(args json.RawMessage) (interface{}, error) {
	var a stackPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	st, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	stats, err := detection.EstimateReference(st)
	if err != nil {
		return nil, err
	}
	return &StackInfoResult{
		Frames:    st.Len(),
		Height:    st.Height,
		Width:     st.Width,
		MinSample: st.MinSample(),
		MaxSample: st.MaxSample(),
		Reference: stats,
	}, nil
}

// === Detection ===

type detectArgs struct {
	Path        string  `json:"path"`
	Threshold   float64 `json:"threshold"`
	MinDistance int     `json:"min_distance"`
	Workers     int     `json:"workers"`
}

// params applies tool defaults for unset arguments.
func (a detectArgs) params() detection.Params {
	p := detection.DefaultParams()
	if a.Threshold > 0 {
		p.Threshold = a.Threshold
	}
	if a.MinDistance > 0 {
		p.MinDistance = a.MinDistance
	}
	if a.Workers > 0 {
		p.Workers = a.Workers
	}
	return p
}

// DetectResult contains the events found in one stack.
type DetectResult struct {
	Count     int                      `json:"count"`
	Reference detection.ReferenceStats `json:"reference"`
	Events    []detection.Event        `json:"events"`
}

func (s *Server) handleDetectInsertions(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	st, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	stats, err := detection.EstimateReference(st)
	if err != nil {
		return nil, err
	}
	events, err := detection.DetectWithStats(st, stats, a.params())
	if err != nil {
		return nil, err
	}
	return &DetectResult{
		Count:     len(events),
		Reference: stats,
		Events:    events,
	}, nil
}

// === Overlay Rendering ===

type overlayArgs struct {
	Path        string  `json:"path"`
	OutputDir   string  `json:"output_dir"`
	Threshold   float64 `json:"threshold"`
	MinDistance int     `json:"min_distance"`
	Workers     int     `json:"workers"`
	Scale       int     `json:"scale"`
}

// OverlayResult lists the PNG files written for one stack.
type OverlayResult struct {
	Count   int      `json:"count"`
	Written []string `json:"written"`
}

func (s *Server) handleRenderOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		return nil, fmt.Errorf("output_dir is required")
	}
	st, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	events, err := detection.Detect(st, detectArgs{
		Threshold:   a.Threshold,
		MinDistance: a.MinDistance,
		Workers:     a.Workers,
	}.params())
	if err != nil {
		return nil, err
	}
	written, err := render.WriteOverlays(a.OutputDir, st, events, render.Options{Scale: a.Scale})
	if err != nil {
		return nil, err
	}
	if written == nil {
		written = []string{}
	}
	return &OverlayResult{
		Count:   len(events),
		Written: written,
	}, nil
}

// === Cache Management ===

func (s *Server) handleStackEvict(args json.RawMessage) (interface{}, error) {
	var a stackPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Path)
	return map[string]interface{}{
		"evicted": a.Path,
	}, nil
}
