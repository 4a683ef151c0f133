package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tirflab/insertion-tools/internal/stack"
	"github.com/tirflab/insertion-tools/internal/synth"
)

// createTestStackFile writes a small noiseless stack with one insertion at
// frame 2, pixel (3, 4), and returns its path.
func createTestStackFile(t *testing.T) string {
	t.Helper()

	st, err := synth.Generate(synth.Config{
		Frames: 4, Height: 8, Width: 8,
		Background: 100,
		Spots:      []synth.Spot{{Frame: 2, Y: 3, X: 4, Amplitude: 500}},
	})
	if err != nil {
		t.Fatalf("failed to generate test stack: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test_stack.tif")
	if err := stack.WriteTIFFFile(path, st.Frames); err != nil {
		t.Fatalf("failed to write test stack: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content payload
// into result.
func callTool(t *testing.T, s *Server, name string, args interface{}, result interface{}) *MCPResponse {
	t.Helper()

	argJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal arguments: %v", err)
	}
	params, err := json.Marshal(ToolCallParams{Name: name, Arguments: argJSON})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatalf("tool %s produced no response", name)
	}
	if resp.Error != nil || result == nil {
		return resp
	}

	payload, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result has type %T, want map", resp.Result)
	}
	content, ok := payload["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatalf("response has no content: %+v", payload)
	}
	text, ok := content[0]["text"].(string)
	if !ok {
		t.Fatalf("content[0] has no text field: %+v", content[0])
	}
	if err := json.Unmarshal([]byte(text), result); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
	return resp
}

func TestStackInfoTool(t *testing.T) {
	path := createTestStackFile(t)
	s := New()

	var info StackInfoResult
	resp := callTool(t, s, "stack_info", stackPathArgs{Path: path}, &info)
	if resp.Error != nil {
		t.Fatalf("stack_info failed: %+v", resp.Error)
	}

	if info.Frames != 4 || info.Height != 8 || info.Width != 8 {
		t.Errorf("shape = %d frames of %dx%d, want 4 of 8x8", info.Frames, info.Width, info.Height)
	}
	if info.Reference.Mean != 100 {
		t.Errorf("reference mean = %v, want the flat background 100", info.Reference.Mean)
	}
	if info.Reference.Std != 0 {
		t.Errorf("reference std = %v, want 0 for a noiseless stack", info.Reference.Std)
	}
	if info.MaxSample != 600 {
		t.Errorf("max sample = %v, want background + amplitude = 600", info.MaxSample)
	}
}

func TestDetectInsertionsTool(t *testing.T) {
	path := createTestStackFile(t)
	s := New()

	var result DetectResult
	resp := callTool(t, s, "detect_insertions", detectArgs{Path: path}, &result)
	if resp.Error != nil {
		t.Fatalf("detect_insertions failed: %+v", resp.Error)
	}

	if result.Count != 1 || len(result.Events) != 1 {
		t.Fatalf("count = %d with %d events, want exactly 1", result.Count, len(result.Events))
	}
	e := result.Events[0]
	if e.Frame != 2 || e.Y != 3 || e.X != 4 {
		t.Errorf("event at frame %d, (%d,%d), want frame 2, (3,4)", e.Frame, e.Y, e.X)
	}
	if e.Intensity != 500 {
		t.Errorf("intensity = %v, want 500", e.Intensity)
	}
}

func TestDetectInsertionsTool_MissingFile(t *testing.T) {
	s := New()
	resp := callTool(t, s, "detect_insertions",
		detectArgs{Path: filepath.Join(t.TempDir(), "missing.tif")}, nil)

	if resp.Error == nil {
		t.Fatal("missing stack should return an error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("error code = %d, want -32000", resp.Error.Code)
	}
}

func TestRenderOverlayTool(t *testing.T) {
	path := createTestStackFile(t)
	outputDir := filepath.Join(t.TempDir(), "overlays")
	s := New()

	var result OverlayResult
	resp := callTool(t, s, "render_overlay",
		overlayArgs{Path: path, OutputDir: outputDir, Scale: 2}, &result)
	if resp.Error != nil {
		t.Fatalf("render_overlay failed: %+v", resp.Error)
	}

	if result.Count != 1 || len(result.Written) != 1 {
		t.Fatalf("result = %+v, want one event and one written overlay", result)
	}
	if _, err := os.Stat(result.Written[0]); err != nil {
		t.Errorf("written overlay missing: %v", err)
	}
}

func TestRenderOverlayTool_RequiresOutputDir(t *testing.T) {
	path := createTestStackFile(t)
	s := New()

	resp := callTool(t, s, "render_overlay", overlayArgs{Path: path}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("missing output_dir response = %+v, want -32000 error", resp)
	}
}

func TestStackEvictTool(t *testing.T) {
	path := createTestStackFile(t)
	s := New()

	var info StackInfoResult
	if resp := callTool(t, s, "stack_info", stackPathArgs{Path: path}, &info); resp.Error != nil {
		t.Fatalf("stack_info failed: %+v", resp.Error)
	}

	var evicted map[string]string
	resp := callTool(t, s, "stack_evict", stackPathArgs{Path: path}, &evicted)
	if resp.Error != nil {
		t.Fatalf("stack_evict failed: %+v", resp.Error)
	}
	if evicted["evicted"] != path {
		t.Errorf("evicted = %q, want %q", evicted["evicted"], path)
	}
}

func TestDetectArgsDefaults(t *testing.T) {
	p := detectArgs{}.params()
	if p.Threshold != 5.0 || p.MinDistance != 3 || p.Workers != 1 {
		t.Errorf("defaults = %+v, want threshold 5, min distance 3, 1 worker", p)
	}

	p = detectArgs{Threshold: 2.5, Workers: 8}.params()
	if p.Threshold != 2.5 || p.Workers != 8 || p.MinDistance != 3 {
		t.Errorf("overrides not applied: %+v", p)
	}
}
