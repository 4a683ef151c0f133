package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/tirflab/insertion-tools/internal/stack"
)

// newStack builds a stack from literal frame data.
func newStack(t *testing.T, frames ...[][]float64) *stack.Stack {
	t.Helper()

	s := &stack.Stack{}
	for _, f := range frames {
		s.Frames = append(s.Frames, stack.Frame(f))
	}
	if len(frames) > 0 {
		s.Height = len(frames[0])
		if s.Height > 0 {
			s.Width = len(frames[0][0])
		}
	}
	return s
}

func TestEstimateReference(t *testing.T) {
	s := newStack(t, [][]float64{
		{1, 2},
		{3, 4},
	})

	stats, err := EstimateReference(s)
	if err != nil {
		t.Fatalf("EstimateReference failed: %v", err)
	}
	if stats.Mean != 2.5 {
		t.Errorf("Mean = %v, want 2.5", stats.Mean)
	}
	// Population standard deviation, normalized by N.
	want := math.Sqrt(1.25)
	if math.Abs(stats.Std-want) > 1e-12 {
		t.Errorf("Std = %v, want %v", stats.Std, want)
	}
}

func TestEstimateReference_UniformFrame(t *testing.T) {
	s := newStack(t, [][]float64{
		{7, 7, 7},
		{7, 7, 7},
	})

	stats, err := EstimateReference(s)
	if err != nil {
		t.Fatalf("EstimateReference failed: %v", err)
	}
	if stats.Std != 0 {
		t.Errorf("Std = %v, want 0 for uniform frame", stats.Std)
	}
}

func TestEstimateReference_FirstFrameOnly(t *testing.T) {
	s := newStack(t,
		[][]float64{{5, 5}, {5, 5}},
		[][]float64{{0, 1000}, {2000, 3000}},
	)

	stats, err := EstimateReference(s)
	if err != nil {
		t.Fatalf("EstimateReference failed: %v", err)
	}
	if stats.Mean != 5 || stats.Std != 0 {
		t.Errorf("stats = %+v, want mean 5 std 0 from frame 0 only", stats)
	}
}

func TestEstimateReference_EmptyStack(t *testing.T) {
	_, err := EstimateReference(&stack.Stack{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestEstimateReference_ZeroSizedFrames(t *testing.T) {
	s := &stack.Stack{Frames: []stack.Frame{{}}, Height: 0, Width: 0}
	_, err := EstimateReference(s)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}
