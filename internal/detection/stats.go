package detection

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tirflab/insertion-tools/internal/stack"
)

// Detection errors. Both abort a run immediately; neither is retried.
var (
	// ErrInvalidInput reports structurally degenerate input: an empty
	// stack or zero-sized frames.
	ErrInvalidInput = errors.New("invalid input")

	// ErrShapeMismatch reports consecutive frames whose dimensions
	// disagree.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// ReferenceStats holds the background statistics of the reference frame.
//
// Std is the population standard deviation (normalized by N, not N-1).
// A perfectly uniform reference frame yields Std 0, which degenerates the
// detection threshold to 0: every positive difference becomes a
// candidate. That is a valid configuration, not an error.
type ReferenceStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// EstimateReference computes ReferenceStats from the first frame of the
// stack. The reference frame is fixed at frame 0; statistics are never
// re-estimated during a run.
func EstimateReference(s *stack.Stack) (ReferenceStats, error) {
	if s == nil || s.Len() == 0 {
		return ReferenceStats{}, fmt.Errorf("%w: stack has no frames", ErrInvalidInput)
	}
	if s.Height == 0 || s.Width == 0 {
		return ReferenceStats{}, fmt.Errorf("%w: stack has zero-sized frames", ErrInvalidInput)
	}

	samples := make([]float64, 0, s.Height*s.Width)
	for _, row := range s.Frames[0] {
		samples = append(samples, row...)
	}

	mean := stat.Mean(samples, nil)
	std := math.Sqrt(stat.MomentAbout(2, samples, mean, nil))
	return ReferenceStats{Mean: mean, Std: std}, nil
}
