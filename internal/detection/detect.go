package detection

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/tirflab/insertion-tools/internal/stack"
)

// Event is a single detected insertion: a new bright spot appearing in
// frame Frame that was not present in frame Frame-1.
//
// Y and X are the component centroid truncated to whole pixels. Intensity
// is the difference-image value at exactly (Y, X). Frame is always >= 1;
// the reference frame itself can never generate an event.
type Event struct {
	Frame     int     `json:"frame"`
	Y         int     `json:"y"`
	X         int     `json:"x"`
	Intensity float64 `json:"intensity"`
}

// Params configures a detection run.
type Params struct {
	// Threshold is the dimensionless multiplier applied to the reference
	// standard deviation. A pixel becomes a candidate when its
	// frame-to-frame difference strictly exceeds Threshold × std.
	Threshold float64

	// MinDistance is the minimum pixel distance between distinct events.
	// It is accepted for interface compatibility but not consumed by the
	// algorithm: no suppression or merging is performed. Changing that
	// would change reported events, so it stays a no-op.
	MinDistance int

	// Workers sets the number of frame pairs processed concurrently.
	// Values <= 1 run sequentially. The output is identical either way.
	Workers int
}

// DefaultParams returns the standard detection configuration.
func DefaultParams() Params {
	return Params{
		Threshold:   5.0,
		MinDistance: 3,
		Workers:     1,
	}
}

// Detect runs the full pipeline over the stack and returns all events in
// ascending (frame, discovery) order.
//
// Reference statistics come from frame 0; frames 1..T-1 are then each
// differenced against their predecessor. Any per-frame failure aborts the
// run with no partial result.
func Detect(s *stack.Stack, p Params) ([]Event, error) {
	stats, err := EstimateReference(s)
	if err != nil {
		return nil, err
	}
	return DetectWithStats(s, stats, p)
}

// DetectWithStats is Detect with precomputed reference statistics, for
// callers that also report the statistics themselves.
func DetectWithStats(s *stack.Stack, stats ReferenceStats, p Params) ([]Event, error) {
	if p.Workers > 1 && s.Len() > 2 {
		return detectParallel(s, stats, p)
	}

	events := []Event{}
	for t := 1; t < s.Len(); t++ {
		pairEvents, err := detectPair(t, s.Frames[t-1], s.Frames[t], stats, p)
		if err != nil {
			return nil, err
		}
		events = append(events, pairEvents...)
	}
	return events, nil
}

// detectParallel fans frame pairs out to Workers goroutines. Per-pair
// results land in a slice indexed by frame, so concatenation restores the
// exact sequential order. Detection of pair t only reads the immutable
// pixel data of frames t-1 and t, so pairs are independent.
func detectParallel(s *stack.Stack, stats ReferenceStats, p Params) ([]Event, error) {
	n := s.Len()
	results := make([][]Event, n)
	errs := make([]error, n)

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range indices {
				results[t], errs[t] = detectPair(t, s.Frames[t-1], s.Frames[t], stats, p)
			}
		}()
	}
	for t := 1; t < n; t++ {
		indices <- t
	}
	close(indices)
	wg.Wait()

	events := []Event{}
	for t := 1; t < n; t++ {
		if errs[t] != nil {
			return nil, errs[t]
		}
		events = append(events, results[t]...)
	}
	return events, nil
}

// detectPair processes one consecutive frame pair and returns its events
// in component discovery order.
func detectPair(frameIndex int, prev, curr stack.Frame, stats ReferenceStats, p Params) ([]Event, error) {
	diff, err := diffPair(prev, curr)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frameIndex, err)
	}
	mask := candidateMask(diff, p.Threshold*stats.Std)
	return extractEvents(frameIndex, mask, diff), nil
}

// frameDims reports the height and width of a frame.
func frameDims(f stack.Frame) (int, int) {
	if len(f) == 0 {
		return 0, 0
	}
	return len(f), len(f[0])
}

// diffPair computes the signed per-pixel difference curr - prev.
// The inputs are not mutated.
func diffPair(prev, curr stack.Frame) ([][]float64, error) {
	ph, pw := frameDims(prev)
	ch, cw := frameDims(curr)
	if ph != ch || pw != cw {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, pw, ph, cw, ch)
	}

	diff := make([][]float64, ch)
	for y := range diff {
		diff[y] = make([]float64, cw)
		for x := range diff[y] {
			diff[y][x] = curr[y][x] - prev[y][x]
		}
	}
	return diff, nil
}

// candidateMask marks pixels whose difference strictly exceeds limit.
func candidateMask(diff [][]float64, limit float64) [][]bool {
	mask := make([][]bool, len(diff))
	for y := range diff {
		mask[y] = make([]bool, len(diff[y]))
		for x := range diff[y] {
			mask[y][x] = diff[y][x] > limit
		}
	}
	return mask
}

// pixel is a mask coordinate. Row-major ordering throughout: y before x.
type pixel struct {
	y, x int
}

// labelComponents partitions the true cells of the mask into 8-connected
// components. Components are discovered in row-major scan order, giving a
// deterministic labeling independent of library defaults.
func labelComponents(mask [][]bool) [][]pixel {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var components [][]pixel
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] && !visited[y][x] {
				components = append(components, floodFill(mask, visited, y, x))
			}
		}
	}
	return components
}

// floodFill collects one component starting at (startY, startX) using an
// explicit stack to avoid recursion depth limits on large components.
// Connectivity is 8-connected: diagonal neighbors belong to the same
// component.
func floodFill(mask, visited [][]bool, startY, startX int) []pixel {
	height := len(mask)
	width := len(mask[0])

	var component []pixel
	work := []pixel{{y: startY, x: startX}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		if p.y < 0 || p.y >= height || p.x < 0 || p.x >= width {
			continue
		}
		if visited[p.y][p.x] || !mask[p.y][p.x] {
			continue
		}

		visited[p.y][p.x] = true
		component = append(component, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dy == 0 && dx == 0 {
					continue
				}
				work = append(work, pixel{y: p.y + dy, x: p.x + dx})
			}
		}
	}
	return component
}

// extractEvents reduces each component to a single event: the centroid of
// the member pixels truncated toward zero, with the difference image
// sampled at that exact coordinate.
func extractEvents(frameIndex int, mask [][]bool, diff [][]float64) []Event {
	components := labelComponents(mask)

	events := make([]Event, 0, len(components))
	for _, component := range components {
		ys := make([]float64, len(component))
		xs := make([]float64, len(component))
		for i, p := range component {
			ys[i] = float64(p.y)
			xs[i] = float64(p.x)
		}
		// Truncation, not rounding: int() of the mean, as the established
		// analysis pipeline defines the event pixel.
		cy := int(stat.Mean(ys, nil))
		cx := int(stat.Mean(xs, nil))

		events = append(events, Event{
			Frame:     frameIndex,
			Y:         cy,
			X:         cx,
			Intensity: diff[cy][cx],
		})
	}
	return events
}
