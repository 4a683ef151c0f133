// Package detection finds receptor insertion events in TIRF image stacks.
//
// An insertion event is the appearance of a new fluorescent spot: a pixel
// region that is bright in frame t but was not in frame t-1. The pipeline
// is a single forward pass:
//
//  1. Reference statistics: mean and population standard deviation of the
//     first frame, computed once. The standard deviation scales the
//     detection threshold for the whole run.
//  2. Differencing: for each consecutive pair, the signed per-pixel
//     difference curr - prev.
//  3. Thresholding: pixels whose difference strictly exceeds
//     multiplier × std become candidates.
//  4. Component extraction: candidates are grouped by 8-connectivity
//     (diagonal neighbors connect) in row-major first-touch order, and
//     each component is reduced to one Event.
//
// # Event Reduction
//
// The event coordinate is the component centroid - the mean of member row
// and column indices - truncated toward zero to a whole pixel. The
// reported intensity is the difference image sampled at exactly that
// pixel, not an aggregate over the component. For strongly non-convex
// components the truncated centroid can fall outside the component; the
// sample is still taken there. Downstream analysis depends on this exact
// reduction, so it is preserved as-is.
//
// # Determinism
//
// For a given stack and parameters the output is byte-for-byte
// reproducible: events are ordered by frame, then by component discovery
// order within the frame. The parallel path restores this order before
// returning.
package detection
