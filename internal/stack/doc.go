// Package stack loads and represents TIRF microscopy image stacks.
//
// A stack is a time-ordered sequence of 2-D intensity frames, all sharing
// the same dimensions. Stacks are supplied either as a single multi-page
// TIFF file, as any single-image file Go can decode (a one-frame stack),
// or as a directory of per-frame image files ordered by filename.
//
// # Sample Values
//
// Frames hold raw sensor samples as float64: 0-255 for 8-bit sources and
// 0-65535 for 16-bit sources. Color inputs are reduced to luminance. The
// detection code thresholds relative to a noise estimate, so the two
// ranges coexist without rescaling.
//
// # Multi-Page TIFF
//
// golang.org/x/image/tiff decodes only the first image of a TIFF file, so
// this package carries its own reader for the stack layout microscopy
// acquisition software actually emits: grayscale, 8- or 16-bit,
// uncompressed, either byte order, one IFD per frame. Files the reader
// cannot handle fall back to image.Decode for the first frame.
package stack
