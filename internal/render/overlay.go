// Package render produces annotated images of detection results.
//
// Overlays show the raw frame in grayscale with one crosshair marker per
// event, colored along a blue-to-red ramp by relative event intensity.
// They exist for eyeballing a run, not for quantitative use.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tirflab/insertion-tools/internal/detection"
	"github.com/tirflab/insertion-tools/internal/stack"
)

// markerArm is the crosshair arm length in source pixels.
const markerArm = 3

// Options controls overlay rendering.
type Options struct {
	// Scale is an integer upscaling factor applied after drawing, using
	// nearest-neighbor so individual pixels stay inspectable. Values <= 1
	// leave the image at native size.
	Scale int
}

// FrameImage converts a frame to an 8-bit grayscale image, normalized so
// that maxSample maps to full white. maxSample <= 0 yields black.
func FrameImage(f stack.Frame, maxSample float64) *image.RGBA {
	height := len(f)
	width := 0
	if height > 0 {
		width = len(f[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v float64
			if maxSample > 0 {
				v = f[y][x] / maxSample * 255
			}
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			g := uint8(v)
			img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// Overlay renders one frame with its events marked. maxSample normalizes
// the grayscale background; it should be the maximum over the whole stack
// so brightness is comparable across frames.
func Overlay(f stack.Frame, maxSample float64, events []detection.Event, opts Options) image.Image {
	img := FrameImage(f, maxSample)

	maxIntensity := 0.0
	for _, e := range events {
		if e.Intensity > maxIntensity {
			maxIntensity = e.Intensity
		}
	}

	for _, e := range events {
		rel := 1.0
		if maxIntensity > 0 {
			rel = e.Intensity / maxIntensity
		}
		if rel < 0 {
			rel = 0
		}
		drawMarker(img, e.X, e.Y, markerColor(rel))
	}

	if opts.Scale > 1 {
		b := img.Bounds()
		return imaging.Resize(img, b.Dx()*opts.Scale, b.Dy()*opts.Scale, imaging.NearestNeighbor)
	}
	return img
}

// WriteOverlays renders every frame that has at least one event and saves
// it as PNG under dir (created if needed), named frame_NNNN.png. Returns
// the written paths in frame order.
func WriteOverlays(dir string, s *stack.Stack, events []detection.Event, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create overlay directory: %w", err)
	}

	byFrame := make(map[int][]detection.Event)
	for _, e := range events {
		byFrame[e.Frame] = append(byFrame[e.Frame], e)
	}
	maxSample := s.MaxSample()

	var written []string
	for t := 0; t < s.Len(); t++ {
		frameEvents, ok := byFrame[t]
		if !ok {
			continue
		}
		img := Overlay(s.Frames[t], maxSample, frameEvents, opts)
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", t))
		if err := imaging.Save(img, path); err != nil {
			return nil, fmt.Errorf("failed to save overlay for frame %d: %w", t, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// markerColor maps relative intensity in [0, 1] to a blue-to-red ramp.
func markerColor(rel float64) color.RGBA {
	c := colorful.Hsv(240*(1-rel), 0.85, 1.0)
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawMarker draws a crosshair centered at (x, y), clipped to the image.
func drawMarker(img *image.RGBA, x, y int, c color.RGBA) {
	b := img.Bounds()
	set := func(px, py int) {
		if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
			img.SetRGBA(px, py, c)
		}
	}
	set(x, y)
	for d := 1; d <= markerArm; d++ {
		set(x-d, y)
		set(x+d, y)
		set(x, y-d)
		set(x, y+d)
	}
}
