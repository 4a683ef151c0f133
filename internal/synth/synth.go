// Package synth generates synthetic TIRF stacks for demos and tests.
//
// A generated stack is a constant background with optional camera noise;
// spots appear at configured frames and persist for the rest of the
// sequence, optionally smeared by a Gaussian approximation of the
// microscope point-spread function.
package synth

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/noise"

	"github.com/tirflab/insertion-tools/internal/stack"
)

// Spot is a fluorophore appearing at (Y, X) in frame Frame and persisting
// afterwards. Amplitude is its peak brightness above background.
type Spot struct {
	Frame     int
	Y, X      int
	Amplitude float64
}

// Config describes a synthetic stack.
type Config struct {
	Frames int
	Height int
	Width  int

	// Background is the constant baseline intensity of every pixel.
	Background float64

	// NoiseLevel scales the per-frame camera noise added to the
	// background. 0 disables noise, which also makes output fully
	// deterministic.
	NoiseLevel float64

	// PSFSigma is the Gaussian blur radius applied to spots. 0 keeps
	// spots as single pixels.
	PSFSigma float64

	Spots []Spot
}

// Generate builds the stack described by cfg.
func Generate(cfg Config) (*stack.Stack, error) {
	if cfg.Frames <= 0 || cfg.Height <= 0 || cfg.Width <= 0 {
		return nil, fmt.Errorf("stack dimensions must be positive, got %dx%dx%d",
			cfg.Frames, cfg.Height, cfg.Width)
	}
	maxAmp := 0.0
	for i, s := range cfg.Spots {
		if s.Frame < 0 || s.Frame >= cfg.Frames || s.Y < 0 || s.Y >= cfg.Height ||
			s.X < 0 || s.X >= cfg.Width {
			return nil, fmt.Errorf("spot %d at frame %d, (%d,%d) outside stack", i, s.Frame, s.Y, s.X)
		}
		if s.Amplitude > maxAmp {
			maxAmp = s.Amplitude
		}
	}

	frames := make([]stack.Frame, cfg.Frames)
	for t := range frames {
		f := stack.NewFrame(cfg.Height, cfg.Width)
		for y := range f {
			for x := range f[y] {
				f[y][x] = cfg.Background
			}
		}

		if cfg.NoiseLevel > 0 {
			addNoise(f, cfg.NoiseLevel)
		}

		active := activeSpots(cfg.Spots, t)
		if len(active) > 0 {
			if cfg.PSFSigma > 0 {
				addBlurredSpots(f, active, maxAmp, cfg.PSFSigma)
			} else {
				for _, s := range active {
					f[s.Y][s.X] += s.Amplitude
				}
			}
		}

		for y := range f {
			for x := range f[y] {
				if f[y][x] < 0 {
					f[y][x] = 0
				}
			}
		}
		frames[t] = f
	}

	return &stack.Stack{Frames: frames, Height: cfg.Height, Width: cfg.Width}, nil
}

func activeSpots(spots []Spot, t int) []Spot {
	var active []Spot
	for _, s := range spots {
		if t >= s.Frame {
			active = append(active, s)
		}
	}
	return active
}

// addNoise perturbs every pixel with Gaussian camera noise centered on the
// current value, scaled by level.
func addNoise(f stack.Frame, level float64) {
	height := len(f)
	width := len(f[0])
	n := noise.Generate(width, height, &noise.Options{NoiseFn: noise.Gaussian, Monochrome: true})
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sample := float64(n.RGBAAt(x, y).R)
			f[y][x] += (sample - 128) / 128 * level
		}
	}
}

// addBlurredSpots rasterizes the active spots into an 8-bit working layer
// normalized by maxAmp, smears it with a Gaussian blur, and adds the
// result back at full amplitude. Peak values drop as energy spreads,
// which is exactly what a real PSF does.
func addBlurredSpots(f stack.Frame, spots []Spot, maxAmp, sigma float64) {
	if maxAmp <= 0 {
		return
	}
	height := len(f)
	width := len(f[0])

	layer := image.NewGray(image.Rect(0, 0, width, height))
	for _, s := range spots {
		v := s.Amplitude / maxAmp * 255
		if v > 255 {
			v = 255
		}
		layer.Pix[s.Y*layer.Stride+s.X] = uint8(v)
	}

	blurred := blur.Gaussian(layer, sigma)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := float64(blurred.RGBAAt(x, y).R)
			if v == 0 {
				continue
			}
			f[y][x] += v / 255 * maxAmp
		}
	}
}
