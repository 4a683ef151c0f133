// Command stackgen writes a synthetic TIRF stack as a multi-page TIFF,
// for exercising the detection pipeline without microscope data.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"

	"github.com/tirflab/insertion-tools/internal/stack"
	"github.com/tirflab/insertion-tools/internal/synth"
)

func main() {
	var (
		outputPath = flag.String("output", "stack.tif", "Output TIFF path")
		frames     = flag.Int("frames", 20, "Number of frames")
		height     = flag.Int("height", 64, "Frame height in pixels")
		width      = flag.Int("width", 64, "Frame width in pixels")
		background = flag.Float64("background", 100, "Constant background intensity")
		noiseLevel = flag.Float64("noise", 5, "Camera noise level (0 disables)")
		psfSigma   = flag.Float64("psf-sigma", 1.5, "Gaussian PSF radius for spots (0 keeps spots single-pixel)")
		spotSpec   = flag.String("spots", "", "Explicit spots as frame:y:x:amplitude, comma separated")
		randomN    = flag.Int("random", 0, "Number of additional randomly placed spots")
		amplitude  = flag.Float64("amplitude", 200, "Amplitude for randomly placed spots")
		seed       = flag.Int64("seed", 1, "Seed for random spot placement")
	)
	flag.Parse()

	spots, err := parseSpots(*spotSpec)
	if err != nil {
		log.Fatalf("Bad -spots value: %v", err)
	}

	if *randomN > 0 && *frames > 1 {
		rng := rand.New(rand.NewSource(*seed))
		for i := 0; i < *randomN; i++ {
			spots = append(spots, synth.Spot{
				// Frame 0 is the noise reference, so insertions start at 1.
				Frame:     1 + rng.Intn(*frames-1),
				Y:         rng.Intn(*height),
				X:         rng.Intn(*width),
				Amplitude: *amplitude * (0.5 + rng.Float64()),
			})
		}
	}

	st, err := synth.Generate(synth.Config{
		Frames:     *frames,
		Height:     *height,
		Width:      *width,
		Background: *background,
		NoiseLevel: *noiseLevel,
		PSFSigma:   *psfSigma,
		Spots:      spots,
	})
	if err != nil {
		log.Fatalf("Failed to generate stack: %v", err)
	}

	if err := stack.WriteTIFFFile(*outputPath, st.Frames); err != nil {
		log.Fatalf("Failed to write %s: %v", *outputPath, err)
	}
	log.Printf("Wrote %d frames of %dx%d with %d spots to %s",
		st.Len(), st.Width, st.Height, len(spots), *outputPath)
}

// parseSpots parses "frame:y:x:amplitude" clauses.
func parseSpots(spec string) ([]synth.Spot, error) {
	if spec == "" {
		return nil, nil
	}
	var spots []synth.Spot
	for _, clause := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(clause), ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%q is not frame:y:x:amplitude", clause)
		}
		nums := make([]int, 3)
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(parts[i])
			if err != nil {
				return nil, fmt.Errorf("%q: %w", clause, err)
			}
			nums[i] = n
		}
		amp, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", clause, err)
		}
		spots = append(spots, synth.Spot{Frame: nums[0], Y: nums[1], X: nums[2], Amplitude: amp})
	}
	return spots, nil
}
