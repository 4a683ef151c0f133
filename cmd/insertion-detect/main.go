// Command insertion-detect finds receptor insertion events in a TIRF
// microscopy image stack and writes them to a tabular file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tirflab/insertion-tools/internal/detection"
	"github.com/tirflab/insertion-tools/internal/output"
	"github.com/tirflab/insertion-tools/internal/render"
	"github.com/tirflab/insertion-tools/internal/stack"
)

func main() {
	var (
		outputPath   = flag.String("output", "events.csv", "Output path for the event table")
		format       = flag.String("format", "csv", "Output format: csv or json")
		threshold    = flag.Float64("threshold", 5.0, "Detection threshold in multiples of the reference standard deviation")
		minDistance  = flag.Int("min-distance", 3, "Minimum pixel distance between events (accepted for compatibility; detection performs no suppression)")
		workers      = flag.Int("workers", 1, "Number of frame pairs processed concurrently")
		overlayDir   = flag.String("overlay-dir", "", "Write annotated overlay PNGs to this directory")
		overlayScale = flag.Int("overlay-scale", 1, "Integer upscale factor for overlay PNGs")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <stack>\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "The stack is a multi-page TIFF, a single image file, or a directory of frame images.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)
	if _, err := os.Stat(input); err != nil {
		log.Fatalf("Input stack not found: %s", input)
	}

	log.Printf("Loading stack from %s...", input)
	st, err := stack.Load(input)
	if err != nil {
		log.Fatalf("Failed to load stack: %v", err)
	}
	log.Printf("Stack shape: %d frames of %dx%d", st.Len(), st.Width, st.Height)

	params := detection.Params{
		Threshold:   *threshold,
		MinDistance: *minDistance,
		Workers:     *workers,
	}
	stats, err := detection.EstimateReference(st)
	if err != nil {
		log.Fatalf("Detection failed: %v", err)
	}
	log.Printf("Reference frame: mean %.3f, std %.3f", stats.Mean, stats.Std)

	events, err := detection.DetectWithStats(st, stats, params)
	if err != nil {
		log.Fatalf("Detection failed: %v", err)
	}
	log.Printf("Detected %d events.", len(events))

	switch *format {
	case "csv":
		err = output.WriteCSVFile(*outputPath, events)
	case "json":
		err = output.WriteJSONFile(*outputPath, events)
	default:
		log.Fatalf("Unknown output format %q (want csv or json)", *format)
	}
	if err != nil {
		log.Fatalf("Failed to write events: %v", err)
	}
	log.Printf("Saved %d events to %s", len(events), *outputPath)

	if *overlayDir != "" {
		written, err := render.WriteOverlays(*overlayDir, st, events, render.Options{Scale: *overlayScale})
		if err != nil {
			log.Fatalf("Failed to write overlays: %v", err)
		}
		log.Printf("Wrote %d overlay images to %s", len(written), *overlayDir)
	}
}
