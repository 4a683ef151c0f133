// Package output serializes detected events to tabular files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tirflab/insertion-tools/internal/detection"
)

// WriteCSV writes events as CSV with the fixed column order
// frame, y, x, intensity. The header is the first row.
func WriteCSV(w io.Writer, events []detection.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"frame", "y", "x", "intensity"}); err != nil {
		return err
	}
	for _, e := range events {
		record := []string{
			strconv.Itoa(e.Frame),
			strconv.Itoa(e.Y),
			strconv.Itoa(e.X),
			strconv.FormatFloat(e.Intensity, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes events to path, creating or truncating it.
func WriteCSVFile(path string, events []detection.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON writes events as an indented JSON array. An empty event list
// encodes as [] rather than null.
func WriteJSON(w io.Writer, events []detection.Event) error {
	if events == nil {
		events = []detection.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// WriteJSONFile writes events to path, creating or truncating it.
func WriteJSONFile(path string, events []detection.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteJSON(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
