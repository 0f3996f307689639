// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/poseidonvest/globe/pkg/core"
)

// StatusExport is the root JSON structure of a status history file.
type StatusExport struct {
	StartTime time.Time             `json:"startTime"`
	EndTime   time.Time             `json:"endTime"`
	Centers   []string              `json:"centers"`
	Snapshots []core.MarketSnapshot `json:"snapshots"`
	// OpenMinutes approximates how long each center was open, counting the
	// interval after each snapshot that reported it open.
	OpenMinutes map[string]float64 `json:"openMinutes"`
}

// exportJSON writes the status history to a (optionally gzipped) JSON file.
func (b *Backend) exportJSON() error {
	export := buildExport(b.startTime, b.history)

	timestamp := export.StartTime.Format("20060102_150405")
	filename := fmt.Sprintf("market_status_%s.json", timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	dir := b.cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(dir, filename)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func buildExport(start time.Time, history []core.MarketSnapshot) StatusExport {
	export := StatusExport{
		StartTime:   start,
		Snapshots:   history,
		Centers:     make([]string, 0),
		OpenMinutes: make(map[string]float64),
	}
	if len(history) == 0 {
		return export
	}
	if export.StartTime.IsZero() {
		export.StartTime = history[0].Time
	}
	export.EndTime = history[len(history)-1].Time

	seen := make(map[string]bool)
	for i, snap := range history {
		for name, open := range snap.Status {
			if !seen[name] {
				seen[name] = true
				export.Centers = append(export.Centers, name)
				export.OpenMinutes[name] = 0
			}
			if open && i+1 < len(history) {
				export.OpenMinutes[name] += history[i+1].Time.Sub(snap.Time).Minutes()
			}
		}
	}
	slices.Sort(export.Centers)
	return export
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if err := json.NewEncoder(gw).Encode(v); err != nil {
		_ = gw.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}
