// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/memory/export/v1"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

// exportJSON writes the battle replay to a (optionally gzipped) JSON file.
// Caller must hold b.mu.
func (b *Backend) exportJSON(record *BattleRecord) error {
	replay := v1.Build(&v1.BattleData{
		Info:    record.Info,
		Turns:   record.Turns,
		Effects: record.Effects,
		Summary: record.Summary,
		Result:  record.Result,
	})

	// Build filename
	battleID := strings.ReplaceAll(record.Info.ID, " ", "_")
	battleID = strings.ReplaceAll(battleID, ":", "_")
	timestamp := record.Info.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", battleID, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", battleID, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, replay); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, replay); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	b.lastExportMeta = core.UploadMetadata{
		FormatName:     record.Info.Format.Name,
		BattleID:       record.Info.ID,
		Winner:         record.Result.Winner,
		TurnCount:      record.Result.Turns,
		BattleDuration: record.Result.EndTime.Sub(record.Info.StartTime).Seconds(),
		Tag:            record.Info.Tag,
	}
	return nil
}

func writeJSON(path string, data v1.Replay) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Replay) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
