package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/storage"
)

// filenameLayout is the timestamp format used in exported filenames.
const filenameLayout = "20060102-150405"

// ExportJSON writes v as indented JSON to path, creating parent directories.
func ExportJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// TimestampedFilename returns dir/name-<timestamp>.json for the given time.
func TimestampedFilename(dir, name string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.json", name, at.Format(filenameLayout)))
}

// Record encodes a report for storage.
func Record(report *analytics.Report) (*storage.SavedReport, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return &storage.SavedReport{
		ReportSummary: storage.ReportSummary{
			ID:            report.ID,
			GeneratedAt:   report.GeneratedAt,
			CurrentLabel:  report.Current.Period.Label,
			PreviousLabel: report.Previous.Period.Label,
			CustomerCount: report.Current.CustomerCount,
		},
		Payload: payload,
	}, nil
}
