package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/cohortlens/internal/common"
)

// ReportSummary describes a saved report without its payload.
type ReportSummary struct {
	GeneratedAt   time.Time `json:"generatedAt"`
	ID            string    `json:"id"`
	CurrentLabel  string    `json:"currentLabel"`
	PreviousLabel string    `json:"previousLabel"`
	CustomerCount int       `json:"customerCount"`
}

// SavedReport is a report summary with its encoded payload.
type SavedReport struct {
	Payload []byte
	ReportSummary
}

// SaveReport stores an encoded analysis report, replacing any report with the
// same id.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *SavedReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if err := validateString(report.ID, "report.ID"); err != nil {
		return err
	}
	if len(report.Payload) == 0 {
		return fmt.Errorf("%w: report payload", ErrEmptySlice)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (
			id, generated_at, current_label, previous_label, customer_count, payload
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		formatTimestamp(report.GeneratedAt),
		report.CurrentLabel,
		report.PreviousLabel,
		report.CustomerCount,
		string(report.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	slog.Debug("Saved report", "report_id", report.ID)
	return nil
}

// GetReport loads a saved report by id.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*SavedReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		report      SavedReport
		generatedAt string
		payload     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, generated_at, current_label, previous_label, customer_count, payload
		FROM reports WHERE id = ?
	`, id).Scan(
		&report.ID,
		&generatedAt,
		&report.CurrentLabel,
		&report.PreviousLabel,
		&report.CustomerCount,
		&payload,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report.GeneratedAt, err = parseTimestamp(generatedAt)
	if err != nil {
		return nil, err
	}
	report.Payload = []byte(payload)
	return &report, nil
}

// ListReports returns up to limit saved reports, newest first. A limit of
// zero or less returns all of them.
func (s *SQLiteStorage) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generated_at, current_label, previous_label, customer_count
		FROM reports
		ORDER BY generated_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []ReportSummary{}
	for rows.Next() {
		var (
			summary     ReportSummary
			generatedAt string
		)
		if err := rows.Scan(&summary.ID, &generatedAt, &summary.CurrentLabel, &summary.PreviousLabel, &summary.CustomerCount); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		summary.GeneratedAt, err = parseTimestamp(generatedAt)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return summaries, nil
}
