package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/config"
	"github.com/Veraticus/cohortlens/internal/ingest"
	"github.com/Veraticus/cohortlens/internal/model"
	"github.com/Veraticus/cohortlens/internal/storage"
)

type reportSaver interface {
	SaveReport(ctx context.Context, report *storage.SavedReport) error
}

// Input formats accepted by --format.
const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("Opened database", "path", store.Path())
	return store, nil
}

// detectFormat picks the input format from an explicit flag or the file
// extension.
func detectFormat(path, explicit string) (string, error) {
	format := strings.ToLower(explicit)
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			format = formatCSV
		default:
			format = formatJSON
		}
	}
	if format != formatJSON && format != formatCSV {
		return "", common.InvalidConfigf("unsupported format %q (use json or csv)", explicit)
	}
	return format, nil
}

// parseMapping turns field=column pairs into a CSV column mapping.
func parseMapping(pairs []string) (ingest.ColumnMapping, error) {
	var m ingest.ColumnMapping
	fields := map[string]*string{
		"customer_id":        &m.CustomerID,
		"customer_name":      &m.CustomerName,
		"customer_email":     &m.CustomerEmail,
		"transaction_id":     &m.TransactionID,
		"transaction_date":   &m.TransactionDate,
		"transaction_amount": &m.TransactionAmount,
		"transaction_items":  &m.TransactionItems,
	}

	for _, pair := range pairs {
		field, column, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return ingest.ColumnMapping{}, common.InvalidConfigf("mapping %q must look like field=column", pair)
		}
		target, known := fields[strings.TrimSpace(field)]
		if !known {
			return ingest.ColumnMapping{}, common.InvalidConfigf("unknown mapping field %q", field)
		}
		*target = strings.TrimSpace(column)
	}
	return m, nil
}

// readCustomers loads customers from a JSON or CSV file. CSV columns come
// from the explicit mapping, then the configured one, then header detection.
func readCustomers(path, format string, mapping ingest.ColumnMapping) ([]model.Customer, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return decodeCustomers(f, format, mapping)
}

func decodeCustomers(r io.Reader, format string, mapping ingest.ColumnMapping) ([]model.Customer, error) {
	if format == formatJSON {
		return ingest.ReadJSON(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	return ingest.ReadCSV(bytes.NewReader(data), mapping.Merge(ingest.DetectMapping(header)))
}

// batches splits customers into groups of at most size.
func batches(customers []model.Customer, size int) [][]model.Customer {
	if size <= 0 {
		size = len(customers)
	}
	var out [][]model.Customer
	for start := 0; start < len(customers); start += size {
		end := min(start+size, len(customers))
		out = append(out, customers[start:end])
	}
	return out
}

func printf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}
