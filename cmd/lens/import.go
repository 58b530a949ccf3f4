package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cohortlens/internal/cli"
	"github.com/Veraticus/cohortlens/internal/config"
	"github.com/Veraticus/cohortlens/internal/model"
	"github.com/Veraticus/cohortlens/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import customers and transactions from JSON or CSV",
		Long: `Import customer purchase histories into the local database.

JSON input is an array of customers with nested transactions. CSV input has one
row per transaction; columns are detected from the header, taken from the
import.csv config section, or given with --map field=column.

Re-importing a customer replaces its profile and upserts its transactions.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "", "input format: json or csv (default: from file extension)")
	cmd.Flags().StringSlice("map", nil, "CSV column mapping as field=column (repeatable)")
	cmd.Flags().Bool("dry-run", false, "Parse and summarize without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	explicit, _ := cmd.Flags().GetString("format")
	format, err := detectFormat(args[0], explicit)
	if err != nil {
		return err
	}

	pairs, _ := cmd.Flags().GetStringSlice("map")
	flagMapping, err := parseMapping(pairs)
	if err != nil {
		return err
	}

	customers, err := readCustomers(args[0], format, flagMapping.Merge(cfg.CSV))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printf(out, "%s\n", cli.FormatTitle(fmt.Sprintf("Importing %s", args[0])))
	printf(out, "Parsed %d customers with %d transactions\n", len(customers), countTransactions(customers))

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		printf(out, "%s\n", cli.FormatWarning("Dry run mode - not saving to database"))
		return nil
	}

	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "Customers saved before the interrupt are kept; re-run import to finish.")
	defer stop()

	saved, err := saveInBatches(ctx, store, customers, cfg.BatchSize, cli.NewProgressBar(cmd.ErrOrStderr(), len(customers), "Saving customers"))
	if err != nil {
		if handler.WasInterrupted() {
			slog.Warn("Import interrupted", "saved", saved, "total", len(customers))
			return nil
		}
		return fmt.Errorf("failed to save customers: %w", err)
	}

	total, err := store.CustomerCount(ctx)
	if err != nil {
		return err
	}
	printf(out, "%s\n", cli.FormatSuccess(fmt.Sprintf("✓ Imported %d customers (%d in database)", saved, total)))
	return nil
}

type progressAdder interface {
	Add(int) error
}

type customerSaver interface {
	SaveCustomers(ctx context.Context, customers []model.Customer) error
}

var _ customerSaver = (*storage.SQLiteStorage)(nil)

// saveInBatches writes customers in transactions of at most size customers,
// stopping at the first failure or cancellation. It returns how many
// customers were saved.
func saveInBatches(ctx context.Context, store customerSaver, customers []model.Customer, size int, bar progressAdder) (int, error) {
	saved := 0
	for _, batch := range batches(customers, size) {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := store.SaveCustomers(ctx, batch); err != nil {
			return saved, err
		}
		saved += len(batch)
		if bar != nil {
			if err := bar.Add(len(batch)); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}
	return saved, nil
}

func countTransactions(customers []model.Customer) int {
	n := 0
	for _, c := range customers {
		n += len(c.Transactions)
	}
	return n
}
