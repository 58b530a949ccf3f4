package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cohortlens/internal/cli"
	"github.com/Veraticus/cohortlens/internal/config"
	"github.com/Veraticus/cohortlens/internal/ingest"
	"github.com/Veraticus/cohortlens/internal/sample"
)

func sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate synthetic customer data",
		Long: `Generate random customer purchase histories for trying out the analysis.

By default the data is written as JSON to stdout. Use --output to write a file
or --save to store it directly in the database.`,
		RunE: runSample,
	}

	cmd.Flags().IntP("customers", "n", 100, "Number of customers to generate")
	cmd.Flags().Int("max-transactions", 20, "Maximum transactions per customer")
	cmd.Flags().Int("months", 12, "Months of history ending today")
	cmd.Flags().Uint64("seed", 0, "Random seed (default: time-based)")
	cmd.Flags().StringP("output", "o", "", "Write JSON to this file instead of stdout")
	cmd.Flags().Bool("save", false, "Save the generated customers to the database")

	return cmd
}

func runSample(cmd *cobra.Command, _ []string) error {
	now := time.Now().UTC()
	opts := sample.DefaultOptions(now)
	opts.Customers, _ = cmd.Flags().GetInt("customers")
	opts.MaxTransactions, _ = cmd.Flags().GetInt("max-transactions")
	months, _ := cmd.Flags().GetInt("months")
	opts.Start = now.AddDate(0, -months, 0)

	seed, _ := cmd.Flags().GetUint64("seed")
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}

	customers, err := sample.Generate(rand.New(rand.NewPCG(seed, seed)), opts) //nolint:gosec // synthetic data
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := initStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		saved, err := saveInBatches(cmd.Context(), store, customers, cfg.BatchSize, nil)
		if err != nil {
			return fmt.Errorf("failed to save sample customers: %w", err)
		}
		printf(cmd.ErrOrStderr(), "%s\n", cli.FormatSuccess(fmt.Sprintf("✓ Saved %d sample customers (seed %d)", saved, seed)))
		return nil
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return ingest.WriteJSON(cmd.OutOrStdout(), customers)
	}

	f, err := os.Create(output) //nolint:gosec // user-chosen output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := ingest.WriteJSON(f, customers); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	printf(cmd.ErrOrStderr(), "%s\n", cli.FormatSuccess(fmt.Sprintf("✓ Wrote %d customers to %s (seed %d)", len(customers), output, seed)))
	return nil
}
