package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cohortlens/internal/cli"
	"github.com/Veraticus/cohortlens/internal/config"
)

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all customers, transactions and saved reports",
		Long: `Reset empties the database. This is a destructive operation and cannot be
undone; export anything you need first.`,
		RunE: runReset,
	}
	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	customers, err := store.CustomerCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count customers: %w", err)
	}
	txns, err := store.TransactionCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}

	out := cmd.OutOrStdout()
	if customers == 0 {
		printf(out, "No customers found. Nothing to reset.\n")
		return nil
	}

	if force, _ := cmd.Flags().GetBool("force"); !force {
		printf(out, "This will delete %d customers and %d transactions.\n", customers, txns)
		ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Are you sure you want to continue?")
		if err != nil {
			return err
		}
		if !ok {
			printf(out, "Reset cancelled.\n")
			return nil
		}
	}

	if err := store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	printf(out, "%s\n", cli.FormatSuccess(fmt.Sprintf("✓ Deleted %d customers and %d transactions", customers, txns)))
	return nil
}
