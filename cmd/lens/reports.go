package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/cohortlens/internal/cli"
	"github.com/Veraticus/cohortlens/internal/config"
)

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List saved analysis reports",
		RunE:  runReports,
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum reports to list (0 for all)")
	return cmd
}

func runReports(cmd *cobra.Command, _ []string) error {
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

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.ListReports(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		printf(out, "%s\n", cli.FormatInfo("No saved reports. Run 'lens analyze' to create one."))
		return nil
	}

	printf(out, "%s\n\n", cli.FormatTitle("Saved Reports"))
	for _, s := range summaries {
		printf(out, "%s  %s  %-20s vs %-20s %d customers\n",
			s.GeneratedAt.Local().Format("2006-01-02 15:04"),
			cli.SubtleStyle.Render(s.ID),
			s.CurrentLabel, s.PreviousLabel, s.CustomerCount)
	}
	return nil
}
