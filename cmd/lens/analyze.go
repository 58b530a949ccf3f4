package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/cli"
	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/config"
	"github.com/Veraticus/cohortlens/internal/model"
	"github.com/Veraticus/cohortlens/internal/period"
	"github.com/Veraticus/cohortlens/internal/report"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compare customer behavior between two periods",
		Long: `Run RFM segmentation, lifetime value projection and revenue concentration
for a current and a previous period, then compare them.

Periods come from a preset (see --preset) or from explicit dates given with
--current-start, --current-end, --previous-start and --previous-end.
Customers are read from the database unless --file is given.`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("preset", "p", period.DefaultPreset, fmt.Sprintf("period preset %v", period.Names()))
	cmd.Flags().String("current-start", "", "Current period start (format: 2006-01-02)")
	cmd.Flags().String("current-end", "", "Current period end (format: 2006-01-02)")
	cmd.Flags().String("previous-start", "", "Previous period start (format: 2006-01-02)")
	cmd.Flags().String("previous-end", "", "Previous period end (format: 2006-01-02)")
	cmd.Flags().StringP("file", "f", "", "Analyze customers from a JSON or CSV file instead of the database")
	cmd.Flags().String("format", "", "input format for --file: json or csv")
	cmd.Flags().Bool("json", false, "Print the full report as JSON")
	cmd.Flags().String("export", "", "Also write the report as JSON into this directory")
	cmd.Flags().Bool("no-save", false, "Do not store the report in the database")

	return cmd
}

// periodsFromFlags resolves the comparison windows. Explicit dates win over
// the preset and must all be given together.
func periodsFromFlags(cmd *cobra.Command, today time.Time) (current, previous model.Period, err error) {
	names := []string{"current-start", "current-end", "previous-start", "previous-end"}
	var raw [4]string
	given := 0
	for i, name := range names {
		raw[i], _ = cmd.Flags().GetString(name)
		if raw[i] != "" {
			given++
		}
	}

	if given == 0 {
		preset, _ := cmd.Flags().GetString("preset")
		return period.Resolve(preset, today)
	}
	if given != len(names) {
		return model.Period{}, model.Period{}, common.InvalidConfigf("--current-start, --current-end, --previous-start and --previous-end must be given together")
	}

	var days [4]time.Time
	for i, s := range raw {
		day, err := period.ParseDay(s)
		if err != nil {
			return model.Period{}, model.Period{}, common.InvalidConfigf("--%s: %v", names[i], err)
		}
		days[i] = day
	}
	return period.Custom(days[0], days[1], days[2], days[3])
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	now := time.Now()
	current, previous, err := periodsFromFlags(cmd, now)
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	noSave, _ := cmd.Flags().GetBool("no-save")

	var customers []model.Customer
	var store reportSaver
	if file != "" {
		explicit, _ := cmd.Flags().GetString("format")
		format, err := detectFormat(file, explicit)
		if err != nil {
			return err
		}
		if customers, err = readCustomers(file, format, cfg.CSV); err != nil {
			return err
		}
	}
	if file == "" || !noSave {
		s, err := initStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
		if file == "" {
			if customers, err = s.GetCustomers(ctx, nil); err != nil {
				return err
			}
		}
	}
	if len(customers) == 0 {
		return common.NewUserError("No customers to analyze. Import some with 'lens import' or generate them with 'lens sample --save'", common.ErrNoCustomers)
	}

	engine := analytics.NewEngine(
		analytics.WithWeights(cfg.Weights),
		analytics.WithCLVParams(cfg.CLV),
		analytics.WithClock(func() time.Time { return now }),
	)

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), 100, "Analyzing")
	result, err := engine.Run(ctx, customers, current, previous, cli.StageProgress(bar))
	if err != nil {
		return err
	}
	slog.Debug("Analysis finished", "report", result.ID, "customers", len(customers))

	if !noSave && store != nil {
		record, err := report.Record(result)
		if err != nil {
			return err
		}
		if err := store.SaveReport(ctx, record); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}

	if dir, _ := cmd.Flags().GetString("export"); dir != "" {
		path := report.TimestampedFilename(dir, "lens-report", result.GeneratedAt)
		if err := report.ExportJSON(path, result); err != nil {
			return err
		}
		printf(cmd.ErrOrStderr(), "%s\n", cli.FormatSuccess("✓ Exported report to "+path))
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		printf(out, "%s\n", data)
		return nil
	}

	printf(out, "%s\n", report.NewCLIFormatter().FormatSummary(result))
	return nil
}
