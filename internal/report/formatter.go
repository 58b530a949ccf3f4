// Package report renders analysis reports for the terminal and exports them
// as JSON files.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/cli"
)

// Summary limits.
const (
	maxMigrations         = 5
	maxTopPerSegmentShown = 3
)

// CLIFormatter renders reports for terminal display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// FormatSummary creates a high-level summary of the analysis report.
func (f *CLIFormatter) FormatSummary(report *analytics.Report) string {
	if report == nil {
		return f.styles.Error.Render("No report available")
	}

	sections := []string{
		f.formatHeader(report),
		f.formatOverview(report),
		f.formatSegmentChanges(report.Comparison.RFM.SegmentChanges),
	}

	if migrations := report.Comparison.RFM.SegmentMigration.Migrations(); len(migrations) > 0 {
		sections = append(sections, f.formatMigrations(migrations))
	}

	sections = append(sections,
		f.formatCLV(report.Comparison.CLV.OverallChanges),
		f.formatConcentration(report.Comparison.Concentration),
	)

	if len(report.Current.Segments) > 0 {
		sections = append(sections, f.formatSegmentStats(report.Current.Segments))
	}

	return strings.Join(sections, "\n\n")
}

func (f *CLIFormatter) formatHeader(report *analytics.Report) string {
	title := f.styles.Title.Render(cli.ChartIcon + " Customer Analysis Report")

	current := f.styles.Subtitle.Render("Current:  " + describePeriod(report.Current))
	previous := f.styles.Subtitle.Render("Previous: " + describePeriod(report.Previous))

	generated := f.styles.Subtle.Render(fmt.Sprintf("Generated: %s  Report: %s",
		report.GeneratedAt.Format(time.RFC3339), report.ID))

	return strings.Join([]string{title, current, previous, generated}, "\n")
}

func describePeriod(result analytics.PeriodResult) string {
	p := result.Period
	if p.Label == "" {
		return fmt.Sprintf("%s to %s", p.Start.Format("Jan 2, 2006"), p.End.Format("Jan 2, 2006"))
	}
	return p.Label
}

func (f *CLIFormatter) formatOverview(report *analytics.Report) string {
	title := f.styles.Subtitle.Render("Overview:")

	customers := report.Current.CustomerCount - report.Previous.CustomerCount
	revenue := report.Current.Revenue - report.Previous.Revenue

	lines := []string{
		fmt.Sprintf("  Active customers: %s (%s)",
			f.styles.Value.Render(fmt.Sprintf("%d", report.Current.CustomerCount)),
			cli.FormatDelta(float64(customers), "%.0f")),
		fmt.Sprintf("  Revenue:          %s (%s)",
			f.styles.Value.Render(fmt.Sprintf("$%.2f", report.Current.Revenue)),
			cli.FormatDelta(revenue, "$%.2f")),
		fmt.Sprintf("  New customers:    %d", len(report.NewCustomers())),
		fmt.Sprintf("  Lost customers:   %d", len(report.LostCustomers())),
	}

	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatSegmentChanges(changes []analytics.SegmentChange) string {
	title := f.styles.Subtitle.Render("RFM Segments:")

	segmentWidth := 22
	countWidth := 10

	header := fmt.Sprintf("%-*s %-*s %-*s %s",
		segmentWidth, "Segment",
		countWidth, "Current",
		countWidth, "Previous",
		"Change")
	rows := []string{
		f.styles.Header.Render(header),
		f.styles.Subtle.Render(strings.Repeat("─", len(header)+8)),
	}

	for _, change := range changes {
		name := fmt.Sprintf("%-*s", segmentWidth, change.Segment)
		row := fmt.Sprintf("%s %-*d %-*d %s %s",
			f.styles.ForSegment(change.Segment).Render(name),
			countWidth, change.Current,
			countWidth, change.Previous,
			cli.FormatDelta(float64(change.Change), "%.0f"),
			cli.FormatPercent(change.PercentChange))
		rows = append(rows, row)
	}

	if len(changes) == 0 {
		rows = append(rows, f.styles.Subtle.Render("No customers in either period"))
	}

	return title + "\n" + strings.Join(rows, "\n")
}

func (f *CLIFormatter) formatMigrations(migrations []analytics.Migration) string {
	title := f.styles.Subtitle.Render("Top Segment Migrations:")

	limit := min(len(migrations), maxMigrations)
	lines := make([]string, 0, limit+1)
	for _, m := range migrations[:limit] {
		lines = append(lines, fmt.Sprintf("  %s → %s: %d",
			f.styles.ForSegment(m.From).Render(string(m.From)),
			f.styles.ForSegment(m.To).Render(string(m.To)),
			m.Count))
	}
	if len(migrations) > limit {
		lines = append(lines, f.styles.Subtle.Render(fmt.Sprintf("  ... and %d more", len(migrations)-limit)))
	}

	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatCLV(overall analytics.CLVOverall) string {
	title := f.styles.Subtitle.Render("Customer Lifetime Value:")

	lines := []string{
		fmt.Sprintf("  Total CLV:   %s (%s, %s)",
			f.styles.Value.Render(fmt.Sprintf("$%.2f", overall.TotalCLV.Current)),
			cli.FormatDelta(overall.TotalCLV.AbsoluteChange, "$%.2f"),
			cli.FormatPercent(overall.TotalCLV.PercentChange)),
		fmt.Sprintf("  Average CLV: %s (%s, %s)",
			f.styles.Value.Render(fmt.Sprintf("$%.2f", overall.AverageCLV.Current)),
			cli.FormatDelta(overall.AverageCLV.AbsoluteChange, "$%.2f"),
			cli.FormatPercent(overall.AverageCLV.PercentChange)),
		fmt.Sprintf("  Customers:   %d (previously %d)",
			overall.CustomerCount.Current, overall.CustomerCount.Previous),
	}

	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatConcentration(c analytics.ConcentrationComparison) string {
	title := f.styles.Subtitle.Render("Revenue Concentration:")

	lines := []string{
		fmt.Sprintf("  Pareto ratio: %s %.1f%% of customers drive %.0f%% of revenue (%s)",
			f.styles.RenderBar(c.CurrentRatio, 20),
			c.CurrentRatio*100,
			analytics.ParetoThreshold*100,
			cli.FormatDelta(c.RatioChange*100, "%.1f pts")),
		fmt.Sprintf("  Gini:         %.3f (%s)",
			c.CurrentGini,
			cli.FormatDelta(c.GiniChange, "%.3f")),
	}

	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatSegmentStats(stats []analytics.SegmentStat) string {
	title := f.styles.Subtitle.Render("Current Period by Segment:")

	segmentWidth := 22
	header := fmt.Sprintf("%-*s %-8s %-14s %-12s %s",
		segmentWidth, "Segment", "Count", "Revenue", "Avg Revenue", "Avg Score")
	rows := []string{
		f.styles.Header.Render(header),
		f.styles.Subtle.Render(strings.Repeat("─", len(header))),
	}

	for _, s := range stats {
		name := fmt.Sprintf("%-*s", segmentWidth, s.Segment)
		rows = append(rows, fmt.Sprintf("%s %-8d %-14s %-12s %.2f",
			f.styles.ForSegment(s.Segment).Render(name),
			s.Count,
			fmt.Sprintf("$%.2f", s.TotalRevenue),
			fmt.Sprintf("$%.2f", s.AvgRevenue),
			s.AvgRFMScore))
	}

	if top := f.formatTopCustomers(stats); top != "" {
		rows = append(rows, "", top)
	}

	return title + "\n" + strings.Join(rows, "\n")
}

// formatTopCustomers lists the highest scoring customers of each segment.
func (f *CLIFormatter) formatTopCustomers(stats []analytics.SegmentStat) string {
	var lines []string
	for _, s := range stats {
		if len(s.TopCustomers) == 0 {
			continue
		}
		names := make([]string, 0, maxTopPerSegmentShown)
		for _, c := range s.TopCustomers[:min(len(s.TopCustomers), maxTopPerSegmentShown)] {
			names = append(names, fmt.Sprintf("%s (%.2f)", c.Name, c.RFM.Score))
		}
		more := ""
		if extra := s.Count - len(names); extra > 0 {
			more = f.styles.Subtle.Render(fmt.Sprintf(" +%d more", extra))
		}
		lines = append(lines, fmt.Sprintf("  %s %s%s",
			f.styles.ForSegment(s.Segment).Render(string(s.Segment)+":"),
			strings.Join(names, ", "), more))
	}
	if len(lines) == 0 {
		return ""
	}
	return f.styles.Header.Render("Top customers:") + "\n" + strings.Join(lines, "\n")
}
