// Package period builds the current and previous analysis windows used for
// period-over-period comparisons.
package period

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/cohortlens/internal/model"
)

// DateLayout is the accepted format for user-supplied dates.
const DateLayout = "2006-01-02"

// ErrUnknownPreset is returned for a preset name that does not exist.
var ErrUnknownPreset = errors.New("unknown period preset")

// Preset names.
const (
	Last30       = "last30"
	Last90       = "last90"
	ThisMonth    = "thisMonth"
	ThisQuarter  = "thisQuarter"
	ThisYear     = "thisYear"
	YearOverYear = "yoy"
)

// DefaultPreset is used when no preset is requested.
const DefaultPreset = Last30

type presetFunc func(today time.Time) (current, previous model.Period)

type preset struct {
	build       presetFunc
	description string
}

var presets = map[string]preset{
	Last30: {
		description: "Last 30 days vs previous 30 days",
		build:       rollingDays(30),
	},
	Last90: {
		description: "Last 90 days vs previous 90 days",
		build:       rollingDays(90),
	},
	ThisMonth: {
		description: "This month vs last month",
		build: func(today time.Time) (model.Period, model.Period) {
			start := startOfMonth(today)
			prevStart := start.AddDate(0, -1, 0)
			return window(start, today), window(prevStart, start.AddDate(0, 0, -1))
		},
	},
	ThisQuarter: {
		description: "This quarter vs last quarter",
		build: func(today time.Time) (model.Period, model.Period) {
			start := startOfQuarter(today)
			prevStart := start.AddDate(0, -3, 0)
			return window(start, today), window(prevStart, start.AddDate(0, 0, -1))
		},
	},
	ThisYear: {
		description: "This year vs last year",
		build: func(today time.Time) (model.Period, model.Period) {
			start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
			prevStart := start.AddDate(-1, 0, 0)
			return window(start, today), window(prevStart, start.AddDate(0, 0, -1))
		},
	},
	YearOverYear: {
		description: "This month vs the same month last year",
		build: func(today time.Time) (model.Period, model.Period) {
			start := startOfMonth(today)
			prevStart := start.AddDate(-1, 0, 0)
			return window(start, today), window(prevStart, prevStart.AddDate(0, 1, -1))
		},
	},
}

// rollingDays compares the last n days against the n days before them.
func rollingDays(n int) presetFunc {
	return func(today time.Time) (model.Period, model.Period) {
		return window(today.AddDate(0, 0, -n), today),
			window(today.AddDate(0, 0, -2*n), today.AddDate(0, 0, -(n+1)))
	}
}

// Resolve returns the current and previous periods for a preset, relative to
// today.
func Resolve(name string, today time.Time) (current, previous model.Period, err error) {
	p, ok := presets[name]
	if !ok {
		return model.Period{}, model.Period{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	current, previous = p.build(today)
	return current, previous, nil
}

// Names lists the available presets in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a human readable description of a preset.
func Describe(name string) string {
	return presets[name].description
}

// Custom builds explicit current and previous periods from day-granular bounds.
func Custom(currentStart, currentEnd, previousStart, previousEnd time.Time) (current, previous model.Period, err error) {
	current = window(currentStart, currentEnd)
	if err := current.Validate(); err != nil {
		return model.Period{}, model.Period{}, fmt.Errorf("invalid current period: %w", err)
	}
	previous = window(previousStart, previousEnd)
	if err := previous.Validate(); err != nil {
		return model.Period{}, model.Period{}, fmt.Errorf("invalid previous period: %w", err)
	}
	return current, previous, nil
}

// ParseDay parses a YYYY-MM-DD date in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// window spans whole days from the start of the first to the end of the last.
func window(start, end time.Time) model.Period {
	return model.NewPeriod(startOfDay(start), endOfDay(end))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfQuarter(t time.Time) time.Time {
	month := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, t.Location())
}
