package model

import (
	"fmt"
	"time"
)

// LabelDateLayout is the date format used in period labels.
const LabelDateLayout = "Jan 2, 2006"

// Period is an analysis window. Both ends are inclusive.
type Period struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
	Label string    `json:"label"`
}

// NewPeriod creates a period labelled from its bounds.
func NewPeriod(start, end time.Time) Period {
	return Period{
		Start: start,
		End:   end,
		Label: fmt.Sprintf("%s - %s", start.Format(LabelDateLayout), end.Format(LabelDateLayout)),
	}
}

// Validate ensures the period bounds are usable.
func (p Period) Validate() error {
	if p.Start.IsZero() {
		return fmt.Errorf("period start date is required")
	}
	if p.End.IsZero() {
		return fmt.Errorf("period end date is required")
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("period end date %s is before start date %s",
			p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// FilterByPeriod returns, for every customer with at least one transaction in
// the period, a copy restricted to those transactions. Customers without
// activity in the window are left out so that period comparisons can tell new
// and lost customers apart. Input order is preserved.
func FilterByPeriod(customers []Customer, p Period) []Customer {
	filtered := make([]Customer, 0, len(customers))
	for _, c := range customers {
		var txns []Transaction
		for _, txn := range c.Transactions {
			if p.Contains(txn.Date) {
				txns = append(txns, txn)
			}
		}
		if len(txns) == 0 {
			continue
		}
		filtered = append(filtered, c.WithTransactions(txns))
	}
	return filtered
}
