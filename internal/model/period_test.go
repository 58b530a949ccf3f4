package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC)
}

func TestPeriod_Validate(t *testing.T) {
	tests := []struct {
		name    string
		period  Period
		wantErr bool
	}{
		{name: "valid", period: NewPeriod(day(1), day(10))},
		{name: "single instant", period: NewPeriod(day(1), day(1))},
		{name: "missing start", period: Period{End: day(1)}, wantErr: true},
		{name: "missing end", period: Period{Start: day(1)}, wantErr: true},
		{name: "reversed", period: NewPeriod(day(10), day(1)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPeriod_Label(t *testing.T) {
	p := NewPeriod(day(1), day(31))
	assert.Equal(t, "Mar 1, 2025 - Mar 31, 2025", p.Label)
}

func TestPeriod_ContainsIsInclusive(t *testing.T) {
	p := NewPeriod(day(5), day(10))

	assert.True(t, p.Contains(day(5)))
	assert.True(t, p.Contains(day(10)))
	assert.False(t, p.Contains(day(4)))
	assert.False(t, p.Contains(day(10).Add(time.Nanosecond)))
}

func TestFilterByPeriod(t *testing.T) {
	customers := []Customer{
		{
			ID:   "a",
			Name: "Alice",
			Transactions: []Transaction{
				{ID: "a1", Date: day(2), Amount: decimal.NewFromInt(10), Items: 1},
				{ID: "a2", Date: day(6), Amount: decimal.NewFromInt(20), Items: 1},
			},
		},
		{
			ID:   "b",
			Name: "Bob",
			Transactions: []Transaction{
				{ID: "b1", Date: day(1), Amount: decimal.NewFromInt(5), Items: 1},
			},
		},
		{ID: "c", Name: "Carol"},
		{
			ID:   "d",
			Name: "Dan",
			Transactions: []Transaction{
				{ID: "d1", Date: day(9), Amount: decimal.NewFromInt(7), Items: 2},
			},
		},
	}

	filtered := FilterByPeriod(customers, NewPeriod(day(5), day(10)))

	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].ID)
	require.Len(t, filtered[0].Transactions, 1)
	assert.Equal(t, "a2", filtered[0].Transactions[0].ID)
	assert.Equal(t, "d", filtered[1].ID)

	// Source data is not modified.
	assert.Len(t, customers[0].Transactions, 2)
}

func TestCustomer_SortedTransactions(t *testing.T) {
	c := Customer{
		ID: "a",
		Transactions: []Transaction{
			{ID: "late", Date: day(20)},
			{ID: "early", Date: day(1)},
			{ID: "mid", Date: day(10)},
		},
	}

	sorted := c.SortedTransactions()

	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, "late", c.Transactions[0].ID)
}
