package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/cohortlens/internal/model"
)

func TestValidateContext(t *testing.T) {
	assert.NoError(t, validateContext(context.Background()))
	//nolint:staticcheck // testing nil context handling
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "c1"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace", input: " \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.input, "id")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyString)
				assert.Contains(t, err.Error(), "id")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := model.Transaction{
		ID:     "t1",
		Date:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString("0.01"),
		Items:  1,
	}

	tests := []struct {
		mutate  func(*model.Transaction)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Transaction) {}},
		{name: "missing id", mutate: func(txn *model.Transaction) { txn.ID = "" }, wantErr: true},
		{name: "zero date", mutate: func(txn *model.Transaction) { txn.Date = time.Time{} }, wantErr: true},
		{name: "zero amount", mutate: func(txn *model.Transaction) { txn.Amount = decimal.Zero }, wantErr: true},
		{name: "negative amount", mutate: func(txn *model.Transaction) { txn.Amount = decimal.NewFromInt(-5) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.mutate(&txn)
			err := validateTransaction(&txn)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransaction)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateCustomers_ReportsIndex(t *testing.T) {
	customers := []model.Customer{
		{ID: "ok", Name: "Fine"},
		{ID: "bad", Name: "Broken", Transactions: []model.Transaction{{ID: "t1"}}},
	}

	err := validateCustomers(customers)
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.Contains(t, err.Error(), "customer at index 1")
	assert.Contains(t, err.Error(), "transaction at index 0")
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, validateDateRange(nil))
	assert.NoError(t, validateDateRange(&DateRange{Start: start, End: start}))
	assert.NoError(t, validateDateRange(&DateRange{Start: start, End: start.AddDate(0, 1, 0)}))
	assert.ErrorIs(t, validateDateRange(&DateRange{Start: start, End: start.Add(-time.Nanosecond)}), ErrInvalidDateRange)
}
