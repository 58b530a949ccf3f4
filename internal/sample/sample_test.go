package sample

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cohortlens/internal/common"
)

func testOptions() Options {
	return Options{
		Customers:       25,
		MaxTransactions: 8,
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	opts := testOptions()
	customers, err := Generate(rand.New(rand.NewPCG(1, 2)), opts)
	require.NoError(t, err)
	require.Len(t, customers, opts.Customers)

	assert.Equal(t, "cust001", customers[0].ID)
	assert.Equal(t, "Customer 1", customers[0].Name)
	assert.Equal(t, "customer1@example.com", customers[0].Email)
	assert.Equal(t, "cust025", customers[24].ID)

	minAmount := decimal.NewFromInt(10)
	maxAmount := decimal.NewFromInt(500)

	for _, c := range customers {
		require.NotEmpty(t, c.Transactions, c.ID)
		assert.LessOrEqual(t, len(c.Transactions), opts.MaxTransactions, c.ID)

		for i, txn := range c.Transactions {
			assert.False(t, txn.Date.Before(opts.Start), txn.ID)
			assert.True(t, txn.Date.Before(opts.End), txn.ID)
			assert.True(t, txn.Amount.GreaterThanOrEqual(minAmount), txn.ID)
			assert.True(t, txn.Amount.LessThanOrEqual(maxAmount), txn.ID)
			assert.LessOrEqual(t, txn.Amount.Exponent(), int32(0))
			assert.GreaterOrEqual(t, txn.Amount.Exponent(), int32(-2))
			assert.GreaterOrEqual(t, txn.Items, 1)
			assert.LessOrEqual(t, txn.Items, 10)
			if i > 0 {
				assert.False(t, txn.Date.Before(c.Transactions[i-1].Date), "transactions must be oldest first")
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(rand.New(rand.NewPCG(42, 42)), testOptions())
	require.NoError(t, err)
	second, err := Generate(rand.New(rand.NewPCG(42, 42)), testOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_TransactionIDsAreUnique(t *testing.T) {
	customers, err := Generate(rand.New(rand.NewPCG(7, 7)), testOptions())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range customers {
		for _, txn := range c.Transactions {
			assert.False(t, seen[txn.ID], "duplicate id %s", txn.ID)
			seen[txn.ID] = true
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		mutate func(*Options)
		name   string
	}{
		{name: "no customers", mutate: func(o *Options) { o.Customers = 0 }},
		{name: "no transactions", mutate: func(o *Options) { o.MaxTransactions = 0 }},
		{name: "empty range", mutate: func(o *Options) { o.End = o.Start }},
		{name: "reversed range", mutate: func(o *Options) { o.Start, o.End = o.End, o.Start }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)

			_, err := Generate(rand.New(rand.NewPCG(1, 1)), opts)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}

	assert.NoError(t, DefaultOptions(time.Now()).Validate())
}
