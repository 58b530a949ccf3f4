// Package sample generates synthetic customer histories for demos and tests.
package sample

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

// Amount bounds for generated transactions, in cents.
const (
	minAmountCents = 1000
	maxAmountCents = 50000
	maxItems       = 10
)

// Options controls the shape of the generated data.
type Options struct {
	Start           time.Time
	End             time.Time
	Customers       int
	MaxTransactions int
}

// DefaultOptions generates a year of history for 100 customers ending at now.
func DefaultOptions(now time.Time) Options {
	return Options{
		Customers:       100,
		MaxTransactions: 20,
		Start:           now.AddDate(-1, 0, 0),
		End:             now,
	}
}

// Validate checks that the options describe a generatable data set.
func (o Options) Validate() error {
	if o.Customers <= 0 {
		return common.InvalidConfigf("customer count must be positive, got %d", o.Customers)
	}
	if o.MaxTransactions <= 0 {
		return common.InvalidConfigf("max transactions must be positive, got %d", o.MaxTransactions)
	}
	if !o.End.After(o.Start) {
		return common.InvalidConfigf("sample end %s must be after start %s",
			o.End.Format(time.DateOnly), o.Start.Format(time.DateOnly))
	}
	return nil
}

// Generate creates customers with between 1 and MaxTransactions purchases
// spread uniformly over [Start, End). Output is deterministic for a given rng.
func Generate(rng *rand.Rand, opts Options) ([]model.Customer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	span := opts.End.Sub(opts.Start)
	customers := make([]model.Customer, 0, opts.Customers)

	for i := 1; i <= opts.Customers; i++ {
		c := model.Customer{
			ID:    fmt.Sprintf("cust%03d", i),
			Name:  fmt.Sprintf("Customer %d", i),
			Email: fmt.Sprintf("customer%d@example.com", i),
		}

		count := rng.IntN(opts.MaxTransactions) + 1
		txns := make([]model.Transaction, 0, count)
		for j := 1; j <= count; j++ {
			cents := minAmountCents + rng.Int64N(maxAmountCents-minAmountCents+1)
			txns = append(txns, model.Transaction{
				ID:     fmt.Sprintf("t%d_%d", i, j),
				Date:   opts.Start.Add(time.Duration(rng.Int64N(int64(span)))).UTC(),
				Amount: decimal.New(cents, -2),
				Items:  rng.IntN(maxItems) + 1,
			})
		}
		c.Transactions = txns
		c.Transactions = c.SortedTransactions()

		customers = append(customers, c)
	}

	return customers, nil
}
