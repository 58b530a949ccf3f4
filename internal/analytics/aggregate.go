// Package analytics implements RFM segmentation, customer lifetime value
// projection and revenue concentration analysis, along with the
// period-over-period comparisons between two analysis runs.
package analytics

import (
	"runtime"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cohortlens/internal/model"
)

// Aggregate holds the per-customer scalars every model is derived from.
type Aggregate struct {
	First            time.Time
	Last             time.Time
	TotalRevenue     float64
	TransactionCount int
}

// HasTransactions reports whether the aggregate was built from any purchase.
func (a Aggregate) HasTransactions() bool {
	return a.TransactionCount > 0
}

// Summarize extracts revenue, count and first/last purchase dates for a
// customer. Amounts are summed exactly before conversion to float64.
func Summarize(c *model.Customer) Aggregate {
	total := decimal.Zero
	var agg Aggregate

	for i, txn := range c.Transactions {
		total = total.Add(txn.Amount)
		if i == 0 || txn.Date.Before(agg.First) {
			agg.First = txn.Date
		}
		if i == 0 || txn.Date.After(agg.Last) {
			agg.Last = txn.Date
		}
	}

	agg.TransactionCount = len(c.Transactions)
	agg.TotalRevenue = total.InexactFloat64()
	return agg
}

// parallelThreshold is the cohort size below which per-customer work runs on
// the calling goroutine.
const parallelThreshold = 2048

// forEachChunk splits [0, n) into contiguous chunks and runs fn on each,
// concurrently for large cohorts. It returns once every chunk is done.
func forEachChunk(n int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if n < parallelThreshold || workers < 2 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(lo, hi)
		}()
	}
	wg.Wait()
}

func ptr[T any](v T) *T {
	return &v
}

// percentChange returns change relative to base in percent, or nil when base
// is zero.
func percentChange(change, base float64) *float64 {
	if base == 0 {
		return nil
	}
	return ptr(change / base * 100)
}
