package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

// NoPurchaseRecency is the recency assigned to customers without any
// transaction. It is larger than any real recency, exactly representable as a
// float64 and safe to subtract from without overflow.
const NoPurchaseRecency = 1<<53 - 1

// Weights controls how the three RFM scores combine into the composite score.
type Weights struct {
	R float64 `json:"r" mapstructure:"r"`
	F float64 `json:"f" mapstructure:"f"`
	M float64 `json:"m" mapstructure:"m"`
}

// DefaultWeights weighs recency, frequency and monetary equally.
func DefaultWeights() Weights {
	return Weights{R: 1, F: 1, M: 1}
}

// Validate rejects negative, non-finite or all-zero weights.
func (w Weights) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{{"r", w.R}, {"f", w.F}, {"m", w.M}} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return common.InvalidConfigf("rfm weight %s must be finite", v.name)
		}
		if v.value < 0 {
			return common.InvalidConfigf("rfm weight %s must be non-negative, got %g", v.name, v.value)
		}
	}
	if w.R+w.F+w.M == 0 {
		return common.InvalidConfigf("rfm weights must not all be zero")
	}
	return nil
}

// RFMRecord is the RFM outcome for one customer.
type RFMRecord struct {
	Segment   Segment `json:"segment"`
	Recency   int     `json:"recency"`
	Frequency int     `json:"frequency"`
	Monetary  float64 `json:"monetary"`
	RScore    int     `json:"r_score"`
	FScore    int     `json:"f_score"`
	MScore    int     `json:"m_score"`
	Score     float64 `json:"rfm_score"`
}

// ScoredCustomer pairs a customer identity with its RFM record.
type ScoredCustomer struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	RFM   RFMRecord `json:"rfm"`
}

// Breakpoints are the four quintile cut points B1..B4 of one metric.
type Breakpoints [4]float64

// quintileBreakpoints picks the values at floor(k*n/5)-1 for k=1..4 from an
// ascending slice. Indices below zero are clamped to zero, so cohorts smaller
// than five collapse to identical breakpoints.
func quintileBreakpoints(sorted []float64) Breakpoints {
	var bp Breakpoints
	n := len(sorted)
	if n == 0 {
		return bp
	}
	for k := 1; k <= 4; k++ {
		idx := max(k*n/5-1, 0)
		bp[k-1] = sorted[idx]
	}
	return bp
}

// lowerIsBetter scores a value where smaller raw values earn higher scores.
func (b Breakpoints) lowerIsBetter(v float64) int {
	switch {
	case v <= b[0]:
		return 5
	case v <= b[1]:
		return 4
	case v <= b[2]:
		return 3
	case v <= b[3]:
		return 2
	default:
		return 1
	}
}

// higherIsBetter scores a value where larger raw values earn higher scores.
func (b Breakpoints) higherIsBetter(v float64) int {
	switch {
	case v >= b[3]:
		return 5
	case v >= b[2]:
		return 4
	case v >= b[1]:
		return 3
	case v >= b[0]:
		return 2
	default:
		return 1
	}
}

// cohortBreakpoints holds one run's breakpoints for all three metrics.
type cohortBreakpoints struct {
	recency   Breakpoints
	frequency Breakpoints
	monetary  Breakpoints
}

func computeBreakpoints(records []RFMRecord) cohortBreakpoints {
	recency := make([]float64, len(records))
	frequency := make([]float64, len(records))
	monetary := make([]float64, len(records))
	for i, r := range records {
		recency[i] = float64(r.Recency)
		frequency[i] = float64(r.Frequency)
		monetary[i] = r.Monetary
	}
	sort.Float64s(recency)
	sort.Float64s(frequency)
	sort.Float64s(monetary)

	return cohortBreakpoints{
		recency:   quintileBreakpoints(recency),
		frequency: quintileBreakpoints(frequency),
		monetary:  quintileBreakpoints(monetary),
	}
}

// recencyDays counts whole days between the last purchase and the reference
// date, rounding down.
func recencyDays(agg Aggregate, referenceDate time.Time) int {
	if !agg.HasTransactions() {
		return NoPurchaseRecency
	}
	days := float64(referenceDate.Sub(agg.Last)) / float64(24*time.Hour)
	return int(math.Floor(days))
}

// ScoreRFM scores every customer against quintile breakpoints computed over
// the whole cohort and assigns each a segment. An empty cohort yields an empty
// result.
func ScoreRFM(customers []model.Customer, referenceDate time.Time, weights Weights) ([]ScoredCustomer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return []ScoredCustomer{}, nil
	}

	records := make([]RFMRecord, len(customers))
	forEachChunk(len(customers), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			agg := Summarize(&customers[i])
			records[i] = RFMRecord{
				Recency:   recencyDays(agg, referenceDate),
				Frequency: agg.TransactionCount,
				Monetary:  agg.TotalRevenue,
			}
		}
	})

	bp := computeBreakpoints(records)
	totalWeight := weights.R + weights.F + weights.M

	scored := make([]ScoredCustomer, len(customers))
	for i, c := range customers {
		rec := records[i]
		rec.RScore = bp.recency.lowerIsBetter(float64(rec.Recency))
		rec.FScore = bp.frequency.higherIsBetter(float64(rec.Frequency))
		rec.MScore = bp.monetary.higherIsBetter(rec.Monetary)
		rec.Score = (float64(rec.RScore)*weights.R +
			float64(rec.FScore)*weights.F +
			float64(rec.MScore)*weights.M) / totalWeight
		rec.Segment = Classify(rec.RScore, rec.FScore, rec.MScore)

		scored[i] = ScoredCustomer{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
			RFM:   rec,
		}
	}

	return scored, nil
}
