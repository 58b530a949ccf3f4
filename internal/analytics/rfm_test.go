package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

func TestQuintileBreakpoints(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		want   Breakpoints
	}{
		{name: "empty", sorted: nil, want: Breakpoints{}},
		{name: "single", sorted: []float64{7}, want: Breakpoints{7, 7, 7, 7}},
		{name: "three values", sorted: []float64{1, 2, 3}, want: Breakpoints{1, 1, 1, 2}},
		{name: "five values", sorted: []float64{10, 20, 30, 40, 50}, want: Breakpoints{10, 20, 30, 40}},
		{
			name:   "ten values",
			sorted: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			want:   Breakpoints{2, 4, 6, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quintileBreakpoints(tt.sorted))
		})
	}
}

func TestBreakpoints_Scoring(t *testing.T) {
	bp := Breakpoints{10, 20, 30, 40}

	tests := []struct {
		value  float64
		lower  int
		higher int
	}{
		{value: 5, lower: 5, higher: 1},
		{value: 10, lower: 5, higher: 2},
		{value: 15, lower: 4, higher: 2},
		{value: 20, lower: 4, higher: 3},
		{value: 30, lower: 3, higher: 4},
		{value: 40, lower: 2, higher: 5},
		{value: 99, lower: 1, higher: 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.lower, bp.lowerIsBetter(tt.value), "lowerIsBetter(%v)", tt.value)
		assert.Equal(t, tt.higher, bp.higherIsBetter(tt.value), "higherIsBetter(%v)", tt.value)
	}
}

func TestScoreRFM_EmptyCohort(t *testing.T) {
	scored, err := ScoreRFM(nil, refDate, DefaultWeights())
	require.NoError(t, err)
	assert.NotNil(t, scored)
	assert.Empty(t, scored)
}

func TestScoreRFM_SingleCustomerIsChampion(t *testing.T) {
	customers := []model.Customer{
		spendingCustomer("solo", daysBefore(refDate, 12), 40, 60),
	}

	scored, err := ScoreRFM(customers, refDate, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, scored, 1)

	rec := scored[0].RFM
	assert.Equal(t, 12, rec.Recency)
	assert.Equal(t, 2, rec.Frequency)
	assert.InDelta(t, 100.0, rec.Monetary, 1e-9)
	assert.Equal(t, 5, rec.RScore)
	assert.Equal(t, 5, rec.FScore)
	assert.Equal(t, 5, rec.MScore)
	assert.InDelta(t, 5.0, rec.Score, 1e-9)
	assert.Equal(t, SegmentChampions, rec.Segment)
	assert.Equal(t, "solo@example.com", scored[0].Email)
}

func TestScoreRFM_FiveCustomerCohort(t *testing.T) {
	// Recency 1..5 days, frequency 5..1, monetary 500..100.
	var customers []model.Customer
	for i := 1; i <= 5; i++ {
		amounts := make([]float64, 6-i)
		for j := range amounts {
			amounts[j] = float64(6-i) * 100 / float64(len(amounts))
		}
		customers = append(customers, spendingCustomer(string(rune('a'+i-1)), daysBefore(refDate, i), amounts...))
	}

	scored, err := ScoreRFM(customers, refDate, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, scored, 5)

	wantR := []int{5, 4, 3, 2, 1}
	wantF := []int{5, 5, 4, 3, 2}
	for i, s := range scored {
		assert.Equal(t, i+1, s.RFM.Recency, s.ID)
		assert.Equal(t, wantR[i], s.RFM.RScore, s.ID)
		assert.Equal(t, wantF[i], s.RFM.FScore, s.ID)
		assert.Equal(t, wantF[i], s.RFM.MScore, s.ID)
		assert.Equal(t, Classify(s.RFM.RScore, s.RFM.FScore, s.RFM.MScore), s.RFM.Segment)
		assert.GreaterOrEqual(t, s.RFM.Score, 1.0)
		assert.LessOrEqual(t, s.RFM.Score, 5.0)
	}
	assert.Equal(t, SegmentChampions, scored[0].RFM.Segment)
	assert.Equal(t, SegmentHibernating, scored[4].RFM.Segment)
}

func TestScoreRFM_RecencyFloorsPartialDays(t *testing.T) {
	c := spendingCustomer("a", refDate.Add(-36*time.Hour), 10)
	scored, err := ScoreRFM([]model.Customer{c}, refDate, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, 1, scored[0].RFM.Recency)
}

func TestScoreRFM_CustomerWithoutTransactions(t *testing.T) {
	customers := []model.Customer{
		spendingCustomer("buyer", daysBefore(refDate, 3), 50),
		customer("idle"),
	}

	scored, err := ScoreRFM(customers, refDate, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, scored, 2)

	idle := scored[1].RFM
	assert.Equal(t, NoPurchaseRecency, idle.Recency)
	assert.Equal(t, 0, idle.Frequency)
	assert.Zero(t, idle.Monetary)
	assert.Less(t, idle.RScore, scored[0].RFM.RScore)
}

func TestScoreRFM_WeightedScore(t *testing.T) {
	customers := []model.Customer{
		spendingCustomer("a", daysBefore(refDate, 1), 10),
		spendingCustomer("b", daysBefore(refDate, 50), 10, 10, 10, 10, 10, 10),
	}

	scored, err := ScoreRFM(customers, refDate, Weights{R: 2, F: 1, M: 1})
	require.NoError(t, err)

	for _, s := range scored {
		want := (2*float64(s.RFM.RScore) + float64(s.RFM.FScore) + float64(s.RFM.MScore)) / 4
		assert.InDelta(t, want, s.RFM.Score, 1e-9, s.ID)
	}
}

func TestScoreRFM_LargeCohortMatchesSequential(t *testing.T) {
	customers := make([]model.Customer, parallelThreshold+17)
	for i := range customers {
		customers[i] = spendingCustomer(string(rune(i)), daysBefore(refDate, i%97), float64(i%31+1))
	}

	scored, err := ScoreRFM(customers, refDate, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, scored, len(customers))

	for i := range customers {
		assert.Equal(t, i%97, scored[i].RFM.Recency)
		assert.InDelta(t, float64(i%31+1), scored[i].RFM.Monetary, 1e-9)
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{name: "defaults", weights: DefaultWeights()},
		{name: "recency only", weights: Weights{R: 1}},
		{name: "all zero", weights: Weights{}, wantErr: true},
		{name: "negative", weights: Weights{R: 1, F: -1, M: 1}, wantErr: true},
		{name: "nan", weights: Weights{R: math.NaN(), F: 1, M: 1}, wantErr: true},
		{name: "infinite", weights: Weights{R: 1, F: 1, M: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScoreRFM_InvalidWeights(t *testing.T) {
	_, err := ScoreRFM([]model.Customer{customer("a")}, refDate, Weights{})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
