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

// twoMonthCustomer spent 300 over exactly two months of activity.
func twoMonthCustomer() model.Customer {
	return customer("steady",
		txn(daysBefore(refDate, 60), 100),
		txn(daysBefore(refDate, 10), 200),
	)
}

func projectOne(t *testing.T, c model.Customer, params CLVParams) CLVRecord {
	t.Helper()
	valued, err := ProjectCLV([]model.Customer{c}, params)
	require.NoError(t, err)
	require.Len(t, valued, 1)
	return valued[0].CLV
}

// geometricFutureValue sums monthly*q^i for i in [1, months].
func geometricFutureValue(monthly, q float64, months int) float64 {
	return monthly * q * (1 - math.Pow(q, float64(months))) / (1 - q)
}

func TestProjectCLV_DefaultParams(t *testing.T) {
	rec := projectOne(t, twoMonthCustomer(), DefaultCLVParams(refDate))

	assert.InDelta(t, 2.0, rec.MonthsActive, 1e-9)
	assert.InDelta(t, 150.0, rec.AvgMonthlyRevenue, 1e-9)
	assert.InDelta(t, 1.0, rec.PurchaseFrequency, 1e-9)
	assert.InDelta(t, 0.5*150*0.95/0.06, rec.Value, 1e-9)
	assert.InDelta(t, geometricFutureValue(75, 0.95/1.01, 24), rec.FutureValue, 1e-6)

	assert.InDelta(t, 300.0, rec.Raw.TotalRevenue, 1e-9)
	assert.Equal(t, 2, rec.Raw.TransactionCount)
	assert.InDelta(t, 150.0, rec.Raw.AvgTransactionValue, 1e-9)
}

func TestProjectCLV_ZeroChurn(t *testing.T) {
	params := DefaultCLVParams(refDate)
	params.ChurnRate = 0

	rec := projectOne(t, twoMonthCustomer(), params)
	assert.InDelta(t, 0.5*150/0.01, rec.Value, 1e-6)
	assert.InDelta(t, geometricFutureValue(75, 1/1.01, 24), rec.FutureValue, 1e-6)
}

func TestProjectCLV_FullChurn(t *testing.T) {
	params := DefaultCLVParams(refDate)
	params.ChurnRate = 1

	rec := projectOne(t, twoMonthCustomer(), params)
	assert.Zero(t, rec.Value)
	assert.Zero(t, rec.FutureValue)
}

func TestProjectCLV_MonthsActiveHasFloorOfOne(t *testing.T) {
	c := spendingCustomer("recent", daysBefore(refDate, 10), 90)

	rec := projectOne(t, c, DefaultCLVParams(refDate))
	assert.InDelta(t, 1.0, rec.MonthsActive, 1e-9)
	assert.InDelta(t, 90.0, rec.AvgMonthlyRevenue, 1e-9)
}

func TestProjectCLV_AcquisitionCost(t *testing.T) {
	base := DefaultCLVParams(refDate)
	withCost := base
	withCost.AcquisitionCost = 50
	withCost.IncludeAcquisitionCost = true

	plain := projectOne(t, twoMonthCustomer(), base)
	net := projectOne(t, twoMonthCustomer(), withCost)

	assert.InDelta(t, plain.Value-50, net.Value, 1e-9)
	assert.InDelta(t, plain.FutureValue-50, net.FutureValue, 1e-9)

	// A cost that is not included changes nothing.
	withCost.IncludeAcquisitionCost = false
	assert.Equal(t, plain, projectOne(t, twoMonthCustomer(), withCost))
}

func TestProjectCLV_FutureValueGrowsWithHorizon(t *testing.T) {
	params := DefaultCLVParams(refDate)
	previous := -1.0
	for _, months := range []int{0, 1, 6, 12, 24, 60} {
		params.PredictionMonths = months
		rec := projectOne(t, twoMonthCustomer(), params)
		if months == 0 {
			assert.Zero(t, rec.FutureValue)
		}
		assert.Greater(t, rec.FutureValue, previous, "months=%d", months)
		previous = rec.FutureValue
	}
}

func TestProjectCLV_CustomerWithoutTransactions(t *testing.T) {
	rec := projectOne(t, customer("idle"), DefaultCLVParams(refDate))
	assert.Equal(t, CLVRecord{MonthsActive: 1}, rec)
}

func TestProjectCLV_PreservesOrderAndIdentity(t *testing.T) {
	customers := []model.Customer{
		spendingCustomer("b", daysBefore(refDate, 5), 10),
		spendingCustomer("a", daysBefore(refDate, 5), 20),
	}

	valued, err := ProjectCLV(customers, DefaultCLVParams(refDate))
	require.NoError(t, err)
	require.Len(t, valued, 2)
	assert.Equal(t, "b", valued[0].ID)
	assert.Equal(t, "Customer a", valued[1].Name)
	assert.Equal(t, "a@example.com", valued[1].Email)
}

func TestCLVParams_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*CLVParams)
		name    string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*CLVParams) {}},
		{name: "no churn", mutate: func(p *CLVParams) { p.ChurnRate = 0 }},
		{name: "zero months", mutate: func(p *CLVParams) { p.PredictionMonths = 0 }},
		{name: "missing evaluation instant", mutate: func(p *CLVParams) { p.EvaluatedAt = time.Time{} }, wantErr: true},
		{name: "negative churn", mutate: func(p *CLVParams) { p.ChurnRate = -0.1 }, wantErr: true},
		{name: "churn above one", mutate: func(p *CLVParams) { p.ChurnRate = 1.1 }, wantErr: true},
		{name: "discount at minus one", mutate: func(p *CLVParams) { p.DiscountRate = -1 }, wantErr: true},
		{name: "margin above one", mutate: func(p *CLVParams) { p.GrossMargin = 1.5 }, wantErr: true},
		{name: "negative months", mutate: func(p *CLVParams) { p.PredictionMonths = -1 }, wantErr: true},
		{name: "negative acquisition cost", mutate: func(p *CLVParams) { p.AcquisitionCost = -1 }, wantErr: true},
		{name: "nan churn", mutate: func(p *CLVParams) { p.ChurnRate = math.NaN() }, wantErr: true},
		{name: "infinite margin", mutate: func(p *CLVParams) { p.GrossMargin = math.Inf(1) }, wantErr: true},
		{
			name:    "no churn and no discount",
			mutate:  func(p *CLVParams) { p.ChurnRate, p.DiscountRate = 0, 0 },
			wantErr: true,
		},
		{
			name:    "discount cancels churn",
			mutate:  func(p *CLVParams) { p.ChurnRate, p.DiscountRate = 0.25, -0.25 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultCLVParams(refDate)
			tt.mutate(&params)

			err := params.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProjectCLV_RejectsInvalidParams(t *testing.T) {
	params := DefaultCLVParams(refDate)
	params.ChurnRate = 2

	valued, err := ProjectCLV([]model.Customer{twoMonthCustomer()}, params)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Nil(t, valued)
}
