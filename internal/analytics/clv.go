package analytics

import (
	"math"
	"time"

	"github.com/Veraticus/cohortlens/internal/common"
	"github.com/Veraticus/cohortlens/internal/model"
)

// daysPerMonth converts elapsed days into months of activity.
const daysPerMonth = 30

// CLVParams configures the lifetime value projection. Rates are monthly.
type CLVParams struct {
	// EvaluatedAt is the instant months of activity are measured up to.
	EvaluatedAt            time.Time `json:"evaluatedAt" mapstructure:"-"`
	ChurnRate              float64   `json:"churnRate" mapstructure:"churn_rate"`
	DiscountRate           float64   `json:"discountRate" mapstructure:"discount_rate"`
	GrossMargin            float64   `json:"grossMargin" mapstructure:"gross_margin"`
	AcquisitionCost        float64   `json:"acquisitionCost" mapstructure:"acquisition_cost"`
	PredictionMonths       int       `json:"predictionMonths" mapstructure:"prediction_months"`
	IncludeAcquisitionCost bool      `json:"includeAcquisitionCost" mapstructure:"include_acquisition_cost"`
}

// DefaultCLVParams returns the standard projection settings evaluated at the
// given instant.
func DefaultCLVParams(evaluatedAt time.Time) CLVParams {
	return CLVParams{
		EvaluatedAt:      evaluatedAt,
		ChurnRate:        0.05,
		DiscountRate:     0.01,
		PredictionMonths: 24,
		GrossMargin:      0.5,
	}
}

// RetentionRate is the monthly probability that a customer keeps buying.
func (p CLVParams) RetentionRate() float64 {
	return 1 - p.ChurnRate
}

// Validate rejects parameter combinations the projection cannot evaluate.
func (p CLVParams) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"churn rate", p.ChurnRate},
		{"discount rate", p.DiscountRate},
		{"gross margin", p.GrossMargin},
		{"acquisition cost", p.AcquisitionCost},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return common.InvalidConfigf("%s must be finite", f.name)
		}
	}
	if p.EvaluatedAt.IsZero() {
		return common.InvalidConfigf("clv evaluation instant is required")
	}
	if p.ChurnRate < 0 || p.ChurnRate > 1 {
		return common.InvalidConfigf("churn rate must be within [0, 1], got %g", p.ChurnRate)
	}
	if p.DiscountRate <= -1 {
		return common.InvalidConfigf("discount rate must be greater than -1, got %g", p.DiscountRate)
	}
	if p.GrossMargin < 0 || p.GrossMargin > 1 {
		return common.InvalidConfigf("gross margin must be within [0, 1], got %g", p.GrossMargin)
	}
	if p.PredictionMonths < 0 {
		return common.InvalidConfigf("prediction months must be non-negative, got %d", p.PredictionMonths)
	}
	if p.AcquisitionCost < 0 {
		return common.InvalidConfigf("acquisition cost must be non-negative, got %g", p.AcquisitionCost)
	}
	if 1+p.DiscountRate-p.RetentionRate() == 0 {
		return common.InvalidConfigf("discount rate %g and churn rate %g leave the lifetime value undefined",
			p.DiscountRate, p.ChurnRate)
	}
	return nil
}

// CLVRaw carries the unprojected inputs of a CLV record.
type CLVRaw struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	TransactionCount    int     `json:"transactionCount"`
	AvgTransactionValue float64 `json:"avgTransactionValue"`
}

// CLVRecord is the lifetime value outcome for one customer.
type CLVRecord struct {
	Raw               CLVRaw  `json:"raw"`
	Value             float64 `json:"value"`
	FutureValue       float64 `json:"futureValue"`
	AvgMonthlyRevenue float64 `json:"avgMonthlyRevenue"`
	PurchaseFrequency float64 `json:"purchaseFrequency"`
	MonthsActive      float64 `json:"monthsActive"`
}

// ValuedCustomer pairs a customer identity with its CLV record.
type ValuedCustomer struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	CLV   CLVRecord `json:"clv"`
}

// ProjectCLV estimates lifetime value for every customer. Customers without
// transactions get a zero value.
func ProjectCLV(customers []model.Customer, params CLVParams) ([]ValuedCustomer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	valued := make([]ValuedCustomer, len(customers))
	forEachChunk(len(customers), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			c := &customers[i]
			valued[i] = ValuedCustomer{
				ID:    c.ID,
				Name:  c.Name,
				Email: c.Email,
				CLV:   projectCustomer(Summarize(c), params),
			}
		}
	})

	return valued, nil
}

func projectCustomer(agg Aggregate, p CLVParams) CLVRecord {
	if !agg.HasTransactions() {
		return CLVRecord{MonthsActive: 1}
	}

	elapsedDays := float64(p.EvaluatedAt.Sub(agg.First)) / float64(24*time.Hour)
	monthsActive := math.Max(1, elapsedDays/daysPerMonth)
	avgMonthlyRevenue := agg.TotalRevenue / monthsActive
	retention := p.RetentionRate()

	value := p.GrossMargin * avgMonthlyRevenue * retention / (1 + p.DiscountRate - retention)

	futureValue := 0.0
	cumulativeRetention := 1.0
	cumulativeDiscount := 1.0
	for i := 0; i < p.PredictionMonths; i++ {
		cumulativeRetention *= retention
		cumulativeDiscount *= 1 / (1 + p.DiscountRate)
		futureValue += avgMonthlyRevenue * p.GrossMargin * cumulativeRetention * cumulativeDiscount
	}

	if p.IncludeAcquisitionCost {
		value -= p.AcquisitionCost
		futureValue -= p.AcquisitionCost
	}

	return CLVRecord{
		Value:             value,
		FutureValue:       futureValue,
		AvgMonthlyRevenue: avgMonthlyRevenue,
		PurchaseFrequency: float64(agg.TransactionCount) / monthsActive,
		MonthsActive:      monthsActive,
		Raw: CLVRaw{
			TotalRevenue:        agg.TotalRevenue,
			TransactionCount:    agg.TransactionCount,
			AvgTransactionValue: agg.TotalRevenue / float64(agg.TransactionCount),
		},
	}
}
