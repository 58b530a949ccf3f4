package analytics

import (
	"sort"

	"github.com/Veraticus/cohortlens/internal/model"
)

// ParetoThreshold is the revenue share the Pareto ratio is measured at.
const ParetoThreshold = 0.8

// CustomerRevenue is one entry of the revenue ranking.
type CustomerRevenue struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

// CurvePoint is a point on the cumulative concentration curve. Both
// coordinates are fractions in [0, 1].
type CurvePoint struct {
	CustomerPercentage float64 `json:"customerPercentage"`
	RevenuePercentage  float64 `json:"revenuePercentage"`
}

// ConcentrationResult describes how revenue is spread across a cohort.
type ConcentrationResult struct {
	CustomerRevenues []CustomerRevenue `json:"customerRevenues"`
	ParetoPoints     []CurvePoint      `json:"paretoPoints"`
	ParetoRatio      float64           `json:"paretoRatio"`
	GiniCoefficient  float64           `json:"giniCoefficient"`
}

// AnalyzeConcentration ranks customers by revenue and derives the Pareto
// ratio and Gini coefficient from the cumulative curve.
//
// The curve is built from customers in descending revenue order, so the Gini
// coefficient is the reflection of the textbook Lorenz-curve value: it is
// negative for unequal cohorts and zero when revenue is evenly spread.
func AnalyzeConcentration(customers []model.Customer) ConcentrationResult {
	if len(customers) == 0 {
		return ConcentrationResult{
			CustomerRevenues: []CustomerRevenue{},
			ParetoPoints:     []CurvePoint{},
		}
	}

	ranked := make([]CustomerRevenue, len(customers))
	for i := range customers {
		ranked[i] = CustomerRevenue{
			ID:      customers[i].ID,
			Name:    customers[i].Name,
			Revenue: Summarize(&customers[i]).TotalRevenue,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue > ranked[j].Revenue
	})

	// Summing in ranked order makes the final cumulative share exactly 1.
	total := 0.0
	for _, r := range ranked {
		total += r.Revenue
	}

	n := float64(len(ranked))
	points := make([]CurvePoint, len(ranked))
	cumulative := 0.0
	for i, r := range ranked {
		cumulative += r.Revenue
		share := 0.0
		if total != 0 {
			share = cumulative / total
		}
		points[i] = CurvePoint{
			CustomerPercentage: float64(i+1) / n,
			RevenuePercentage:  share,
		}
	}

	ratio := 1.0
	for _, p := range points {
		if p.RevenuePercentage >= ParetoThreshold {
			ratio = p.CustomerPercentage
			break
		}
	}

	return ConcentrationResult{
		CustomerRevenues: ranked,
		ParetoPoints:     points,
		ParetoRatio:      ratio,
		GiniCoefficient:  1 - 2*curveArea(points),
	}
}

// curveArea integrates the curve with the trapezoidal rule over equal-width
// steps starting from the origin.
func curveArea(points []CurvePoint) float64 {
	width := 1 / float64(len(points))
	area := 0.0
	previous := 0.0
	for _, p := range points {
		area += width * (p.RevenuePercentage + previous) / 2
		previous = p.RevenuePercentage
	}
	return area
}

// ConcentrationComparison compares two concentration analyses.
type ConcentrationComparison struct {
	RatioChange   float64 `json:"paretoRatioChange"`
	GiniChange    float64 `json:"giniCoefficientChange"`
	CurrentRatio  float64 `json:"currentParetoRatio"`
	PreviousRatio float64 `json:"previousParetoRatio"`
	CurrentGini   float64 `json:"currentGiniCoefficient"`
	PreviousGini  float64 `json:"previousGiniCoefficient"`
}

// CompareConcentration returns the change between two analyses. When either
// side has not been computed the zero comparison is returned.
func CompareConcentration(current, previous *ConcentrationResult) ConcentrationComparison {
	if current == nil || previous == nil {
		return ConcentrationComparison{}
	}
	return ConcentrationComparison{
		RatioChange:   current.ParetoRatio - previous.ParetoRatio,
		GiniChange:    current.GiniCoefficient - previous.GiniCoefficient,
		CurrentRatio:  current.ParetoRatio,
		PreviousRatio: previous.ParetoRatio,
		CurrentGini:   current.GiniCoefficient,
		PreviousGini:  previous.GiniCoefficient,
	}
}
