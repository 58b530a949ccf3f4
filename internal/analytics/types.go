package analytics

import (
	"time"

	"github.com/Veraticus/cohortlens/internal/model"
)

// ProgressCallback provides updates during a pipeline run.
type ProgressCallback func(stage string, percent int)

// PeriodResult holds every model computed for one analysis window.
type PeriodResult struct {
	Period        model.Period        `json:"period"`
	RFM           []ScoredCustomer    `json:"rfm"`
	CLV           []ValuedCustomer    `json:"clv"`
	Segments      []SegmentStat       `json:"segments"`
	Concentration ConcentrationResult `json:"concentration"`
	CustomerCount int                 `json:"customerCount"`
	Revenue       float64             `json:"revenue"`
}

// Comparison bundles the three period-over-period comparisons.
type Comparison struct {
	RFM           RFMComparison           `json:"rfm"`
	CLV           CLVComparison           `json:"clv"`
	Concentration ConcentrationComparison `json:"concentration"`
}

// Report contains the complete results of a two-period analysis.
type Report struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	ID          string       `json:"id"`
	Weights     Weights      `json:"weights"`
	CLVParams   CLVParams    `json:"clvParams"`
	Current     PeriodResult `json:"current"`
	Previous    PeriodResult `json:"previous"`
	Comparison  Comparison   `json:"comparison"`
}

// NewCustomers returns the ids of customers that only appear in the current period.
func (r *Report) NewCustomers() []string {
	var ids []string
	for _, c := range r.Comparison.RFM.CustomerChanges {
		if c.IsNew {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// LostCustomers returns the ids of customers that only appear in the previous period.
func (r *Report) LostCustomers() []string {
	var ids []string
	for _, c := range r.Comparison.RFM.CustomerChanges {
		if c.IsLost {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
