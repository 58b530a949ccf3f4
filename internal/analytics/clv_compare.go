package analytics

// CLVRawChanges holds raw input deltas for a customer present in both periods.
type CLVRawChanges struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	TransactionCount    int     `json:"transactionCount"`
	AvgTransactionValue float64 `json:"avgTransactionValue"`
}

// CLVChange describes how one customer's lifetime value moved between periods.
type CLVChange struct {
	PercentChange   *float64       `json:"percentChange"`
	RawChanges      *CLVRawChanges `json:"rawChanges,omitempty"`
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	CurrentCLV      float64        `json:"currentCLV"`
	PreviousCLV     float64        `json:"previousCLV"`
	AbsoluteChange  float64        `json:"absoluteChange"`
	RevenueChange   float64        `json:"revenueChange"`
	FrequencyChange float64        `json:"frequencyChange"`
	IsNew           bool           `json:"isNew"`
	IsLost          bool           `json:"isLost"`
}

// ValueChange compares an aggregate value across periods.
type ValueChange struct {
	PercentChange  *float64 `json:"percentChange"`
	Current        float64  `json:"current"`
	Previous       float64  `json:"previous"`
	AbsoluteChange float64  `json:"absoluteChange"`
}

// CountChange compares a count across periods.
type CountChange struct {
	Current  int `json:"current"`
	Previous int `json:"previous"`
	Change   int `json:"change"`
}

// CLVOverall summarizes the cohort-level CLV movement.
type CLVOverall struct {
	TotalCLV      ValueChange `json:"totalCLV"`
	AverageCLV    ValueChange `json:"averageCLV"`
	CustomerCount CountChange `json:"customerCount"`
}

// CLVComparison is the result of comparing two CLV runs.
type CLVComparison struct {
	CustomerChanges []CLVChange `json:"customerChanges"`
	OverallChanges  CLVOverall  `json:"overallChanges"`
}

// lostPercentChange is reported for every lost customer.
const lostPercentChange = -100.0

// CompareCLV matches two CLV runs by customer id and summarizes the totals.
func CompareCLV(current, previous []ValuedCustomer) CLVComparison {
	previousByID := make(map[string]*ValuedCustomer, len(previous))
	for i := range previous {
		previousByID[previous[i].ID] = &previous[i]
	}
	currentIDs := make(map[string]struct{}, len(current))
	for _, c := range current {
		currentIDs[c.ID] = struct{}{}
	}

	changes := make([]CLVChange, 0, len(current))
	for _, cur := range current {
		prev, ok := previousByID[cur.ID]
		if !ok {
			changes = append(changes, CLVChange{
				ID:              cur.ID,
				Name:            cur.Name,
				CurrentCLV:      cur.CLV.Value,
				IsNew:           true,
				AbsoluteChange:  cur.CLV.Value,
				RevenueChange:   cur.CLV.AvgMonthlyRevenue,
				FrequencyChange: cur.CLV.PurchaseFrequency,
			})
			continue
		}

		absolute := cur.CLV.Value - prev.CLV.Value
		changes = append(changes, CLVChange{
			ID:              cur.ID,
			Name:            cur.Name,
			CurrentCLV:      cur.CLV.Value,
			PreviousCLV:     prev.CLV.Value,
			AbsoluteChange:  absolute,
			PercentChange:   percentChange(absolute, prev.CLV.Value),
			RevenueChange:   cur.CLV.AvgMonthlyRevenue - prev.CLV.AvgMonthlyRevenue,
			FrequencyChange: cur.CLV.PurchaseFrequency - prev.CLV.PurchaseFrequency,
			RawChanges: &CLVRawChanges{
				TotalRevenue:        cur.CLV.Raw.TotalRevenue - prev.CLV.Raw.TotalRevenue,
				TransactionCount:    cur.CLV.Raw.TransactionCount - prev.CLV.Raw.TransactionCount,
				AvgTransactionValue: cur.CLV.Raw.AvgTransactionValue - prev.CLV.Raw.AvgTransactionValue,
			},
		})
	}

	for _, prev := range previous {
		if _, ok := currentIDs[prev.ID]; ok {
			continue
		}
		changes = append(changes, CLVChange{
			ID:              prev.ID,
			Name:            prev.Name,
			PreviousCLV:     prev.CLV.Value,
			IsLost:          true,
			AbsoluteChange:  -prev.CLV.Value,
			PercentChange:   ptr(lostPercentChange),
			RevenueChange:   -prev.CLV.AvgMonthlyRevenue,
			FrequencyChange: -prev.CLV.PurchaseFrequency,
		})
	}

	currentTotal := totalCLV(current)
	previousTotal := totalCLV(previous)
	currentAvg := average(currentTotal, len(current))
	previousAvg := average(previousTotal, len(previous))

	return CLVComparison{
		CustomerChanges: changes,
		OverallChanges: CLVOverall{
			TotalCLV: ValueChange{
				Current:        currentTotal,
				Previous:       previousTotal,
				AbsoluteChange: currentTotal - previousTotal,
				PercentChange:  percentChange(currentTotal-previousTotal, previousTotal),
			},
			AverageCLV: ValueChange{
				Current:        currentAvg,
				Previous:       previousAvg,
				AbsoluteChange: currentAvg - previousAvg,
				PercentChange:  percentChange(currentAvg-previousAvg, previousAvg),
			},
			CustomerCount: CountChange{
				Current:  len(current),
				Previous: len(previous),
				Change:   len(current) - len(previous),
			},
		},
	}
}

func totalCLV(valued []ValuedCustomer) float64 {
	total := 0.0
	for _, v := range valued {
		total += v.CLV.Value
	}
	return total
}

func average(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
