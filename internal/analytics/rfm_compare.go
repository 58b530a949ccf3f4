package analytics

import (
	"encoding/json"
	"sort"
)

// RFMRawChanges holds raw metric deltas for a customer present in both
// periods. Recency is previous minus current, so a positive value means the
// customer purchased more recently.
type RFMRawChanges struct {
	Recency   int     `json:"recency"`
	Frequency int     `json:"frequency"`
	Monetary  float64 `json:"monetary"`
}

// RFMChange describes how one customer moved between two periods. Score
// deltas are nil for new customers, who have no baseline.
type RFMChange struct {
	RChange         *int           `json:"rChange"`
	FChange         *int           `json:"fChange"`
	MChange         *int           `json:"mChange"`
	ScoreChange     *float64       `json:"scoreChange"`
	RawChanges      *RFMRawChanges `json:"rawChanges,omitempty"`
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	CurrentSegment  Segment        `json:"currentSegment"`
	PreviousSegment Segment        `json:"previousSegment"`
	IsNew           bool           `json:"isNew"`
	IsLost          bool           `json:"isLost"`
}

// SegmentChange compares a segment's size across the two periods.
// PercentChange is nil when the segment was empty in the previous period.
type SegmentChange struct {
	PercentChange *float64 `json:"percentChange"`
	Segment       Segment  `json:"segment"`
	Current       int      `json:"current"`
	Previous      int      `json:"previous"`
	Change        int      `json:"change"`
}

// Migration is one non-empty cell of a migration matrix.
type Migration struct {
	From  Segment `json:"from"`
	To    Segment `json:"to"`
	Count int     `json:"count"`
}

// MigrationMatrix counts customers moving from a previous segment (row) to a
// current segment (column). Only canonical segments have cells.
type MigrationMatrix struct {
	counts [segmentCount][segmentCount]int
}

// Add records one customer moving from one segment to another. Non-canonical
// segments are ignored.
func (m *MigrationMatrix) Add(from, to Segment) {
	i, okFrom := from.Index()
	j, okTo := to.Index()
	if !okFrom || !okTo {
		return
	}
	m.counts[i][j]++
}

// Count returns the number of customers that moved from one segment to another.
func (m *MigrationMatrix) Count(from, to Segment) int {
	i, okFrom := from.Index()
	j, okTo := to.Index()
	if !okFrom || !okTo {
		return 0
	}
	return m.counts[i][j]
}

// Total returns the number of customers recorded in the matrix.
func (m *MigrationMatrix) Total() int {
	total := 0
	for i := range m.counts {
		for j := range m.counts[i] {
			total += m.counts[i][j]
		}
	}
	return total
}

// Migrations lists every cell where the segment changed, largest first.
// Ties keep canonical row-major order.
func (m *MigrationMatrix) Migrations() []Migration {
	var out []Migration
	for i, from := range Segments {
		for j, to := range Segments {
			if i == j || m.counts[i][j] == 0 {
				continue
			}
			out = append(out, Migration{From: from, To: to, Count: m.counts[i][j]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Count > out[b].Count
	})
	return out
}

// MarshalJSON encodes the matrix as a nested object keyed by segment name.
func (m MigrationMatrix) MarshalJSON() ([]byte, error) {
	nested := make(map[Segment]map[Segment]int, segmentCount)
	for i, from := range Segments {
		row := make(map[Segment]int, segmentCount)
		for j, to := range Segments {
			row[to] = m.counts[i][j]
		}
		nested[from] = row
	}
	return json.Marshal(nested)
}

// UnmarshalJSON decodes the nested object produced by MarshalJSON. Rows and
// columns naming non-canonical segments are ignored.
func (m *MigrationMatrix) UnmarshalJSON(data []byte) error {
	var nested map[Segment]map[Segment]int
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	*m = MigrationMatrix{}
	for from, row := range nested {
		i, ok := from.Index()
		if !ok {
			continue
		}
		for to, count := range row {
			if j, ok := to.Index(); ok {
				m.counts[i][j] = count
			}
		}
	}
	return nil
}

// RFMComparison is the result of comparing two RFM runs.
type RFMComparison struct {
	CurrentSegmentCounts  map[Segment]int `json:"currentSegmentCounts"`
	PreviousSegmentCounts map[Segment]int `json:"previousSegmentCounts"`
	CustomerChanges       []RFMChange     `json:"customerChanges"`
	SegmentChanges        []SegmentChange `json:"segmentChanges"`
	SegmentMigration      MigrationMatrix `json:"segmentMigration"`
}

// CompareRFM matches two scored cohorts by customer id. Customers only in the
// current cohort are reported as new, customers only in the previous cohort as
// lost. Current customers come first in input order, followed by lost
// customers in previous input order.
func CompareRFM(current, previous []ScoredCustomer) RFMComparison {
	previousByID := make(map[string]*ScoredCustomer, len(previous))
	for i := range previous {
		previousByID[previous[i].ID] = &previous[i]
	}
	currentIDs := make(map[string]struct{}, len(current))
	for _, c := range current {
		currentIDs[c.ID] = struct{}{}
	}

	var cmp RFMComparison
	cmp.CustomerChanges = make([]RFMChange, 0, len(current))

	for _, cur := range current {
		prev, ok := previousByID[cur.ID]
		if !ok {
			cmp.CustomerChanges = append(cmp.CustomerChanges, RFMChange{
				ID:              cur.ID,
				Name:            cur.Name,
				CurrentSegment:  cur.RFM.Segment,
				PreviousSegment: SegmentNew,
				IsNew:           true,
			})
			continue
		}

		cmp.SegmentMigration.Add(prev.RFM.Segment, cur.RFM.Segment)
		cmp.CustomerChanges = append(cmp.CustomerChanges, RFMChange{
			ID:              cur.ID,
			Name:            cur.Name,
			CurrentSegment:  cur.RFM.Segment,
			PreviousSegment: prev.RFM.Segment,
			RChange:         ptr(cur.RFM.RScore - prev.RFM.RScore),
			FChange:         ptr(cur.RFM.FScore - prev.RFM.FScore),
			MChange:         ptr(cur.RFM.MScore - prev.RFM.MScore),
			ScoreChange:     ptr(cur.RFM.Score - prev.RFM.Score),
			RawChanges: &RFMRawChanges{
				Recency:   prev.RFM.Recency - cur.RFM.Recency,
				Frequency: cur.RFM.Frequency - prev.RFM.Frequency,
				Monetary:  cur.RFM.Monetary - prev.RFM.Monetary,
			},
		})
	}

	for _, prev := range previous {
		if _, ok := currentIDs[prev.ID]; ok {
			continue
		}
		cmp.CustomerChanges = append(cmp.CustomerChanges, RFMChange{
			ID:              prev.ID,
			Name:            prev.Name,
			CurrentSegment:  SegmentLost,
			PreviousSegment: prev.RFM.Segment,
			IsLost:          true,
			RChange:         ptr(-prev.RFM.RScore),
			FChange:         ptr(-prev.RFM.FScore),
			MChange:         ptr(-prev.RFM.MScore),
			ScoreChange:     ptr(-prev.RFM.Score),
		})
	}

	cmp.CurrentSegmentCounts = countSegments(current)
	cmp.PreviousSegmentCounts = countSegments(previous)
	cmp.SegmentChanges = make([]SegmentChange, 0, segmentCount)
	for _, seg := range Segments {
		cur := cmp.CurrentSegmentCounts[seg]
		prev := cmp.PreviousSegmentCounts[seg]
		cmp.SegmentChanges = append(cmp.SegmentChanges, SegmentChange{
			Segment:       seg,
			Current:       cur,
			Previous:      prev,
			Change:        cur - prev,
			PercentChange: percentChange(float64(cur-prev), float64(prev)),
		})
	}

	return cmp
}

// countSegments returns the size of every canonical segment, zeros included.
func countSegments(scored []ScoredCustomer) map[Segment]int {
	counts := make(map[Segment]int, segmentCount)
	for _, seg := range Segments {
		counts[seg] = 0
	}
	for _, c := range scored {
		if c.RFM.Segment.IsCanonical() {
			counts[c.RFM.Segment]++
		}
	}
	return counts
}
