package analytics

import "sort"

// TopCustomersPerSegment caps SegmentStat.TopCustomers.
const TopCustomersPerSegment = 10

// SegmentStat summarizes the customers of one segment.
type SegmentStat struct {
	Segment      Segment          `json:"segment"`
	TopCustomers []ScoredCustomer `json:"topCustomers"`
	Count        int              `json:"count"`
	TotalRevenue float64          `json:"totalRevenue"`
	AvgRevenue   float64          `json:"avgRevenue"`
	AvgRFMScore  float64          `json:"avgRFMScore"`
}

// SegmentStats aggregates revenue and score per populated segment, largest
// revenue first. Revenue is the customer's monetary value. Each stat carries
// the segment's best customers by composite score.
func SegmentStats(scored []ScoredCustomer) []SegmentStat {
	bySegment := make(map[Segment]*SegmentStat)
	var order []Segment

	for _, c := range scored {
		stat, ok := bySegment[c.RFM.Segment]
		if !ok {
			stat = &SegmentStat{Segment: c.RFM.Segment}
			bySegment[c.RFM.Segment] = stat
			order = append(order, c.RFM.Segment)
		}
		stat.Count++
		stat.TotalRevenue += c.RFM.Monetary
		stat.AvgRFMScore += c.RFM.Score
	}

	stats := make([]SegmentStat, 0, len(order))
	for _, seg := range order {
		stat := bySegment[seg]
		stat.AvgRevenue = stat.TotalRevenue / float64(stat.Count)
		stat.AvgRFMScore /= float64(stat.Count)
		stat.TopCustomers = TopCustomers(scored, seg, TopCustomersPerSegment)
		stats = append(stats, *stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalRevenue > stats[j].TotalRevenue
	})
	return stats
}

// TopCustomers returns up to n customers of a segment with the highest
// composite score. Ties keep input order.
func TopCustomers(scored []ScoredCustomer, segment Segment, n int) []ScoredCustomer {
	var members []ScoredCustomer
	for _, c := range scored {
		if c.RFM.Segment == segment {
			members = append(members, c)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].RFM.Score > members[j].RFM.Score
	})
	if n >= 0 && len(members) > n {
		members = members[:n]
	}
	return members
}
