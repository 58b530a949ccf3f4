package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentStats(t *testing.T) {
	scored := []ScoredCustomer{
		scoredCustomer("a", 5, 5, 5, 1, 9, 900),
		scoredCustomer("b", 1, 1, 1, 90, 1, 10),
		scoredCustomer("c", 4, 4, 4, 4, 8, 300),
		scoredCustomer("d", 2, 1, 1, 60, 1, 30),
	}

	stats := SegmentStats(scored)
	require.Len(t, stats, 2)

	assert.Equal(t, SegmentChampions, stats[0].Segment)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 1200.0, stats[0].TotalRevenue, 1e-9)
	assert.InDelta(t, 600.0, stats[0].AvgRevenue, 1e-9)
	assert.InDelta(t, 4.5, stats[0].AvgRFMScore, 1e-9)

	require.Len(t, stats[0].TopCustomers, 2)
	assert.Equal(t, "a", stats[0].TopCustomers[0].ID)
	assert.Equal(t, "c", stats[0].TopCustomers[1].ID)

	assert.Equal(t, SegmentHibernating, stats[1].Segment)
	assert.InDelta(t, 20.0, stats[1].AvgRevenue, 1e-9)
	require.Len(t, stats[1].TopCustomers, 2)
	assert.Equal(t, "d", stats[1].TopCustomers[0].ID)
}

func TestSegmentStats_TopCustomersAreCapped(t *testing.T) {
	var scored []ScoredCustomer
	for i := range TopCustomersPerSegment + 5 {
		scored = append(scored, scoredCustomer(fmt.Sprintf("c%02d", i), 5, 5, 5, 1, 9, float64(100+i)))
	}

	stats := SegmentStats(scored)
	require.Len(t, stats, 1)
	assert.Equal(t, TopCustomersPerSegment+5, stats[0].Count)
	assert.Len(t, stats[0].TopCustomers, TopCustomersPerSegment)
}

func TestSegmentStats_Empty(t *testing.T) {
	assert.Empty(t, SegmentStats(nil))
}

func TestTopCustomers(t *testing.T) {
	scored := []ScoredCustomer{
		scoredCustomer("low", 4, 4, 4, 4, 8, 300),
		scoredCustomer("other", 1, 1, 1, 90, 1, 10),
		scoredCustomer("high", 5, 5, 5, 1, 9, 900),
		scoredCustomer("tie", 4, 4, 4, 4, 8, 300),
	}

	top := TopCustomers(scored, SegmentChampions, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].ID)
	assert.Equal(t, "low", top[1].ID)

	assert.Len(t, TopCustomers(scored, SegmentChampions, 10), 3)
	assert.Empty(t, TopCustomers(scored, SegmentAtRisk, 3))
}
