package analytics

// Segment is a named RFM behavioural bucket.
type Segment string

// Canonical segments, in priority order.
const (
	SegmentChampions          Segment = "Champions"
	SegmentLoyalCustomers     Segment = "Loyal Customers"
	SegmentPotentialLoyalists Segment = "Potential Loyalists"
	SegmentNewCustomers       Segment = "New Customers"
	SegmentPromising          Segment = "Promising"
	SegmentAtRisk             Segment = "At Risk"
	SegmentCantLoseThem       Segment = "Can't Lose Them"
	SegmentHibernating        Segment = "Hibernating"
	SegmentAboutToSleep       Segment = "About to Sleep"
)

// Pseudo segments used only in period comparisons. They never appear in the
// migration matrix.
const (
	SegmentNew  Segment = "New"
	SegmentLost Segment = "Lost"
)

// segmentCount is the number of canonical segments.
const segmentCount = 9

// Segments lists the canonical segments in a fixed order.
var Segments = [segmentCount]Segment{
	SegmentChampions,
	SegmentLoyalCustomers,
	SegmentPotentialLoyalists,
	SegmentNewCustomers,
	SegmentPromising,
	SegmentAtRisk,
	SegmentCantLoseThem,
	SegmentHibernating,
	SegmentAboutToSleep,
}

// Index returns the position of s in Segments.
func (s Segment) Index() (int, bool) {
	for i, seg := range Segments {
		if seg == s {
			return i, true
		}
	}
	return -1, false
}

// IsCanonical reports whether s is one of the nine scored segments.
func (s Segment) IsCanonical() bool {
	_, ok := s.Index()
	return ok
}

type segmentRule struct {
	matches func(r, f, m int) bool
	segment Segment
}

// segmentRules is evaluated top-down; the first matching rule wins.
var segmentRules = []segmentRule{
	{segment: SegmentChampions, matches: func(r, f, _ int) bool { return r >= 4 && f >= 4 }},
	{segment: SegmentLoyalCustomers, matches: func(r, f, _ int) bool { return r >= 2 && f >= 4 }},
	{segment: SegmentPotentialLoyalists, matches: func(r, f, _ int) bool { return r >= 3 && f >= 3 }},
	{segment: SegmentNewCustomers, matches: func(r, f, _ int) bool { return r >= 4 && f <= 2 }},
	{segment: SegmentPromising, matches: func(r, f, _ int) bool { return r >= 3 && f <= 2 }},
	{segment: SegmentAtRisk, matches: func(r, f, _ int) bool { return r <= 2 && f >= 3 }},
	{segment: SegmentCantLoseThem, matches: func(r, f, m int) bool { return r <= 2 && f <= 2 && m >= 3 }},
	{segment: SegmentHibernating, matches: func(r, f, _ int) bool { return r <= 2 && f <= 2 }},
}

// Classify maps an (r, f, m) score triple to its segment. It depends on
// nothing but the scores.
func Classify(r, f, m int) Segment {
	for _, rule := range segmentRules {
		if rule.matches(r, f, m) {
			return rule.segment
		}
	}
	return SegmentAboutToSleep
}
