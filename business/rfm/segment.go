package rfm

import (
	"math"

	"salesInsight/domain"
)

type segmentRule struct {
	minScore int
	segment  domain.Segment
}

// segmentRules is evaluated top to bottom; the first rule whose minScore is
// reached wins. The last rule catches every remaining score.
var segmentRules = []segmentRule{
	{minScore: 10, segment: domain.SegmentVIP},
	{minScore: 8, segment: domain.SegmentLoyal},
	{minScore: 6, segment: domain.SegmentRegular},
	{minScore: math.MinInt, segment: domain.SegmentAtRisk},
}

// SegmentFor maps a composite RFM score to its segment.
func SegmentFor(score int) domain.Segment {
	for _, r := range segmentRules {
		if score >= r.minScore {
			return r.segment
		}
	}
	return domain.SegmentAtRisk
}
