package domain

type Segment string

const (
	SegmentVIP     Segment = "VIP"
	SegmentLoyal   Segment = "Loyal"
	SegmentRegular Segment = "Regular"
	SegmentAtRisk  Segment = "At_Risk"
)

// Segments lists every label from best to worst.
var Segments = []Segment{SegmentVIP, SegmentLoyal, SegmentRegular, SegmentAtRisk}

func (s Segment) Valid() bool {
	switch s {
	case SegmentVIP, SegmentLoyal, SegmentRegular, SegmentAtRisk:
		return true
	default:
		return false
	}
}

// RFMRecord is one row of the RFM table.
type RFMRecord struct {
	CustomerID int64   `json:"CustomerID"`
	Recency    int     `json:"Recency"`
	Frequency  int     `json:"Frequency"`
	Monetary   float64 `json:"Monetary"`
	RScore     int     `json:"R_score"`
	FScore     int     `json:"F_score"`
	MScore     int     `json:"M_score"`
	RFMScore   int     `json:"RFM_score"`
	Segment    Segment `json:"Segment"`
}

// RFMSegmentView is the read-only listing shape served by the gateway.
type RFMSegmentView struct {
	CustomerID int64   `json:"CustomerID"`
	Recency    int     `json:"Recency"`
	Frequency  int     `json:"Frequency"`
	Monetary   float64 `json:"Monetary"`
	Segment    Segment `json:"Segment"`
}

func (r RFMRecord) View() RFMSegmentView {
	return RFMSegmentView{
		CustomerID: r.CustomerID,
		Recency:    r.Recency,
		Frequency:  r.Frequency,
		Monetary:   r.Monetary,
		Segment:    r.Segment,
	}
}
