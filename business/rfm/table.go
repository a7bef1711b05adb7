package rfm

import (
	"fmt"
	"sort"
	"time"

	"salesInsight/domain"
)

// Column names of the RFM table, in canonical order.
const (
	ColCustomerID = "CustomerID"
	ColRecency    = "Recency"
	ColFrequency  = "Frequency"
	ColMonetary   = "Monetary"
	ColRScore     = "R_score"
	ColFScore     = "F_score"
	ColMScore     = "M_score"
	ColRFMScore   = "RFM_score"
	ColSegment    = "Segment"
)

var columns = []string{
	ColCustomerID, ColRecency, ColFrequency, ColMonetary,
	ColRScore, ColFScore, ColMScore, ColRFMScore, ColSegment,
}

// Table is an immutable RFM table keyed by CustomerID. It is replaced as a
// whole, never edited in place.
type Table struct {
	snapshotAt time.Time
	records    []domain.RFMRecord
	index      map[int64]int
}

// NewTable copies records and orders them by CustomerID.
func NewTable(snapshotAt time.Time, records []domain.RFMRecord) (*Table, error) {
	recs := append([]domain.RFMRecord(nil), records...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].CustomerID < recs[j].CustomerID })

	index := make(map[int64]int, len(recs))
	for i, r := range recs {
		if _, dup := index[r.CustomerID]; dup {
			return nil, fmt.Errorf("duplicate customer %d in rfm table", r.CustomerID)
		}
		index[r.CustomerID] = i
	}

	return &Table{snapshotAt: snapshotAt, records: recs, index: index}, nil
}

func (t *Table) SnapshotAt() time.Time { return t.snapshotAt }

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the rows.
func (t *Table) Records() []domain.RFMRecord {
	if t == nil {
		return nil
	}
	return append([]domain.RFMRecord(nil), t.records...)
}

func (t *Table) Lookup(customerID int64) (domain.RFMRecord, bool) {
	if t == nil {
		return domain.RFMRecord{}, false
	}
	i, ok := t.index[customerID]
	if !ok {
		return domain.RFMRecord{}, false
	}
	return t.records[i], true
}

// Columns returns the canonical column names.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Select projects the table onto exactly the named columns.
func (t *Table) Select(cols ...string) ([]map[string]any, error) {
	for _, c := range cols {
		if _, ok := columnValue(domain.RFMRecord{}, c); !ok {
			return nil, fmt.Errorf("unknown rfm column %q", c)
		}
	}

	out := make([]map[string]any, 0, t.Len())
	if t == nil {
		return out, nil
	}
	for _, r := range t.records {
		row := make(map[string]any, len(cols))
		for _, c := range cols {
			row[c], _ = columnValue(r, c)
		}
		out = append(out, row)
	}
	return out, nil
}

func columnValue(r domain.RFMRecord, col string) (any, bool) {
	switch col {
	case ColCustomerID:
		return r.CustomerID, true
	case ColRecency:
		return r.Recency, true
	case ColFrequency:
		return r.Frequency, true
	case ColMonetary:
		return r.Monetary, true
	case ColRScore:
		return r.RScore, true
	case ColFScore:
		return r.FScore, true
	case ColMScore:
		return r.MScore, true
	case ColRFMScore:
		return r.RFMScore, true
	case ColSegment:
		return r.Segment, true
	default:
		return nil, false
	}
}

// Segments is the gateway listing.
func (t *Table) Segments() []domain.RFMSegmentView {
	out := make([]domain.RFMSegmentView, 0, t.Len())
	if t == nil {
		return out
	}
	for _, r := range t.records {
		out = append(out, r.View())
	}
	return out
}

// SegmentCounts returns the number of customers per segment, with every
// segment present.
func (t *Table) SegmentCounts() map[domain.Segment]int {
	counts := make(map[domain.Segment]int, len(domain.Segments))
	for _, s := range domain.Segments {
		counts[s] = 0
	}
	if t == nil {
		return counts
	}
	for _, r := range t.records {
		counts[r.Segment]++
	}
	return counts
}
