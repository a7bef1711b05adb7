//go:build !integration

package rfm

import (
	"testing"
	"time"

	"salesInsight/domain"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(anchor, []domain.RFMRecord{
		{CustomerID: 3, Recency: 5, Frequency: 2, Monetary: 20, RScore: 2, FScore: 2, MScore: 2, RFMScore: 6, Segment: domain.SegmentRegular},
		{CustomerID: 1, Recency: 1, Frequency: 9, Monetary: 900, RScore: 4, FScore: 4, MScore: 4, RFMScore: 12, Segment: domain.SegmentVIP},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestNewTableOrdersByCustomer(t *testing.T) {
	table := sampleTable(t)
	recs := table.Records()
	if recs[0].CustomerID != 1 || recs[1].CustomerID != 3 {
		t.Fatalf("records not ordered by CustomerID: %+v", recs)
	}

	recs[0].Segment = domain.SegmentAtRisk
	if rec, _ := table.Lookup(1); rec.Segment != domain.SegmentVIP {
		t.Fatalf("Records must return a copy")
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable(time.Time{}, []domain.RFMRecord{{CustomerID: 1}, {CustomerID: 1}})
	if err == nil {
		t.Fatalf("NewTable: expected duplicate error")
	}
}

func TestTableSelect(t *testing.T) {
	table := sampleTable(t)

	rows, err := table.Select(ColCustomerID, ColSegment)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	if len(rows[0]) != 2 {
		t.Fatalf("columns: want exactly 2, got %v", rows[0])
	}
	if rows[0][ColCustomerID] != int64(1) || rows[0][ColSegment] != domain.SegmentVIP {
		t.Fatalf("unexpected first row: %v", rows[0])
	}

	if _, err := table.Select("Churn"); err == nil {
		t.Fatalf("Select: expected error for unknown column")
	}

	all, err := table.Select(Columns()...)
	if err != nil {
		t.Fatalf("Select(all): %v", err)
	}
	if len(all[1]) != len(Columns()) {
		t.Fatalf("Select(all): want %d columns, got %d", len(Columns()), len(all[1]))
	}
}

func TestTableSegmentsAndCounts(t *testing.T) {
	table := sampleTable(t)

	views := table.Segments()
	if len(views) != 2 || views[1].CustomerID != 3 || views[1].Segment != domain.SegmentRegular {
		t.Fatalf("unexpected views: %+v", views)
	}

	counts := table.SegmentCounts()
	if counts[domain.SegmentVIP] != 1 || counts[domain.SegmentRegular] != 1 || counts[domain.SegmentLoyal] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if _, ok := counts[domain.SegmentAtRisk]; !ok {
		t.Fatalf("counts must list every segment")
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var table *Table
	if table.Len() != 0 {
		t.Fatalf("nil table Len: want 0")
	}
	if views := table.Segments(); views == nil || len(views) != 0 {
		t.Fatalf("nil table Segments: want empty non-nil slice, got %v", views)
	}
	if _, ok := table.Lookup(1); ok {
		t.Fatalf("nil table Lookup: want miss")
	}
	rows, err := table.Select(ColCustomerID)
	if err != nil || len(rows) != 0 {
		t.Fatalf("nil table Select: want empty, got %v %v", rows, err)
	}
}
