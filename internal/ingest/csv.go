// Package ingest extracts sales transactions from the raw AdventureWorks CSV
// export and drops rows that cannot be scored.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"salesInsight/domain"
)

const (
	colCustomerID  = "CustomerID"
	colOrderDate   = "OrderDate"
	colSalesAmount = "SalesAmount"
	colProductKey  = "ProductKey"
	colTerritory   = "Territory"
)

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"1/2/2006",
	"1/2/2006 15:04",
	time.RFC3339,
}

// Stats counts what happened to each input row.
type Stats struct {
	Rows            int
	Loaded          int
	MissingCustomer int
	BadOrderDate    int
	BadSalesAmount  int
}

func (s Stats) Dropped() int {
	return s.Rows - s.Loaded
}

// ReadCSV parses a header-driven CSV. CustomerID, OrderDate and SalesAmount
// are required columns; ProductKey and Territory are optional. Rows with an
// empty or unparsable required value, or a negative amount, are dropped and
// counted, never defaulted.
func ReadCSV(r io.Reader) ([]domain.Transaction, Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, &domain.EmptyInputError{Stage: "ingest"}
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{colCustomerID, colOrderDate, colSalesAmount} {
		if _, ok := idx[required]; !ok {
			return nil, stats, fmt.Errorf("csv header is missing column %q", required)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []domain.Transaction
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read csv line %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		customerID, ok := parseCustomerID(field(rec, colCustomerID))
		if !ok {
			stats.MissingCustomer++
			continue
		}
		orderDate, ok := parseDate(field(rec, colOrderDate))
		if !ok {
			stats.BadOrderDate++
			continue
		}
		amount, err := strconv.ParseFloat(field(rec, colSalesAmount), 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			stats.BadSalesAmount++
			continue
		}

		tx := domain.Transaction{
			CustomerID:  customerID,
			OrderDate:   orderDate,
			SalesAmount: amount,
			Territory:   field(rec, colTerritory),
		}
		if pk, err := strconv.ParseInt(field(rec, colProductKey), 10, 64); err == nil {
			tx.ProductKey = pk
		}
		out = append(out, tx)
		stats.Loaded++
	}

	return out, stats, nil
}

// parseCustomerID accepts integral values written as floats ("11000.0"),
// which is how the export encodes ids on rows that had nulls elsewhere.
func parseCustomerID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
