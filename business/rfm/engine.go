package rfm

import (
	"sort"
	"time"

	"salesInsight/domain"
)

const day = 24 * time.Hour

type customerAgg struct {
	customerID int64
	lastOrder  time.Time
	orders     int
	amounts    []float64
}

// SnapshotFor is one day after the latest order date in txs.
func SnapshotFor(txs []domain.Transaction) time.Time {
	var maxDate time.Time
	for i, tx := range txs {
		if i == 0 || tx.OrderDate.After(maxDate) {
			maxDate = tx.OrderDate
		}
	}
	return maxDate.Add(day)
}

// ComputeRFM builds the RFM table for every customer present in txs. The
// snapshot instant is derived from the data, so equal inputs always produce
// equal tables.
func ComputeRFM(txs []domain.Transaction) (*Table, error) {
	if len(txs) == 0 {
		return nil, &domain.EmptyInputError{Stage: "compute_rfm"}
	}

	snapshot := SnapshotFor(txs)

	byCustomer := make(map[int64]*customerAgg)
	for _, tx := range txs {
		agg, ok := byCustomer[tx.CustomerID]
		if !ok {
			agg = &customerAgg{customerID: tx.CustomerID, lastOrder: tx.OrderDate}
			byCustomer[tx.CustomerID] = agg
		}
		if tx.OrderDate.After(agg.lastOrder) {
			agg.lastOrder = tx.OrderDate
		}
		agg.orders++
		agg.amounts = append(agg.amounts, tx.SalesAmount)
	}

	aggs := make([]*customerAgg, 0, len(byCustomer))
	for _, agg := range byCustomer {
		aggs = append(aggs, agg)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].customerID < aggs[j].customerID })

	records := make([]domain.RFMRecord, len(aggs))
	recency := make([]float64, len(aggs))
	frequency := make([]float64, len(aggs))
	monetary := make([]float64, len(aggs))
	for i, agg := range aggs {
		// summing in sorted order keeps Monetary independent of input order
		sort.Float64s(agg.amounts)
		sum := 0.0
		for _, a := range agg.amounts {
			sum += a
		}

		records[i] = domain.RFMRecord{
			CustomerID: agg.customerID,
			Recency:    int(snapshot.Sub(agg.lastOrder) / day),
			Frequency:  agg.orders,
			Monetary:   sum,
		}
		recency[i] = float64(records[i].Recency)
		frequency[i] = float64(records[i].Frequency)
		monetary[i] = sum
	}

	rBins, err := quartileBins(ColRecency, recency)
	if err != nil {
		return nil, err
	}
	fBins, err := quartileBins(ColFrequency, frequency)
	if err != nil {
		return nil, err
	}
	mBins, err := quartileBins(ColMonetary, monetary)
	if err != nil {
		return nil, err
	}

	rScores := scoreBins(rBins, true)
	fScores := scoreBins(fBins, false)
	mScores := scoreBins(mBins, false)

	for i := range records {
		records[i].RScore = rScores[i]
		records[i].FScore = fScores[i]
		records[i].MScore = mScores[i]
		records[i].RFMScore = rScores[i] + fScores[i] + mScores[i]
		records[i].Segment = SegmentFor(records[i].RFMScore)
	}

	return NewTable(snapshot, records)
}
