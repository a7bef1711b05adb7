package report

import (
	"math"
	"sort"
	"strconv"

	"salesInsight/domain"
)

// Bar is one labelled value of a chart.
type Bar struct {
	Label string
	Value float64
}

// SalesByYear sums SalesAmount per calendar year, oldest first.
func SalesByYear(txs []domain.Transaction) []Bar {
	totals := make(map[int]float64)
	for _, tx := range txs {
		totals[tx.OrderDate.Year()] += tx.SalesAmount
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]Bar, 0, len(years))
	for _, y := range years {
		out = append(out, Bar{Label: strconv.Itoa(y), Value: totals[y]})
	}
	return out
}

// SalesByTerritory sums SalesAmount per territory, largest first. Rows
// without a territory are skipped.
func SalesByTerritory(txs []domain.Transaction) []Bar {
	totals := make(map[string]float64)
	for _, tx := range txs {
		if tx.Territory == "" {
			continue
		}
		totals[tx.Territory] += tx.SalesAmount
	}

	out := make([]Bar, 0, len(totals))
	for t, v := range totals {
		out = append(out, Bar{Label: t, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// FrequencyDistribution histograms the number of orders per customer into
// equal-width bins spanning [min, max]; the last bin includes max.
func FrequencyDistribution(txs []domain.Transaction, bins int) []Bar {
	if bins < 1 || len(txs) == 0 {
		return nil
	}

	perCustomer := make(map[int64]int)
	for _, tx := range txs {
		perCustomer[tx.CustomerID]++
	}

	lo, hi := math.MaxInt, 0
	for _, n := range perCustomer {
		lo = min(lo, n)
		hi = max(hi, n)
	}

	width := float64(hi-lo) / float64(bins)
	if width == 0 {
		// numpy widens a zero range to [v-0.5, v+0.5]
		width = 1.0 / float64(bins)
	}
	start := float64(lo)
	if hi == lo {
		start = float64(lo) - 0.5
	}

	counts := make([]float64, bins)
	for _, n := range perCustomer {
		i := int((float64(n) - start) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	out := make([]Bar, bins)
	for i := 0; i < bins; i++ {
		out[i] = Bar{
			Label: strconv.FormatFloat(start+float64(i)*width, 'f', 1, 64),
			Value: counts[i],
		}
	}
	return out
}
