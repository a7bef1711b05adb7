package stats

import (
	"sort"

	"salesInsight/domain"
)

// Summarize computes revenue, distinct customers and the best selling
// territory and product. Ties go to the smallest key. Transactions without a
// territory or product key do not compete for the top spot.
func Summarize(txs []domain.Transaction) domain.SalesSummary {
	var out domain.SalesSummary

	customers := make(map[int64]struct{})
	byTerritory := make(map[string]float64)
	byProduct := make(map[int64]float64)
	amounts := make([]float64, 0, len(txs))

	for _, tx := range txs {
		amounts = append(amounts, tx.SalesAmount)
		customers[tx.CustomerID] = struct{}{}
		if tx.Territory != "" {
			byTerritory[tx.Territory] += tx.SalesAmount
		}
		if tx.ProductKey != 0 {
			byProduct[tx.ProductKey] += tx.SalesAmount
		}
	}

	sort.Float64s(amounts)
	for _, a := range amounts {
		out.TotalRevenue += a
	}
	out.TotalCustomers = len(customers)

	if len(byTerritory) > 0 {
		keys := make([]string, 0, len(byTerritory))
		for k := range byTerritory {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		best := keys[0]
		for _, k := range keys[1:] {
			if byTerritory[k] > byTerritory[best] {
				best = k
			}
		}
		out.TopTerritory = &best
	}

	if len(byProduct) > 0 {
		keys := make([]int64, 0, len(byProduct))
		for k := range byProduct {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		best := keys[0]
		for _, k := range keys[1:] {
			if byProduct[k] > byProduct[best] {
				best = k
			}
		}
		out.TopProduct = &best
	}

	return out
}
