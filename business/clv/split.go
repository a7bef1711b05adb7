package clv

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"salesInsight/business/rfm"
	"salesInsight/domain"
)

const (
	// MinTrainingRows is the smallest table Train accepts.
	MinTrainingRows = 10
	minTrainRows    = featureDim + 1
)

// Row is one training example.
type Row struct {
	CustomerID int64
	Recency    float64
	Frequency  float64
	Monetary   float64
}

func (r Row) features() [featureDim]float64 {
	return [featureDim]float64{r.Recency, r.Frequency}
}

// RowsFromTable extracts (Recency, Frequency) -> Monetary examples.
func RowsFromTable(table *rfm.Table) []Row {
	recs := table.Records()
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, Row{
			CustomerID: r.CustomerID,
			Recency:    float64(r.Recency),
			Frequency:  float64(r.Frequency),
			Monetary:   r.Monetary,
		})
	}
	return rows
}

// Split partitions rows into disjoint train and test sets. The result only
// depends on the set of rows, the fraction and the seed.
func Split(rows []Row, testFraction float64, seed int64) (train, test []Row, err error) {
	if err := validateFraction(testFraction); err != nil {
		return nil, nil, err
	}

	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CustomerID < sorted[j].CustomerID })

	n := len(sorted)
	testN := int(math.Ceil(float64(n)*testFraction - 1e-9))
	if testN < 1 || n-testN < minTrainRows {
		return nil, nil, &domain.InsufficientDataError{
			Rows:     n,
			Required: MinTrainingRows,
			Detail:   fmt.Sprintf("split %.2f gives %d train / %d test rows, need >= %d train and >= 1 test", testFraction, n-testN, testN, minTrainRows),
		}
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = make([]Row, 0, testN)
	train = make([]Row, 0, n-testN)
	for i, idx := range perm {
		if i < testN {
			test = append(test, sorted[idx])
		} else {
			train = append(train, sorted[idx])
		}
	}
	return train, test, nil
}

func validateFraction(f float64) error {
	if !finite(f) || f <= 0 || f >= 1 {
		return fmt.Errorf("%w: test fraction must be in (0,1), got %v", domain.ErrInvalidTrainOptions, f)
	}
	return nil
}
