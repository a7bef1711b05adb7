package clv

import (
	"salesInsight/business/rfm"
	"salesInsight/domain"
)

const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
)

type TrainOptions struct {
	TestFraction float64
	Seed         int64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{TestFraction: DefaultTestFraction, Seed: DefaultSeed}
}

// Train fits (Recency, Frequency) -> Monetary on a seeded split of table and
// scores the fit on the held-out rows only. The same table, seed and
// fraction always produce the same artifact.
func Train(table *rfm.Table, opts TrainOptions) (*Artifact, domain.ModelMetrics, error) {
	if err := validateFraction(opts.TestFraction); err != nil {
		return nil, domain.ModelMetrics{}, err
	}

	rows := RowsFromTable(table)
	if len(rows) < MinTrainingRows {
		return nil, domain.ModelMetrics{}, &domain.InsufficientDataError{Rows: len(rows), Required: MinTrainingRows}
	}

	train, test, err := Split(rows, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, domain.ModelMetrics{}, err
	}

	model, err := fitLinear(train)
	if err != nil {
		return nil, domain.ModelMetrics{}, err
	}

	metrics := evaluate(model, test)
	if !finite(metrics.R2) || !finite(metrics.RMSE) {
		return nil, domain.ModelMetrics{}, &domain.ModelFitError{Reason: "non-finite evaluation metrics"}
	}

	return newArtifact(model, metrics, opts, len(train), len(test)), metrics, nil
}

func evaluate(m linearModel, rows []Row) domain.ModelMetrics {
	actual := make([]float64, len(rows))
	predicted := make([]float64, len(rows))
	for i, r := range rows {
		actual[i] = r.Monetary
		predicted[i] = m.predict(r.features())
	}
	return domain.ModelMetrics{
		R2:   r2Score(actual, predicted),
		RMSE: rmse(actual, predicted),
	}
}
