package clv

import (
	"math"
	"time"

	"salesInsight/business/serving"
	"salesInsight/domain"
	"salesInsight/pkg/metrics"
)

// Predict returns the predicted Monetary value for one customer. A nil or
// unusable artifact yields NaN with no error; callers treat NaN as "no
// prediction available".
func Predict(a *Artifact, recency, frequency float64) (float64, error) {
	if err := checkFeature(FeatureNames[0], recency); err != nil {
		return math.NaN(), err
	}
	if err := checkFeature(FeatureNames[1], frequency); err != nil {
		return math.NaN(), err
	}
	if !a.valid() {
		return math.NaN(), nil
	}
	return a.model.predict([featureDim]float64{recency, frequency}), nil
}

func checkFeature(name string, v float64) error {
	if !finite(v) || v < 0 {
		return &domain.InvalidFeatureError{Feature: name, Value: v}
	}
	return nil
}

// Predictor answers queries against whatever artifact the handle currently
// publishes.
type Predictor struct {
	handle *serving.Handle[Artifact]
}

func NewPredictor(handle *serving.Handle[Artifact]) *Predictor {
	return &Predictor{handle: handle}
}

func (p *Predictor) Predict(recency, frequency float64) (domain.CLVPrediction, error) {
	start := time.Now()
	defer func() {
		metrics.CLVPredictLatency.Observe(time.Since(start).Seconds())
	}()

	a := p.handle.Current()
	v, err := Predict(a, recency, frequency)
	if err != nil {
		metrics.CLVPredictions.WithLabelValues("invalid").Inc()
		return domain.CLVPrediction{}, err
	}
	if math.IsNaN(v) {
		metrics.CLVPredictions.WithLabelValues("unavailable").Inc()
		return domain.CLVPrediction{PredictedCLV: v}, nil
	}

	metrics.CLVPredictions.WithLabelValues("ok").Inc()
	return domain.CLVPrediction{PredictedCLV: v, Available: true, ModelVersion: a.Version()}, nil
}
