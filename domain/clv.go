package domain

import (
	"encoding/json"
	"math"
	"time"
)

// ModelMetrics are computed on the held-out partition only.
type ModelMetrics struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
}

// ModelInfo describes the artifact currently served.
type ModelInfo struct {
	Version      string       `json:"version"`
	Algorithm    string       `json:"algorithm"`
	Metrics      ModelMetrics `json:"metrics"`
	Seed         int64        `json:"seed"`
	TestFraction float64      `json:"test_fraction"`
	TrainRows    int          `json:"train_rows"`
	TestRows     int          `json:"test_rows"`
	TrainedAt    time.Time    `json:"trained_at"`
}

// CLVPrediction carries a NaN value when no model is loaded; Available is
// false in that case.
type CLVPrediction struct {
	PredictedCLV float64 `json:"predicted_clv"`
	Available    bool    `json:"available"`
	ModelVersion string  `json:"model_version,omitempty"`
}

// MarshalJSON writes predicted_clv as null when the value is NaN, since JSON
// has no NaN literal.
func (p CLVPrediction) MarshalJSON() ([]byte, error) {
	type wire struct {
		PredictedCLV *float64 `json:"predicted_clv"`
		Available    bool     `json:"available"`
		ModelVersion string   `json:"model_version,omitempty"`
	}
	w := wire{Available: p.Available, ModelVersion: p.ModelVersion}
	if !math.IsNaN(p.PredictedCLV) && !math.IsInf(p.PredictedCLV, 0) {
		v := p.PredictedCLV
		w.PredictedCLV = &v
	}
	return json.Marshal(w)
}
