package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RFMComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rfm_compute_duration_seconds",
		Help:    "Duration of a full RFM table computation",
		Buckets: prometheus.DefBuckets,
	})

	// Customers per segment in the currently published RFM table
	RFMCustomers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rfm_customers",
		Help: "Customers per segment in the published RFM table",
	}, []string{"segment"})

	CLVTrainingRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clv_training_runs_total",
		Help: "CLV training runs by outcome",
	}, []string{"outcome"})

	CLVModelR2 = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clv_model_r2",
		Help: "Held-out R2 of the served CLV model",
	})

	CLVModelRMSE = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clv_model_rmse",
		Help: "Held-out RMSE of the served CLV model",
	})

	CLVPredictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clv_predictions_total",
		Help: "CLV predictions by outcome (ok, invalid, unavailable)",
	}, []string{"outcome"})

	CLVPredictLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "clv_predict_latency_seconds",
		Help:    "Latency of the CLV predict handler",
		Buckets: prometheus.DefBuckets,
	})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RFMComputeDuration,
			RFMCustomers,
			CLVTrainingRuns,
			CLVModelR2,
			CLVModelRMSE,
			CLVPredictions,
			CLVPredictLatency,
		)
	})
}
