// Package refresh recomputes the RFM table and retrains the CLV model from
// the Sales Store, either on demand or on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"time"

	"salesInsight/business/clv"
	"salesInsight/business/rfm"
	"salesInsight/pkg/logger"
)

type TableRebuilder interface {
	Rebuild(ctx context.Context) (*rfm.Table, error)
}

type ModelTrainer interface {
	TrainAndPublish(ctx context.Context, table *rfm.Table, opts clv.TrainOptions) (*clv.Artifact, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Result summarizes one successful run.
type Result struct {
	Customers    int
	ModelVersion string
	Duration     time.Duration
}

type Job struct {
	tables  TableRebuilder
	models  ModelTrainer
	caches  []CacheInvalidator
	opts    clv.TrainOptions
	timeout time.Duration
}

// NewJob wires a refresh run. timeout <= 0 means the caller's context is the
// only bound.
func NewJob(tables TableRebuilder, models ModelTrainer, opts clv.TrainOptions, timeout time.Duration, caches ...CacheInvalidator) *Job {
	return &Job{
		tables:  tables,
		models:  models,
		caches:  caches,
		opts:    opts,
		timeout: timeout,
	}
}

// Run rebuilds the RFM table and then trains on it. A failing stage aborts
// the run; whatever was published before stays served.
func (j *Job) Run(ctx context.Context) (Result, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	start := time.Now()

	table, err := j.tables.Rebuild(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("refresh rfm table: %w", err)
	}

	for _, c := range j.caches {
		if err := c.Invalidate(ctx); err != nil {
			logger.Warn("cache invalidation failed", "error", err)
		}
	}

	artifact, err := j.models.TrainAndPublish(ctx, table, j.opts)
	if err != nil {
		return Result{Customers: table.Len()}, fmt.Errorf("refresh clv model: %w", err)
	}

	res := Result{
		Customers:    table.Len(),
		ModelVersion: artifact.Version(),
		Duration:     time.Since(start),
	}
	logger.Info("refresh completed",
		"customers", res.Customers,
		"model_version", res.ModelVersion,
		"duration", res.Duration.String(),
	)
	return res, nil
}
