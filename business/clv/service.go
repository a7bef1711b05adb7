package clv

import (
	"context"
	"fmt"
	"time"

	"salesInsight/business/rfm"
	"salesInsight/business/serving"
	"salesInsight/domain"
	"salesInsight/pkg/logger"
	"salesInsight/pkg/metrics"
)

// ArtifactStore keeps every artifact ever saved. Save never overwrites an
// existing version; Latest returns nil when nothing was saved.
type ArtifactStore interface {
	Save(ctx context.Context, a *Artifact) error
	Latest(ctx context.Context) (*Artifact, error)
}

type Service struct {
	store     ArtifactStore
	handle    *serving.Handle[Artifact]
	predictor *Predictor
	now       func() time.Time
}

func NewService(store ArtifactStore) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	s.handle = serving.NewHandle[Artifact]("clv_model", s.LoadLatest)
	s.predictor = NewPredictor(s.handle)
	return s
}

func (s *Service) Handle() *serving.Handle[Artifact] {
	return s.handle
}

func (s *Service) Predictor() *Predictor {
	return s.predictor
}

// LoadLatest reads the newest stored artifact.
func (s *Service) LoadLatest(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if s.store == nil {
		return nil, nil
	}
	a, err := s.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest artifact: %w", err)
	}
	if a != nil {
		recordModelGauges(a)
	}
	return a, nil
}

// TrainAndPublish trains on table, stores the artifact and starts serving
// it. On any failure the previously served artifact stays in place.
func (s *Service) TrainAndPublish(ctx context.Context, table *rfm.Table, opts TrainOptions) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	a, m, err := Train(table, opts)
	if err != nil {
		metrics.CLVTrainingRuns.WithLabelValues("failed").Inc()
		logger.Error("clv training failed",
			"rows", table.Len(),
			"seed", opts.Seed,
			"test_fraction", opts.TestFraction,
			"error", err,
		)
		return nil, err
	}
	a = a.withTrainedAt(s.now().UTC())

	if s.store != nil {
		if err := s.store.Save(ctx, a); err != nil {
			metrics.CLVTrainingRuns.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("save artifact %s: %w", a.Version(), err)
		}
	}

	s.handle.Set(a)
	recordModelGauges(a)
	metrics.CLVTrainingRuns.WithLabelValues("ok").Inc()

	trainRows, testRows := a.Rows()
	logger.Info("clv model published",
		"version", a.Version(),
		"r2", m.R2,
		"rmse", m.RMSE,
		"train_rows", trainRows,
		"test_rows", testRows,
	)
	return a, nil
}

// ModelInfo describes the served artifact.
func (s *Service) ModelInfo(ctx context.Context) (domain.ModelInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.ModelInfo{}, fmt.Errorf("context error: %w", err)
	}
	a := s.handle.Current()
	if a == nil {
		return domain.ModelInfo{}, fmt.Errorf("clv model: %w", domain.ErrNotFound)
	}
	return a.Info(), nil
}

func recordModelGauges(a *Artifact) {
	m := a.Metrics()
	metrics.CLVModelR2.Set(m.R2)
	metrics.CLVModelRMSE.Set(m.RMSE)
}
