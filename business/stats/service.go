package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesInsight/domain"
	"salesInsight/pkg/logger"
)

type SalesRepository interface {
	FindAllTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Cache stores the last computed summary. GetSummary returns an error
// wrapping domain.ErrNotFound on a miss.
type Cache interface {
	GetSummary(ctx context.Context) (*domain.SalesSummary, error)
	SetSummary(ctx context.Context, summary domain.SalesSummary, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	salesRepo SalesRepository
	cache     Cache
	ttl       time.Duration
}

// NewService builds the summary service; cache may be nil.
func NewService(salesRepo SalesRepository, cache Cache, ttl time.Duration) *Service {
	return &Service{
		salesRepo: salesRepo,
		cache:     cache,
		ttl:       ttl,
	}
}

func (s *Service) Summary(ctx context.Context) (domain.SalesSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.SalesSummary{}, fmt.Errorf("context error: %w", err)
	}

	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx)
		switch {
		case err == nil && cached != nil:
			return *cached, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			logger.Warn("stats cache read failed", "error", err)
		}
	}

	txs, err := s.salesRepo.FindAllTransactions(ctx)
	if err != nil {
		return domain.SalesSummary{}, fmt.Errorf("load transactions: %w", err)
	}
	summary := Summarize(txs)

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, summary, s.ttl); err != nil {
			logger.Warn("stats cache write failed", "error", err)
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary after the Sales Store changed.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}
