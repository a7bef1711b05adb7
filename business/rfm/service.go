package rfm

import (
	"context"
	"fmt"
	"time"

	"salesInsight/business/serving"
	"salesInsight/domain"
	"salesInsight/pkg/logger"
	"salesInsight/pkg/metrics"
)

// SalesRepository is the read side of the Sales Store.
type SalesRepository interface {
	FindAllTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// TableRepository persists the RFM table as a unit.
type TableRepository interface {
	ReplaceTable(ctx context.Context, table *Table) error
	LoadTable(ctx context.Context) (*Table, error)
}

type Service struct {
	salesRepo SalesRepository
	tableRepo TableRepository
	handle    *serving.Handle[Table]
}

func NewService(salesRepo SalesRepository, tableRepo TableRepository) *Service {
	s := &Service{
		salesRepo: salesRepo,
		tableRepo: tableRepo,
	}
	s.handle = serving.NewHandle[Table]("rfm_table", s.loadTable)
	return s
}

// Handle exposes the published table.
func (s *Service) Handle() *serving.Handle[Table] {
	return s.handle
}

func (s *Service) loadTable(ctx context.Context) (*Table, error) {
	if s.tableRepo == nil {
		return nil, nil
	}
	t, err := s.tableRepo.LoadTable(ctx)
	if err != nil {
		return nil, err
	}
	if t != nil {
		recordSegmentGauge(t)
	}
	return t, nil
}

// Compute reads every transaction from the Sales Store and scores it.
func (s *Service) Compute(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	txs, err := s.salesRepo.FindAllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	start := time.Now()
	table, err := ComputeRFM(txs)
	metrics.RFMComputeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("rfm computation failed",
			"transactions", len(txs),
			"error", err,
		)
		return nil, err
	}

	logger.Info("rfm table computed",
		"transactions", len(txs),
		"customers", table.Len(),
		"snapshot_at", table.SnapshotAt().Format(time.DateOnly),
	)
	return table, nil
}

// Rebuild computes a fresh table, persists it and publishes it. Nothing is
// published when any step fails.
func (s *Service) Rebuild(ctx context.Context) (*Table, error) {
	table, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.tableRepo != nil {
		if err := s.tableRepo.ReplaceTable(ctx, table); err != nil {
			return nil, fmt.Errorf("persist rfm table: %w", err)
		}
	}

	s.handle.Set(table)
	recordSegmentGauge(table)
	return table, nil
}

// ListSegments returns the published listing; empty when nothing is loaded.
func (s *Service) ListSegments(ctx context.Context) ([]domain.RFMSegmentView, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	return s.handle.Current().Segments(), nil
}

func (s *Service) GetCustomer(ctx context.Context, customerID int64) (domain.RFMRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RFMRecord{}, fmt.Errorf("context error: %w", err)
	}
	rec, ok := s.handle.Current().Lookup(customerID)
	if !ok {
		return domain.RFMRecord{}, fmt.Errorf("customer %d: %w", customerID, domain.ErrNotFound)
	}
	return rec, nil
}

func (s *Service) SegmentCounts(ctx context.Context) (map[domain.Segment]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	return s.handle.Current().SegmentCounts(), nil
}

func recordSegmentGauge(t *Table) {
	for seg, n := range t.SegmentCounts() {
		metrics.RFMCustomers.WithLabelValues(string(seg)).Set(float64(n))
	}
}
