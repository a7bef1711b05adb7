//go:build !integration

package stats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"salesInsight/domain"
)

func day(d int) time.Time {
	return time.Date(2013, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarize(t *testing.T) {
	txs := []domain.Transaction{
		{CustomerID: 1, OrderDate: day(1), SalesAmount: 100, ProductKey: 10, Territory: "Europe"},
		{CustomerID: 1, OrderDate: day(2), SalesAmount: 50, ProductKey: 11, Territory: "Pacific"},
		{CustomerID: 2, OrderDate: day(3), SalesAmount: 80, ProductKey: 11, Territory: "Pacific"},
		{CustomerID: 3, OrderDate: day(4), SalesAmount: 20, ProductKey: 12, Territory: "North America"},
	}

	got := Summarize(txs)
	if got.TotalRevenue != 250 {
		t.Fatalf("revenue: want=250 got=%v", got.TotalRevenue)
	}
	if got.TotalCustomers != 3 {
		t.Fatalf("customers: want=3 got=%d", got.TotalCustomers)
	}
	if got.TopTerritory == nil || *got.TopTerritory != "Pacific" {
		t.Fatalf("top territory: want Pacific got %v", got.TopTerritory)
	}
	if got.TopProduct == nil || *got.TopProduct != 11 {
		t.Fatalf("top product: want 11 got %v", got.TopProduct)
	}
}

func TestSummarizeWithoutOptionalColumns(t *testing.T) {
	got := Summarize([]domain.Transaction{
		{CustomerID: 1, OrderDate: day(1), SalesAmount: 5},
		{CustomerID: 2, OrderDate: day(2), SalesAmount: 7},
	})
	if got.TopTerritory != nil || got.TopProduct != nil {
		t.Fatalf("want nil top territory/product, got %v %v", got.TopTerritory, got.TopProduct)
	}

	empty := Summarize(nil)
	if empty.TotalRevenue != 0 || empty.TotalCustomers != 0 {
		t.Fatalf("empty summary: %+v", empty)
	}
}

func TestSummarizeTieBreak(t *testing.T) {
	got := Summarize([]domain.Transaction{
		{CustomerID: 1, SalesAmount: 10, Territory: "Pacific", ProductKey: 7},
		{CustomerID: 2, SalesAmount: 10, Territory: "Europe", ProductKey: 3},
	})
	if *got.TopTerritory != "Europe" || *got.TopProduct != 3 {
		t.Fatalf("ties must go to the smallest key, got %s %d", *got.TopTerritory, *got.TopProduct)
	}
}

type countingRepo struct {
	calls int
	txs   []domain.Transaction
}

func (r *countingRepo) FindAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	r.calls++
	return r.txs, nil
}

type mapCache struct {
	value  *domain.SalesSummary
	getErr error
}

func (c *mapCache) GetSummary(ctx context.Context) (*domain.SalesSummary, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.value == nil {
		return nil, fmt.Errorf("stats summary: %w", domain.ErrNotFound)
	}
	return c.value, nil
}

func (c *mapCache) SetSummary(ctx context.Context, s domain.SalesSummary, ttl time.Duration) error {
	c.value = &s
	return nil
}

func (c *mapCache) Invalidate(ctx context.Context) error {
	c.value = nil
	return nil
}

func TestServiceUsesCache(t *testing.T) {
	repo := &countingRepo{txs: []domain.Transaction{{CustomerID: 1, SalesAmount: 3}}}
	cache := &mapCache{}
	svc := NewService(repo, cache, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := svc.Summary(context.Background())
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		if got.TotalRevenue != 3 {
			t.Fatalf("revenue: want=3 got=%v", got.TotalRevenue)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("repository calls: want=1 got=%d", repo.calls)
	}

	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("repository calls after invalidate: want=2 got=%d", repo.calls)
	}
}

func TestServiceCacheFailureFallsBack(t *testing.T) {
	repo := &countingRepo{txs: []domain.Transaction{{CustomerID: 1, SalesAmount: 4}}}
	svc := NewService(repo, &mapCache{getErr: errors.New("connection refused")}, time.Minute)

	got, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.TotalRevenue != 4 {
		t.Fatalf("revenue: want=4 got=%v", got.TotalRevenue)
	}
}

func TestServiceWithoutCache(t *testing.T) {
	svc := NewService(&countingRepo{}, nil, 0)
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
}
