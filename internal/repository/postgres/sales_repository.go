package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"salesInsight/business/rfm"
	"salesInsight/business/stats"
	"salesInsight/domain"
)

const insertBatchSize = 1000

type SalesRepository struct {
	DB *gorm.DB
}

var (
	_ rfm.SalesRepository   = (*SalesRepository)(nil)
	_ stats.SalesRepository = (*SalesRepository)(nil)
)

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{DB: db}
}

// ReplaceAll swaps the whole sales table in one transaction.
func (r *SalesRepository) ReplaceAll(ctx context.Context, txs []domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	rows := make([]domain.Transaction, len(txs))
	copy(rows, txs)
	for i := range rows {
		rows[i].ID = 0
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to clear sales: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert sales: %w", err)
		}
		return nil
	})
}

func (r *SalesRepository) FindAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var txs []domain.Transaction
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	return txs, nil
}

func (r *SalesRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var n int64
	if err := r.DB.WithContext(ctx).Model(&domain.Transaction{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return n, nil
}
