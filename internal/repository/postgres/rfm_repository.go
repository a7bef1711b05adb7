package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"salesInsight/business/rfm"
	"salesInsight/domain"
)

type rfmRow struct {
	CustomerID int64     `gorm:"column:customer_id;primaryKey;autoIncrement:false"`
	Recency    int       `gorm:"column:recency;not null"`
	Frequency  int       `gorm:"column:frequency;not null"`
	Monetary   float64   `gorm:"column:monetary;type:numeric;not null"`
	RScore     int       `gorm:"column:r_score;not null"`
	FScore     int       `gorm:"column:f_score;not null"`
	MScore     int       `gorm:"column:m_score;not null"`
	RFMScore   int       `gorm:"column:rfm_score;not null"`
	Segment    string    `gorm:"column:segment;type:text;not null;index"`
	SnapshotAt time.Time `gorm:"column:snapshot_at;not null"`
}

func (rfmRow) TableName() string {
	return "rfm_segments"
}

type RFMRepository struct {
	DB *gorm.DB
}

var _ rfm.TableRepository = (*RFMRepository)(nil)

func NewRFMRepository(db *gorm.DB) *RFMRepository {
	return &RFMRepository{DB: db}
}

// ReplaceTable deletes and reinserts inside one transaction, so readers see
// either the previous table or the new one.
func (r *RFMRepository) ReplaceTable(ctx context.Context, table *rfm.Table) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	recs := table.Records()
	rows := make([]rfmRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rfmRow{
			CustomerID: rec.CustomerID,
			Recency:    rec.Recency,
			Frequency:  rec.Frequency,
			Monetary:   rec.Monetary,
			RScore:     rec.RScore,
			FScore:     rec.FScore,
			MScore:     rec.MScore,
			RFMScore:   rec.RFMScore,
			Segment:    string(rec.Segment),
			SnapshotAt: table.SnapshotAt(),
		})
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&rfmRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear rfm_segments: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert rfm_segments: %w", err)
		}
		return nil
	})
}

// LoadTable returns nil when no table has been persisted.
func (r *RFMRepository) LoadTable(ctx context.Context) (*rfm.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []rfmRow
	if err := r.DB.WithContext(ctx).Order("customer_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query rfm_segments: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	recs := make([]domain.RFMRecord, 0, len(rows))
	for _, row := range rows {
		seg := domain.Segment(row.Segment)
		if !seg.Valid() {
			return nil, fmt.Errorf("customer %d has unknown segment %q", row.CustomerID, row.Segment)
		}
		recs = append(recs, domain.RFMRecord{
			CustomerID: row.CustomerID,
			Recency:    row.Recency,
			Frequency:  row.Frequency,
			Monetary:   row.Monetary,
			RScore:     row.RScore,
			FScore:     row.FScore,
			MScore:     row.MScore,
			RFMScore:   row.RFMScore,
			Segment:    seg,
		})
	}

	return rfm.NewTable(rows[0].SnapshotAt.UTC(), recs)
}
