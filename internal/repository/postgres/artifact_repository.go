package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salesInsight/business/clv"
	"salesInsight/domain"
)

type artifactRow struct {
	Version    string         `gorm:"column:version;primaryKey"`
	Algorithm  string         `gorm:"column:algorithm;not null"`
	R2         float64        `gorm:"column:r2"`
	RMSE       float64        `gorm:"column:rmse"`
	Payload    datatypes.JSON `gorm:"column:payload;not null"`
	TrainedAt  time.Time      `gorm:"column:trained_at"`
	PromotedAt time.Time      `gorm:"column:promoted_at;index"`
}

func (artifactRow) TableName() string {
	return "clv_artifacts"
}

// ArtifactRepository keeps every trained CLV artifact. The newest promoted
// row is the one served.
type ArtifactRepository struct {
	DB  *gorm.DB
	now func() time.Time
}

var _ clv.ArtifactStore = (*ArtifactRepository)(nil)

func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{DB: db, now: time.Now}
}

// Save inserts a new artifact. Saving a version that already exists only
// promotes it again; the stored payload is never rewritten.
func (r *ArtifactRepository) Save(ctx context.Context, a *clv.Artifact) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	m := a.Metrics()
	row := artifactRow{
		Version:    a.Version(),
		Algorithm:  a.Algorithm(),
		R2:         m.R2,
		RMSE:       m.RMSE,
		Payload:    datatypes.JSON(raw),
		TrainedAt:  a.TrainedAt(),
		PromotedAt: r.now().UTC(),
	}

	err = r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"promoted_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", row.Version, err)
	}
	return nil
}

// Latest returns nil when no artifact was ever saved.
func (r *ArtifactRepository) Latest(ctx context.Context) (*clv.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row artifactRow
	err := r.DB.WithContext(ctx).Order("promoted_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query clv_artifacts: %w", err)
	}
	return decodeArtifact(row)
}

func (r *ArtifactRepository) Get(ctx context.Context, version string) (*clv.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row artifactRow
	err := r.DB.WithContext(ctx).First(&row, "version = ?", version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("artifact %s: %w", version, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query clv_artifacts: %w", err)
	}
	return decodeArtifact(row)
}

func decodeArtifact(row artifactRow) (*clv.Artifact, error) {
	a, err := clv.DecodeArtifact(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", row.Version, err)
	}
	return a, nil
}
