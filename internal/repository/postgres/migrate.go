package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"salesInsight/domain"
)

// Migrate creates or updates the sales, rfm_segments and clv_artifacts
// tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Transaction{}, &rfmRow{}, &artifactRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
