package database

import (
	"fmt"

	"github.com/pageza/foodseed/backend/internal/models"
	"gorm.io/gorm"
)

// RunMigrations creates the tables backing the relational document store
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CollectionRecord{}, &models.DocumentRecord{}); err != nil {
		return fmt.Errorf("failed to migrate document tables: %w", err)
	}
	return nil
}
