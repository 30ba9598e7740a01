package db

import (
	"opsmonitor/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Project{},
		&models.OperationalRecord{},
		&models.ExpenseItem{},
		&models.ModificationHistory{},
		&models.Investment{},
		&models.Distribution{},
		&models.PerformanceAssessment{},
		&models.AlertRecord{},
	)
}
