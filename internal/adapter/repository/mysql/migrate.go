package mysql

import (
	"loan-engine/internal/domain/custody"
	"loan-engine/internal/domain/loan"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the engine owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loan.Sequence{},
		&loan.Loan{},
		&loan.EventRecord{},
		&custody.Account{},
		&custody.Entry{},
	)
}
