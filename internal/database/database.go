package database

import (
	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/auth"
	"github.com/verdantx/carbon-trade-api/internal/requests"
	"github.com/verdantx/carbon-trade-api/internal/settlement"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&auth.Company{},
		&accounts.Account{},
		&requests.TradeRequest{},
		&requests.ReceivedEntry{},
		&settlement.Settlement{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
