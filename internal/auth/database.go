package auth

import (
	"errors"

	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetCompanyByEmail(email string) (*Company, error) {
	var company Company
	if err := d.db.Where("email = ?", email).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (d *Database) GetCompanyByID(companyID string) (*Company, error) {
	var company Company
	if err := d.db.Where("company_id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// CreateCompanyWithAccount creates the company and its seeded balance account
// in one transaction, so a registered company always has an account
func (d *Database) CreateCompanyWithAccount(company *Company, account *accounts.Account) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(company).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Create(account).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
