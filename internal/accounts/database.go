package accounts

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/types"
)

var (
	ErrUnknownAccount    = types.ErrUnknownAccount
	ErrInsufficientFunds = types.ErrInsufficientFunds
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateAccount(account *Account) error {
	return d.db.Create(account).Error
}

// CreateAccountTx creates an account inside a caller-owned transaction
func (d *Database) CreateAccountTx(tx *gorm.DB, account *Account) error {
	return tx.Create(account).Error
}

func (d *Database) GetAccount(companyID string) (*Account, error) {
	var account Account
	if err := d.db.Where("company_id = ?", companyID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) GetAllAccounts() ([]Account, error) {
	var accountList []Account
	if err := d.db.Order("company_id").Find(&accountList).Error; err != nil {
		return nil, err
	}
	return accountList, nil
}

// ApplyTransfer moves carbon from seller to buyer and cash from buyer to
// seller as one transaction. Either both balance pairs change or neither does.
func (d *Database) ApplyTransfer(buyerID, sellerID string, carbonQty, cashAmount float64) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := d.ApplyTransferTx(tx, buyerID, sellerID, carbonQty, cashAmount); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// ApplyTransferTx performs the transfer inside a caller-owned transaction so
// that callers can commit the balance move together with their own writes.
// The guarded updates re-validate both balances at commit time; a transfer
// that would drive either balance negative fails with ErrInsufficientFunds
// and must be rolled back by the caller.
func (d *Database) ApplyTransferTx(tx *gorm.DB, buyerID, sellerID string, carbonQty, cashAmount float64) error {
	var buyer, seller Account
	if err := tx.Where("company_id = ?", buyerID).First(&buyer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownAccount
		}
		return err
	}
	if err := tx.Where("company_id = ?", sellerID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownAccount
		}
		return err
	}

	// Buyer pays cash, receives carbon
	result := tx.Model(&Account{}).
		Where("company_id = ? AND cash_balance >= ?", buyerID, cashAmount).
		Updates(map[string]interface{}{
			"cash_balance":   gorm.Expr("cash_balance - ?", cashAmount),
			"carbon_balance": gorm.Expr("carbon_balance + ?", carbonQty),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientFunds
	}

	// Seller gives up carbon, receives cash
	result = tx.Model(&Account{}).
		Where("company_id = ? AND carbon_balance >= ?", sellerID, carbonQty).
		Updates(map[string]interface{}{
			"cash_balance":   gorm.Expr("cash_balance + ?", cashAmount),
			"carbon_balance": gorm.Expr("carbon_balance - ?", carbonQty),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientFunds
	}

	return nil
}
