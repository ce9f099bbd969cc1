package accounts_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedAccount(t *testing.T, db *accounts.Database, companyID, name string, carbon, cash float64) {
	t.Helper()
	require.NoError(t, db.CreateAccount(&accounts.Account{
		CompanyID:     companyID,
		CompanyName:   name,
		CarbonBalance: carbon,
		CashBalance:   cash,
	}))
}

func TestApplyTransferMovesBothBalances(t *testing.T) {
	db := accounts.NewDatabase(newTestDB(t))
	seedAccount(t, db, "CMP_buyer", "Buyer Co", 0, 1000)
	seedAccount(t, db, "CMP_seller", "Seller Co", 50, 0)

	err := db.ApplyTransfer("CMP_buyer", "CMP_seller", 20, 200)
	require.NoError(t, err)

	buyer, err := db.GetAccount("CMP_buyer")
	require.NoError(t, err)
	assert.Equal(t, 800.0, buyer.CashBalance)
	assert.Equal(t, 20.0, buyer.CarbonBalance)

	seller, err := db.GetAccount("CMP_seller")
	require.NoError(t, err)
	assert.Equal(t, 200.0, seller.CashBalance)
	assert.Equal(t, 30.0, seller.CarbonBalance)
}

func TestApplyTransferInsufficientCashLeavesBalancesUntouched(t *testing.T) {
	db := accounts.NewDatabase(newTestDB(t))
	seedAccount(t, db, "CMP_buyer", "Buyer Co", 0, 100)
	seedAccount(t, db, "CMP_seller", "Seller Co", 50, 0)

	err := db.ApplyTransfer("CMP_buyer", "CMP_seller", 20, 200)
	assert.ErrorIs(t, err, accounts.ErrInsufficientFunds)

	buyer, err := db.GetAccount("CMP_buyer")
	require.NoError(t, err)
	assert.Equal(t, 100.0, buyer.CashBalance)
	assert.Equal(t, 0.0, buyer.CarbonBalance)

	seller, err := db.GetAccount("CMP_seller")
	require.NoError(t, err)
	assert.Equal(t, 0.0, seller.CashBalance)
	assert.Equal(t, 50.0, seller.CarbonBalance)
}

func TestApplyTransferInsufficientCarbonLeavesBalancesUntouched(t *testing.T) {
	db := accounts.NewDatabase(newTestDB(t))
	seedAccount(t, db, "CMP_buyer", "Buyer Co", 0, 1000)
	seedAccount(t, db, "CMP_seller", "Seller Co", 5, 0)

	err := db.ApplyTransfer("CMP_buyer", "CMP_seller", 20, 200)
	assert.ErrorIs(t, err, accounts.ErrInsufficientFunds)

	// The buyer-side update committed nothing: the whole transfer rolled back
	buyer, err := db.GetAccount("CMP_buyer")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, buyer.CashBalance)
	assert.Equal(t, 0.0, buyer.CarbonBalance)

	seller, err := db.GetAccount("CMP_seller")
	require.NoError(t, err)
	assert.Equal(t, 5.0, seller.CarbonBalance)
}

func TestApplyTransferUnknownAccount(t *testing.T) {
	db := accounts.NewDatabase(newTestDB(t))
	seedAccount(t, db, "CMP_buyer", "Buyer Co", 0, 1000)

	err := db.ApplyTransfer("CMP_buyer", "CMP_missing", 20, 200)
	assert.ErrorIs(t, err, accounts.ErrUnknownAccount)

	err = db.ApplyTransfer("CMP_missing", "CMP_buyer", 20, 200)
	assert.ErrorIs(t, err, accounts.ErrUnknownAccount)
}

func TestCarbonConservedAcrossTransfers(t *testing.T) {
	db := accounts.NewDatabase(newTestDB(t))
	seedAccount(t, db, "CMP_a", "A", 100, 1000)
	seedAccount(t, db, "CMP_b", "B", 100, 1000)
	seedAccount(t, db, "CMP_c", "C", 100, 1000)

	require.NoError(t, db.ApplyTransfer("CMP_a", "CMP_b", 30, 300))
	require.NoError(t, db.ApplyTransfer("CMP_b", "CMP_c", 10, 50))

	all, err := db.GetAllAccounts()
	require.NoError(t, err)

	var totalCarbon, totalCash float64
	for _, account := range all {
		totalCarbon += account.CarbonBalance
		totalCash += account.CashBalance
	}
	assert.Equal(t, 300.0, totalCarbon)
	assert.Equal(t, 3000.0, totalCash)
}

func TestGetBalancesUnknownCompany(t *testing.T) {
	service := accounts.NewService(newTestDB(t))

	_, err := service.GetBalances("CMP_nobody")
	assert.ErrorIs(t, err, accounts.ErrUnknownAccount)
}
