package auth_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/auth"
	"github.com/verdantx/carbon-trade-api/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func newService(t *testing.T) (*auth.Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return auth.NewService(db, "test-secret", 1000, 500000), db
}

func TestRegisterSeedsBalanceAccount(t *testing.T) {
	service, db := newService(t)

	company, err := service.Register("Acme Carbon", "ops@acme.test", "longenough")
	require.NoError(t, err)
	assert.NotEmpty(t, company.CompanyID)

	account, err := accounts.NewDatabase(db).GetAccount(company.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Carbon", account.CompanyName)
	assert.Equal(t, 1000.0, account.CarbonBalance)
	assert.Equal(t, 500000.0, account.CashBalance)
}

func TestRegisterValidation(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Register("", "ops@acme.test", "longenough")
	assert.ErrorIs(t, err, auth.ErrInvalidRegistration)

	_, err = service.Register("Acme", "not-an-email", "longenough")
	assert.ErrorIs(t, err, auth.ErrInvalidRegistration)

	_, err = service.Register("Acme", "ops@acme.test", "short")
	assert.ErrorIs(t, err, auth.ErrInvalidRegistration)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Register("Acme Carbon", "ops@acme.test", "longenough")
	require.NoError(t, err)

	_, err = service.Register("Other Co", "OPS@acme.test", "longenough")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestLoginIssuesValidToken(t *testing.T) {
	service, _ := newService(t)

	company, err := service.Register("Acme Carbon", "ops@acme.test", "longenough")
	require.NoError(t, err)

	token, err := service.Login("ops@acme.test", "longenough")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	claims, err := service.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, company.CompanyID, claims.CompanyID)
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Register("Acme Carbon", "ops@acme.test", "longenough")
	require.NoError(t, err)

	_, err = service.Login("ops@acme.test", "wrongpassword")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = service.Login("nobody@acme.test", "longenough")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
