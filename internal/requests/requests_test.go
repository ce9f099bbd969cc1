package requests_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/database"
	"github.com/verdantx/carbon-trade-api/internal/requests"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedCompanies(t *testing.T, db *gorm.DB, companyIDs ...string) {
	t.Helper()
	accountsDB := accounts.NewDatabase(db)
	for _, companyID := range companyIDs {
		require.NoError(t, accountsDB.CreateAccount(&accounts.Account{
			CompanyID:     companyID,
			CompanyName:   companyID,
			CarbonBalance: 1000,
			CashBalance:   500000,
		}))
	}
}

func TestCreateRequestStartsPending(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b", "CMP_c")
	service := requests.NewService(db)

	request, err := service.CreateRequest("CMP_a", "BUY", "quarterly offset", 10, 20)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusPending, request.Status)
	assert.NotEmpty(t, request.RequestID)

	fetched, err := service.GetRequest(request.RequestID)
	require.NoError(t, err)
	assert.Equal(t, requests.StatusPending, fetched.Status)
	assert.Equal(t, "CMP_a", fetched.RequesterCompanyID)
	assert.Equal(t, 10.0, fetched.CarbonUnitPrice)
	assert.Equal(t, 20.0, fetched.CarbonQuantity)
}

func TestCreateRequestFansOutToOtherCompanies(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b", "CMP_c")
	service := requests.NewService(db)

	request, err := service.CreateRequest("CMP_a", "SELL", "surplus allowance", 5, 10)
	require.NoError(t, err)

	// Every company except the requester gets a received entry
	for _, viewerID := range []string{"CMP_b", "CMP_c"} {
		rows, err := service.GetDB().ListReceived(viewerID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, request.RequestID, rows[0].Request.RequestID)
		assert.False(t, rows[0].OverdueAlertViewed)
	}

	rows, err := service.GetDB().ListReceived("CMP_a")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateRequestValidation(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	cases := []struct {
		name     string
		reqType  string
		reason   string
		price    float64
		quantity float64
	}{
		{"bad type", "LEND", "reason", 10, 20},
		{"empty reason", "BUY", "   ", 10, 20},
		{"zero price", "BUY", "reason", 0, 20},
		{"negative price", "BUY", "reason", -1, 20},
		{"zero quantity", "BUY", "reason", 10, 0},
		{"negative quantity", "BUY", "reason", 10, -5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateRequest("CMP_a", tc.reqType, tc.reason, tc.price, tc.quantity)
			assert.ErrorIs(t, err, requests.ErrInvalidRequest)
		})
	}

	// Nothing was created
	mine, err := service.ListMine("CMP_a")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListMineNewestFirst(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	first, err := service.CreateRequest("CMP_a", "BUY", "first", 1, 1)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := service.CreateRequest("CMP_a", "SELL", "second", 2, 2)
	require.NoError(t, err)

	mine, err := service.ListMine("CMP_a")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.RequestID, mine[0].RequestID)
	assert.Equal(t, first.RequestID, mine[1].RequestID)

	// Other companies author nothing
	other, err := service.ListMine("CMP_b")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGetRequestNotFound(t *testing.T) {
	db := newTestDB(t)
	service := requests.NewService(db)

	_, err := service.GetRequest("REQ_missing")
	assert.ErrorIs(t, err, requests.ErrNotFound)
}
