package overdue_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/database"
	"github.com/verdantx/carbon-trade-api/internal/overdue"
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

// backdateRequest shifts a request's creation date into the past
func backdateRequest(t *testing.T, db *gorm.DB, requestID string, age time.Duration) {
	t.Helper()
	err := db.Model(&requests.TradeRequest{}).
		Where("request_id = ?", requestID).
		Update("request_date", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func TestOverdueDerivedFromThreshold(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	fresh, err := service.CreateRequest("CMP_a", "BUY", "fresh", 10, 5)
	require.NoError(t, err)
	stale, err := service.CreateRequest("CMP_a", "SELL", "stale", 10, 5)
	require.NoError(t, err)
	backdateRequest(t, db, stale.RequestID, 25*time.Hour)

	tracker := overdue.NewTracker(db, 24*time.Hour)
	received, err := tracker.ListReceived("CMP_b")
	require.NoError(t, err)
	require.Len(t, received, 2)

	byRequest := map[string]bool{}
	for _, r := range received {
		byRequest[r.RequestID] = r.Overdue
	}
	assert.False(t, byRequest[fresh.RequestID])
	assert.True(t, byRequest[stale.RequestID])
}

func TestDecidedRequestIsNeverOverdue(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	request, err := service.CreateRequest("CMP_a", "BUY", "old but decided", 10, 5)
	require.NoError(t, err)
	backdateRequest(t, db, request.RequestID, 48*time.Hour)

	// Mark it decided directly; only PENDING requests can be overdue
	err = db.Model(&requests.TradeRequest{}).
		Where("request_id = ?", request.RequestID).
		Update("status", requests.StatusRejected).Error
	require.NoError(t, err)

	tracker := overdue.NewTracker(db, 24*time.Hour)
	received, err := tracker.ListReceived("CMP_b")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.False(t, received[0].Overdue)
}

func TestAcknowledgePersistsAcrossReads(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	request, err := service.CreateRequest("CMP_a", "BUY", "offset", 10, 5)
	require.NoError(t, err)
	backdateRequest(t, db, request.RequestID, 25*time.Hour)

	tracker := overdue.NewTracker(db, 24*time.Hour)
	received, err := tracker.ListReceived("CMP_b")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.True(t, received[0].Overdue)
	assert.False(t, received[0].OverdueAlertViewed)

	require.NoError(t, tracker.Acknowledge(received[0].ReceivedID))

	// Still overdue, but the alert stays acknowledged on every later read
	for i := 0; i < 2; i++ {
		again, err := tracker.ListReceived("CMP_b")
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.True(t, again[0].Overdue)
		assert.True(t, again[0].OverdueAlertViewed)
	}
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	_, err := service.CreateRequest("CMP_a", "BUY", "offset", 10, 5)
	require.NoError(t, err)

	tracker := overdue.NewTracker(db, 24*time.Hour)
	received, err := tracker.ListReceived("CMP_b")
	require.NoError(t, err)
	require.Len(t, received, 1)

	require.NoError(t, tracker.Acknowledge(received[0].ReceivedID))
	require.NoError(t, tracker.Acknowledge(received[0].ReceivedID))
}

func TestAcknowledgeUnknownEntry(t *testing.T) {
	db := newTestDB(t)
	tracker := overdue.NewTracker(db, 24*time.Hour)

	err := tracker.Acknowledge("RCV_missing")
	assert.ErrorIs(t, err, requests.ErrNotFound)
}

func TestCountOverduePending(t *testing.T) {
	db := newTestDB(t)
	seedCompanies(t, db, "CMP_a", "CMP_b")
	service := requests.NewService(db)

	stale, err := service.CreateRequest("CMP_a", "BUY", "stale", 10, 5)
	require.NoError(t, err)
	backdateRequest(t, db, stale.RequestID, 25*time.Hour)

	_, err = service.CreateRequest("CMP_a", "SELL", "fresh", 10, 5)
	require.NoError(t, err)

	count, err := overdue.NewDatabase(db).CountOverduePending(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
