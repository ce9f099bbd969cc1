package requests

import (
	"errors"

	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/types"
)

var (
	ErrNotFound       = types.ErrNotFound
	ErrInvalidRequest = types.ErrInvalidRequest
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// CreateRequestWithFanOut creates the trade request and one received entry
// per viewer in a single transaction, so a request is never visible to some
// companies and not others.
func (d *Database) CreateRequestWithFanOut(request *TradeRequest, entries []ReceivedEntry) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(request).Error; err != nil {
		tx.Rollback()
		return err
	}

	for i := range entries {
		if err := tx.Create(&entries[i]).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// ListOtherCompanyIDs returns every registered company except the given one,
// used to fan a new request out to its potential deciders
func (d *Database) ListOtherCompanyIDs(companyID string) ([]string, error) {
	var companyIDs []string
	if err := d.db.Model(&accounts.Account{}).
		Where("company_id <> ?", companyID).
		Pluck("company_id", &companyIDs).Error; err != nil {
		return nil, err
	}
	return companyIDs, nil
}

func (d *Database) GetRequest(requestID string) (*TradeRequest, error) {
	var request TradeRequest
	if err := d.db.Where("request_id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (d *Database) ListByRequester(companyID string) ([]TradeRequest, error) {
	var requestList []TradeRequest
	if err := d.db.Where("requester_company_id = ?", companyID).
		Order("request_date DESC").
		Find(&requestList).Error; err != nil {
		return nil, err
	}
	return requestList, nil
}

// ReceivedRow is a received entry joined with its trade request
type ReceivedRow struct {
	ReceivedID         string
	OverdueAlertViewed bool
	Request            TradeRequest
}

func (d *Database) ListReceived(viewerCompanyID string) ([]ReceivedRow, error) {
	var entries []ReceivedEntry
	if err := d.db.Where("viewer_company_id = ?", viewerCompanyID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	rows := make([]ReceivedRow, 0, len(entries))
	for _, entry := range entries {
		request, err := d.GetRequest(entry.RequestID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ReceivedRow{
			ReceivedID:         entry.ReceivedID,
			OverdueAlertViewed: entry.OverdueAlertViewed,
			Request:            *request,
		})
	}
	return rows, nil
}

func (d *Database) GetReceivedEntry(receivedID string) (*ReceivedEntry, error) {
	var entry ReceivedEntry
	if err := d.db.Where("received_id = ?", receivedID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}
