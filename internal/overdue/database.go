package overdue

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/requests"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetReceivedEntry(receivedID string) (*requests.ReceivedEntry, error) {
	var entry requests.ReceivedEntry
	if err := d.db.Where("received_id = ?", receivedID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, requests.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// MarkAlertViewed sets the one-way overdue-alert flag. The WHERE clause keeps
// the write monotonic; re-marking a viewed entry affects no rows, which is
// fine because acknowledgment is idempotent.
func (d *Database) MarkAlertViewed(receivedID string) error {
	result := d.db.Model(&requests.ReceivedEntry{}).
		Where("received_id = ? AND overdue_alert_viewed = ?", receivedID, false).
		Updates(map[string]interface{}{
			"overdue_alert_viewed": true,
			"updated_at":           time.Now(),
		})
	return result.Error
}

// CountOverduePending counts PENDING requests past the given cutoff
func (d *Database) CountOverduePending(cutoff time.Time) (int64, error) {
	var count int64
	if err := d.db.Model(&requests.TradeRequest{}).
		Where("status = ? AND request_date <= ?", requests.StatusPending, cutoff).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
