package settlement

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

// Begin opens a transaction for a decision commit
func (d *Database) Begin() *gorm.DB {
	return d.db.Begin()
}

// GetRequest retrieves the trade request under decision
func (d *Database) GetRequest(requestID string) (*requests.TradeRequest, error) {
	var request requests.TradeRequest
	if err := d.db.Where("request_id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, requests.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// TransitionFromPendingTx moves a request out of PENDING inside a
// caller-owned transaction. The status check is folded into the UPDATE so two
// concurrent decisions on the same request resolve to exactly one winner;
// the loser sees rowsAffected == 0.
func (d *Database) TransitionFromPendingTx(tx *gorm.DB, requestID, newStatus, decidingCompanyID string, decidedAt time.Time) (bool, error) {
	result := tx.Model(&requests.TradeRequest{}).
		Where("request_id = ? AND status = ?", requestID, requests.StatusPending).
		Updates(map[string]interface{}{
			"status":              newStatus,
			"deciding_company_id": decidingCompanyID,
			"decided_at":          decidedAt,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateSettlementTx records the executed trade inside the decision transaction
func (d *Database) CreateSettlementTx(tx *gorm.DB, settlement *Settlement) error {
	return tx.Create(settlement).Error
}

// GetSettlementByRequestID retrieves the settlement for an accepted request
func (d *Database) GetSettlementByRequestID(requestID string) (*Settlement, error) {
	var settlement Settlement
	if err := d.db.Where("request_id = ?", requestID).First(&settlement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, requests.ErrNotFound
		}
		return nil, err
	}
	return &settlement, nil
}
