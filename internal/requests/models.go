package requests

import (
	"time"

	"gorm.io/gorm"
)

const (
	TypeBuy  = "BUY"
	TypeSell = "SELL"

	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

type TradeRequest struct {
	gorm.Model         `json:"-"`
	RequestID          string     `gorm:"uniqueIndex" json:"request_id"`
	RequesterCompanyID string     `gorm:"index" json:"requester_company_id"`
	RequestType        string     `json:"request_type"` // BUY or SELL
	RequestReason      string     `json:"request_reason"`
	CarbonUnitPrice    float64    `json:"carbon_unit_price"`
	CarbonQuantity     float64    `json:"carbon_quantity"`
	RequestDate        time.Time  `json:"request_date"`
	Status             string     `json:"status"` // PENDING, ACCEPTED, REJECTED
	DecidingCompanyID  string     `json:"deciding_company_id,omitempty"`
	DecidedAt          *time.Time `json:"decided_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ReceivedEntry is the per-viewer projection of a trade request. One entry is
// created for every company other than the requester when the request is
// posted. OverdueAlertViewed only ever moves from false to true.
type ReceivedEntry struct {
	gorm.Model         `json:"-"`
	ReceivedID         string    `gorm:"uniqueIndex" json:"received_id"`
	RequestID          string    `gorm:"index" json:"request_id"`
	ViewerCompanyID    string    `gorm:"index" json:"viewer_company_id"`
	OverdueAlertViewed bool      `json:"overdue_alert_viewed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
