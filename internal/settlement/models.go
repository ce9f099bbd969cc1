package settlement

import (
	"time"

	"gorm.io/gorm"
)

const (
	DecisionAccept = "ACCEPT"
	DecisionReject = "REJECT"
)

// Settlement records an executed trade: the atomic transfer of carbon and
// cash that an accepted request triggered. One row per accepted request,
// written in the same transaction as the balance move.
type Settlement struct {
	gorm.Model      `json:"-"`
	SettlementID    string    `gorm:"uniqueIndex" json:"settlement_id"`
	RequestID       string    `gorm:"uniqueIndex" json:"request_id"`
	BuyerCompanyID  string    `json:"buyer_company_id"`
	SellerCompanyID string    `json:"seller_company_id"`
	CarbonQuantity  float64   `json:"carbon_quantity"`
	CashAmount      float64   `json:"cash_amount"`
	SettledAt       time.Time `json:"settled_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
