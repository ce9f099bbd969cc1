package types

import "time"

// BalancesResponse represents a company's committed balances
type BalancesResponse struct {
	CompanyID     string  `json:"company_id"`
	CompanyName   string  `json:"company_name"`
	CarbonBalance float64 `json:"carbon_balance"`
	CashBalance   float64 `json:"cash_balance"`
}

// ReceivedRequest is the per-viewer projection of a trade request, joined
// with the viewer's overdue-acknowledgment state
type ReceivedRequest struct {
	ReceivedID         string    `json:"received_id"`
	RequestID          string    `json:"request_id"`
	RequesterCompanyID string    `json:"requester_company_id"`
	RequestType        string    `json:"request_type"`
	RequestReason      string    `json:"request_reason"`
	CarbonUnitPrice    float64   `json:"carbon_unit_price"`
	CarbonQuantity     float64   `json:"carbon_quantity"`
	RequestDate        time.Time `json:"request_date"`
	Status             string    `json:"status"`
	Overdue            bool      `json:"overdue"`
	OverdueAlertViewed bool      `json:"overdue_alert_viewed"`
}
