package accounts

import (
	"time"

	"gorm.io/gorm"
)

type Account struct {
	gorm.Model    `json:"-"`
	CompanyID     string    `gorm:"uniqueIndex" json:"company_id"`
	CompanyName   string    `json:"company_name"`
	CarbonBalance float64   `json:"carbon_balance"`
	CashBalance   float64   `json:"cash_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
