package auth

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	gorm.Model   `json:"-"`
	CompanyID    string    `gorm:"uniqueIndex" json:"company_id"`
	CompanyName  string    `gorm:"uniqueIndex" json:"company_name"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
