package accounts

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/types"
	"github.com/verdantx/carbon-trade-api/pkg/response"
)

// Service handles company balance reads. Balance writes happen exclusively
// through ApplyTransfer, invoked by the settlement engine, and through the
// seeded account created at registration.
type Service struct {
	db *Database
}

// NewService creates a new accounts service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetBalances returns the committed balances for a company
func (s *Service) GetBalances(companyID string) (*types.BalancesResponse, error) {
	account, err := s.db.GetAccount(companyID)
	if err != nil {
		return nil, err
	}

	return &types.BalancesResponse{
		CompanyID:     account.CompanyID,
		CompanyName:   account.CompanyName,
		CarbonBalance: account.CarbonBalance,
		CashBalance:   account.CashBalance,
	}, nil
}

// GetDB exposes the database wrapper for services that transfer balances
func (s *Service) GetDB() *Database {
	return s.db
}

// GinHandlers contains HTTP handlers for balance endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetBalancesHandler handles GET requests for the authenticated company's balances
func (h *GinHandlers) GetBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString("companyID")
		if companyID == "" {
			response.Unauthorized(c, "Missing company identity")
			return
		}

		balances, err := h.service.GetBalances(companyID)
		response.Handle(c, balances, err)
	}
}
