package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/requests"
	"github.com/verdantx/carbon-trade-api/internal/types"
	"github.com/verdantx/carbon-trade-api/pkg/response"
)

var (
	ErrAlreadyDecided  = types.ErrAlreadyDecided
	ErrSelfDealing     = types.ErrSelfDealing
	ErrInvalidDecision = fmt.Errorf("%w: decision must be ACCEPT or REJECT", types.ErrInvalidRequest)
)

// Service executes the accept/reject transition for trade requests. An accept
// settles the trade: the status change, the balance transfer and the
// settlement record commit as one transaction or not at all.
type Service struct {
	db       *Database
	accounts *accounts.Database
}

// NewService creates a new settlement service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		accounts: accounts.NewDatabase(gormDB),
	}
}

// Decide transitions a PENDING request to ACCEPTED or REJECTED on behalf of
// the deciding company. Exactly one decision can win the transition; a second
// attempt fails with ErrAlreadyDecided rather than being silently absorbed,
// since it signals a race the caller should see.
func (s *Service) Decide(decidingCompanyID, requestID, decision string) (*requests.TradeRequest, error) {
	logger := log.With().
		Str("request_id", requestID).
		Str("deciding_company_id", decidingCompanyID).
		Str("decision", decision).
		Str("service", "settlement").
		Logger()

	if decision != DecisionAccept && decision != DecisionReject {
		return nil, ErrInvalidDecision
	}

	request, err := s.db.GetRequest(requestID)
	if err != nil {
		return nil, err
	}

	if request.RequesterCompanyID == decidingCompanyID {
		return nil, ErrSelfDealing
	}
	if request.Status != requests.StatusPending {
		return nil, ErrAlreadyDecided
	}

	newStatus := requests.StatusRejected
	if decision == DecisionAccept {
		newStatus = requests.StatusAccepted
	}
	decidedAt := time.Now()

	tx := s.db.Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	won, err := s.db.TransitionFromPendingTx(tx, requestID, newStatus, decidingCompanyID, decidedAt)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to transition request: %w", err)
	}
	if !won {
		// Another decision committed first
		tx.Rollback()
		return nil, ErrAlreadyDecided
	}

	if decision == DecisionAccept {
		buyerID, sellerID := s.tradeDirection(request, decidingCompanyID)
		cashAmount := request.CarbonUnitPrice * request.CarbonQuantity

		if err := s.accounts.ApplyTransferTx(tx, buyerID, sellerID, request.CarbonQuantity, cashAmount); err != nil {
			// Rolling back leaves the request PENDING; the decider may
			// retry or reject
			tx.Rollback()
			if errors.Is(err, accounts.ErrUnknownAccount) {
				logger.Error().Err(err).Msg("settlement hit a missing balance account")
			}
			return nil, err
		}

		settlement := &Settlement{
			SettlementID:    "STL_" + uuid.New().String(),
			RequestID:       requestID,
			BuyerCompanyID:  buyerID,
			SellerCompanyID: sellerID,
			CarbonQuantity:  request.CarbonQuantity,
			CashAmount:      cashAmount,
			SettledAt:       decidedAt,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		if err := s.db.CreateSettlementTx(tx, settlement); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to record settlement: %w", err)
		}

		logger.Info().
			Str("settlement_id", settlement.SettlementID).
			Str("buyer_company_id", buyerID).
			Str("seller_company_id", sellerID).
			Float64("carbon_quantity", settlement.CarbonQuantity).
			Float64("cash_amount", settlement.CashAmount).
			Msg("trade settled")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}

	request.Status = newStatus
	request.DecidingCompanyID = decidingCompanyID
	request.DecidedAt = &decidedAt

	logger.Info().Str("status", newStatus).Msg("decision committed")

	return request, nil
}

// tradeDirection resolves who buys and who sells: a BUY request means the
// requester buys carbon and the decider sells; a SELL request is the reverse
func (s *Service) tradeDirection(request *requests.TradeRequest, decidingCompanyID string) (buyerID, sellerID string) {
	if request.RequestType == requests.TypeBuy {
		return request.RequesterCompanyID, decidingCompanyID
	}
	return decidingCompanyID, request.RequesterCompanyID
}

// GetSettlement retrieves the settlement record for an accepted request
func (s *Service) GetSettlement(requestID string) (*Settlement, error) {
	return s.db.GetSettlementByRequestID(requestID)
}

// GinHandlers contains HTTP handlers for decision endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type decisionBody struct {
	Decision string `json:"decision" binding:"required"`
}

// DecideRequestHandler handles POST requests to accept or reject a trade request
func (h *GinHandlers) DecideRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString("companyID")
		if companyID == "" {
			response.Unauthorized(c, "Missing company identity")
			return
		}

		requestID := c.Param("request_id")
		if requestID == "" {
			response.BadRequest(c, "Request ID is required")
			return
		}

		var body decisionBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		request, err := h.service.Decide(companyID, requestID, body.Decision)
		response.Handle(c, request, err)
	}
}
