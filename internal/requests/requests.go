package requests

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/pkg/response"
)

// Service handles trade request creation and listing
type Service struct {
	db *Database
}

// NewService creates a new requests service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// CreateRequest validates and posts a new trade request. The request starts
// PENDING and is fanned out to every other registered company as a received
// entry in the same transaction.
func (s *Service) CreateRequest(requesterCompanyID, requestType, reason string, unitPrice, quantity float64) (*TradeRequest, error) {
	requestType = strings.ToUpper(strings.TrimSpace(requestType))
	reason = strings.TrimSpace(reason)

	if requestType != TypeBuy && requestType != TypeSell {
		return nil, fmt.Errorf("%w: request type must be BUY or SELL", ErrInvalidRequest)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: request reason is required", ErrInvalidRequest)
	}
	if unitPrice <= 0 {
		return nil, fmt.Errorf("%w: carbon unit price must be greater than zero", ErrInvalidRequest)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: carbon quantity must be greater than zero", ErrInvalidRequest)
	}

	request := &TradeRequest{
		RequestID:          "REQ_" + uuid.New().String(),
		RequesterCompanyID: requesterCompanyID,
		RequestType:        requestType,
		RequestReason:      reason,
		CarbonUnitPrice:    unitPrice,
		CarbonQuantity:     quantity,
		RequestDate:        time.Now(),
		Status:             StatusPending,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	viewerIDs, err := s.db.ListOtherCompanyIDs(requesterCompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies for fan-out: %w", err)
	}

	entries := make([]ReceivedEntry, 0, len(viewerIDs))
	for _, viewerID := range viewerIDs {
		entries = append(entries, ReceivedEntry{
			ReceivedID:         "RCV_" + uuid.New().String(),
			RequestID:          request.RequestID,
			ViewerCompanyID:    viewerID,
			OverdueAlertViewed: false,
			CreatedAt:          time.Now(),
			UpdatedAt:          time.Now(),
		})
	}

	if err := s.db.CreateRequestWithFanOut(request, entries); err != nil {
		return nil, fmt.Errorf("failed to create trade request: %w", err)
	}

	log.Info().
		Str("request_id", request.RequestID).
		Str("requester_company_id", requesterCompanyID).
		Str("request_type", requestType).
		Float64("carbon_unit_price", unitPrice).
		Float64("carbon_quantity", quantity).
		Int("viewer_count", len(entries)).
		Msg("trade request created")

	return request, nil
}

// GetRequest retrieves a trade request by its ID
func (s *Service) GetRequest(requestID string) (*TradeRequest, error) {
	return s.db.GetRequest(requestID)
}

// ListMine returns all requests authored by the company, most recent first
func (s *Service) ListMine(companyID string) ([]TradeRequest, error) {
	return s.db.ListByRequester(companyID)
}

// GetDB exposes the database wrapper for services that join against requests
func (s *Service) GetDB() *Database {
	return s.db
}

// GinHandlers contains HTTP handlers for trade request endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type createRequestBody struct {
	RequestType     string  `json:"request_type" binding:"required"`
	RequestReason   string  `json:"request_reason" binding:"required"`
	CarbonUnitPrice float64 `json:"carbon_unit_price" binding:"required"`
	CarbonQuantity  float64 `json:"carbon_quantity" binding:"required"`
}

// CreateRequestHandler handles POST requests to post a new trade request
func (h *GinHandlers) CreateRequestHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString("companyID")
		if companyID == "" {
			response.Unauthorized(c, "Missing company identity")
			return
		}

		var body createRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		request, err := h.service.CreateRequest(
			companyID,
			body.RequestType,
			body.RequestReason,
			body.CarbonUnitPrice,
			body.CarbonQuantity,
		)
		response.Handle(c, request, err)
	}
}

// MyRequestsHandler handles GET requests for the company's own trade requests
func (h *GinHandlers) MyRequestsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString("companyID")
		if companyID == "" {
			response.Unauthorized(c, "Missing company identity")
			return
		}

		requestList, err := h.service.ListMine(companyID)
		response.Handle(c, requestList, err)
	}
}
