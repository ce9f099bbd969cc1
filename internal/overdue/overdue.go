package overdue

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/verdantx/carbon-trade-api/internal/requests"
	"github.com/verdantx/carbon-trade-api/internal/types"
	"github.com/verdantx/carbon-trade-api/pkg/response"
)

// Tracker derives overdue status for received trade requests and records
// per-viewer acknowledgment of the overdue alert. Overdue is computed on
// read; the only persisted state is the one-way alert-viewed flag.
type Tracker struct {
	db        *Database
	requests  *requests.Database
	threshold time.Duration
}

// NewTracker creates a tracker with the given overdue threshold
func NewTracker(gormDB *gorm.DB, threshold time.Duration) *Tracker {
	return &Tracker{
		db:        NewDatabase(gormDB),
		requests:  requests.NewDatabase(gormDB),
		threshold: threshold,
	}
}

// IsOverdue reports whether a request should be flagged to its viewers:
// still PENDING and past the threshold since it was posted
func (t *Tracker) IsOverdue(request *requests.TradeRequest) bool {
	if request.Status != requests.StatusPending {
		return false
	}
	return time.Since(request.RequestDate) >= t.threshold
}

// ListReceived returns the viewer's received entries joined with their
// requests, most recent first, with the overdue flag derived at read time
func (t *Tracker) ListReceived(viewerCompanyID string) ([]types.ReceivedRequest, error) {
	rows, err := t.requests.ListReceived(viewerCompanyID)
	if err != nil {
		return nil, err
	}

	received := make([]types.ReceivedRequest, 0, len(rows))
	for _, row := range rows {
		received = append(received, types.ReceivedRequest{
			ReceivedID:         row.ReceivedID,
			RequestID:          row.Request.RequestID,
			RequesterCompanyID: row.Request.RequesterCompanyID,
			RequestType:        row.Request.RequestType,
			RequestReason:      row.Request.RequestReason,
			CarbonUnitPrice:    row.Request.CarbonUnitPrice,
			CarbonQuantity:     row.Request.CarbonQuantity,
			RequestDate:        row.Request.RequestDate,
			Status:             row.Request.Status,
			Overdue:            t.IsOverdue(&row.Request),
			OverdueAlertViewed: row.OverdueAlertViewed,
		})
	}
	return received, nil
}

// Acknowledge marks the overdue alert as viewed for a single entry. The flag
// never reverts; acknowledging an already-viewed entry is a no-op.
func (t *Tracker) Acknowledge(receivedID string) error {
	if _, err := t.db.GetReceivedEntry(receivedID); err != nil {
		return err
	}
	return t.db.MarkAlertViewed(receivedID)
}

// GinHandlers contains HTTP handlers for the received inbox endpoints
type GinHandlers struct {
	tracker *Tracker
}

func NewGinHandlers(tracker *Tracker) *GinHandlers {
	return &GinHandlers{
		tracker: tracker,
	}
}

// ReceivedRequestsHandler handles GET requests for the company's received inbox
func (h *GinHandlers) ReceivedRequestsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetString("companyID")
		if companyID == "" {
			response.Unauthorized(c, "Missing company identity")
			return
		}

		received, err := h.tracker.ListReceived(companyID)
		response.Handle(c, received, err)
	}
}

// AcknowledgeHandler handles POST requests to mark an overdue alert as viewed
func (h *GinHandlers) AcknowledgeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		receivedID := c.Param("received_id")
		if receivedID == "" {
			response.BadRequest(c, "Received ID is required")
			return
		}

		if err := h.tracker.Acknowledge(receivedID); err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"received_id": receivedID, "overdue_alert_viewed": true})
	}
}
