package runs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the runs service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the trigger routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews/:id/analyze", h.analyzeReview)
	rg.POST("/analyses", h.enqueueBatch)
}

type analyzeRequest struct {
	RunType string `json:"runType"`
}

func (h *Handler) analyzeReview(c *gin.Context) {
	reviewID := c.Param("id")
	if reviewID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "review id is required", nil)
		return
	}

	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	requestID := middleware.RequestIDFromContext(c)
	queued, err := h.Svc.Enqueue(c.Request.Context(), []string{reviewID}, req.RunType, requestID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue analysis", nil)
		return
	}
	if queued == 0 {
		respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
		return
	}

	c.Set("reviewId", reviewID)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"reviewId": reviewID,
		"runType":  h.Svc.runType(req.RunType),
		"queued":   true,
	})
}

type batchRequest struct {
	ReviewIDs  []string `json:"reviewIds"`
	RunType    string   `json:"runType"`
	App        string   `json:"app"`
	Unanalyzed bool     `json:"unanalyzed"`
	Limit      int      `json:"limit"`
}

func (h *Handler) enqueueBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.ReviewIDs) == 0 && !req.Unanalyzed {
		respond.Error(c, http.StatusBadRequest, "validation_error", "reviewIds or unanalyzed is required", nil)
		return
	}

	requestID := middleware.RequestIDFromContext(c)

	var queued int
	var err error
	if req.Unanalyzed {
		queued, err = h.Svc.EnqueueUnanalyzed(c.Request.Context(), req.App, req.Limit, req.RunType, requestID)
	} else {
		queued, err = h.Svc.Enqueue(c.Request.Context(), req.ReviewIDs, req.RunType, requestID)
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue analyses", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"queued":  queued,
		"runType": h.Svc.runType(req.RunType),
	})
}
