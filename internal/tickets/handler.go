package tickets

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the tickets repository.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches ticket routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tickets", h.listTickets)
	rg.GET("/reviews/:id/tickets", h.listReviewTickets)
}

func (h *Handler) listTickets(c *gin.Context) {
	filter := Filter{
		ReviewID: c.Query("review"),
		Status:   c.Query("status"),
	}
	if v := c.Query("minPriority"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || parsed > 10 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "minPriority must be an integer between 0 and 10", nil)
			return
		}
		filter.MinPriority = parsed
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}

	list, err := h.Repo.List(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list tickets", nil)
		return
	}

	respond.OK(c, gin.H{"tickets": list, "count": len(list)})
}

func (h *Handler) listReviewTickets(c *gin.Context) {
	reviewID := c.Param("id")
	if reviewID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "review id is required", nil)
		return
	}

	list, err := h.Repo.ListByReview(c.Request.Context(), reviewID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list tickets", nil)
		return
	}

	respond.OK(c, gin.H{"tickets": list, "count": len(list)})
}
