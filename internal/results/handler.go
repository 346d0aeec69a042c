package results

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the results repository. Callers poll these
// endpoints for the outcome of asynchronously triggered runs.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches result routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reviews/:id/analysis", h.getAnalysis)
	rg.GET("/analyses/recent", h.listRecent)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	reviewID := c.Param("id")
	if reviewID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "review id is required", nil)
		return
	}

	result, err := h.Repo.GetByReviewID(c.Request.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis result not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis result", nil)
		}
		return
	}

	respond.OK(c, result)
}

func (h *Handler) listRecent(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	list, err := h.Repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analysis results", nil)
		return
	}

	respond.OK(c, gin.H{"results": list, "count": len(list)})
}
