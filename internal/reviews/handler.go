package reviews

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"review-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the reviews repository.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.createReview)
	rg.GET("/reviews", h.listReviews)
	rg.GET("/reviews/:id", h.getReview)
}

type createReviewRequest struct {
	AppName  string `json:"appName" binding:"required"`
	Platform string `json:"platform"`
	Rating   int    `json:"rating" binding:"required"`
	Title    string `json:"title"`
	Content  string `json:"content" binding:"required"`
}

func (h *Handler) createReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "appName, rating and content are required", nil)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "rating must be between 1 and 5", []map[string]string{
			{"field": "rating", "issue": "out_of_range"},
		})
		return
	}

	review := Review{
		ID:        uuid.NewString(),
		AppName:   req.AppName,
		Platform:  req.Platform,
		Rating:    req.Rating,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Repo.Create(c.Request.Context(), review); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store review", nil)
		return
	}

	c.Set("reviewId", review.ID)
	respond.JSON(c, http.StatusCreated, review)
}

func (h *Handler) getReview(c *gin.Context) {
	reviewID := c.Param("id")
	if reviewID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "review id is required", nil)
		return
	}

	review, err := h.Repo.GetByID(c.Request.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch review", nil)
		}
		return
	}

	respond.OK(c, review)
}

func (h *Handler) listReviews(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	list, err := h.Repo.List(c.Request.Context(), c.Query("app"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reviews", nil)
		return
	}

	respond.OK(c, gin.H{"reviews": list, "count": len(list)})
}
