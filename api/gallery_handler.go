package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/utils"
)

const maxPageSize = 100

// HistoryLister pages through recorded posts, newest first.
type HistoryLister interface {
	List(ctx context.Context, page, limit int) ([]models.PostRecord, int64, error)
}

// GalleryResponse represents the response structure for the posts listing
type GalleryResponse struct {
	Posts       []models.PostRecord `json:"posts"`
	Total       int64               `json:"total"`
	CurrentPage int                 `json:"current_page"`
	TotalPages  int                 `json:"total_pages"`
}

// PostsHandler lists generated posts.
func (h *Handler) PostsHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		utils.RespondError(w, h.logger, "post history is not configured", http.StatusServiceUnavailable)
		return
	}

	// Parse Pagination Parameters
	page := 1
	limit := 10

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = min(l, maxPageSize)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	posts, total, err := h.history.List(ctx, page, limit)
	if err != nil {
		utils.RespondError(w, h.logger, "Failed to fetch posts", http.StatusInternalServerError)
		return
	}

	// Ensure empty slice is returned as [] instead of null
	if posts == nil {
		posts = []models.PostRecord{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	utils.RespondJSON(w, http.StatusOK, GalleryResponse{
		Posts:       posts,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
	})
}
