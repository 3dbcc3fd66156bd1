package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/poster"
	"github.com/raushankrgupta/listing-poster/utils"
)

// Renderer builds a post in memory.
type Renderer interface {
	Render(ctx context.Context, ref models.ListingReference) (*poster.Result, []byte, error)
}

type Handler struct {
	renderer Renderer
	history  HistoryLister
	logger   *slog.Logger
}

// NewHandler serves posts from renderer. history may be nil, in which case
// the listing endpoint reports 503.
func NewHandler(renderer Renderer, history HistoryLister) *Handler {
	return &Handler{
		renderer: renderer,
		history:  history,
		logger:   slog.Default().With("component", "api"),
	}
}

// PostHandler builds a post for the listing in the url query parameter or
// JSON body and returns it as a JPEG.
func (h *Handler) PostHandler(w http.ResponseWriter, r *http.Request) {
	// Support both Query Params and JSON Body
	listingURL := r.URL.Query().Get("url")
	if listingURL == "" && r.Body != nil {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			listingURL = req.URL
		}
	}

	if listingURL == "" {
		utils.RespondError(w, h.logger, "Please provide a 'url' query parameter or JSON body", http.StatusBadRequest)
		return
	}

	ref, err := models.NewListingReference(listingURL, "")
	if err != nil {
		utils.RespondError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("building post", "url", ref.URL)
	res, body, err := h.renderer.Render(r.Context(), ref)
	if err != nil {
		utils.RespondError(w, h.logger, models.Describe(err), StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Post-QR-URL", res.QRURL)
	if res.Price != "" {
		w.Header().Set("X-Post-Price", res.Price)
	}
	if res.PublishedURL != "" {
		w.Header().Set("X-Post-Published-URL", res.PublishedURL)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("writing post body", "error", err)
	}
}

// HealthHandler always answers 200.
func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusFor maps pipeline errors to HTTP statuses.
func StatusFor(err error) int {
	var (
		ie *models.InvalidInputError
		nf *models.NotFoundError
		be *models.BlockedError
		ne *models.NetworkError
	)
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &be):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ne):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
