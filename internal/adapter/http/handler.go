package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"log/slog"

	"adgate/internal/core/port"
)

// Handler is the inbound HTTP adapter. It holds the delivery engine and
// the management usecase and registers all routes on a chi.Router.
type Handler struct {
	delivery port.DeliveryUseCase
	manage   port.ManageUseCase
	logger   *slog.Logger
	router   chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(delivery port.DeliveryUseCase, manage port.ManageUseCase, logger *slog.Logger) *Handler {
	h := &Handler{delivery: delivery, manage: manage, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ads/{adID}/view", h.handleAdView)
		r.Post("/ads/{adID}/click", h.handleAdClick)
		r.Get("/stats/overview", h.handleStatsOverview)

		r.Post("/campaigns", h.handleCreateCampaign)
		r.Post("/campaigns/{campaignID}/status/{event}", h.handleCampaignEvent)
		r.Post("/ads", h.handleCreateAd)
		r.Post("/ads/{adID}/status/{event}", h.handleAdEvent)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeErr maps the port error taxonomy onto HTTP status codes. Unknown
// errors are logged and hidden behind a generic 500.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, port.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, port.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, port.ErrInvalid), errors.Is(err, port.ErrBadCapConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, port.ErrStoreUnavailable):
		h.logger.Error("store unavailable", slog.Any("error", err))
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func eventParam(r *http.Request) string {
	return chi.URLParam(r, "event")
}
