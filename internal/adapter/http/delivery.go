package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"adgate/internal/core/port"
)

// decisionResponse is the wire shape of a delivery decision. Reason is
// omitted on admits.
type decisionResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// handleAdView asks the engine whether the ad may be shown to the
// viewer identified by the X-Viewer-ID header and, on admit, the
// impression is already committed. Denials are 200 with allowed=false;
// the viewer never sees an error for a capped or exhausted ad.
func (h *Handler) handleAdView(w http.ResponseWriter, r *http.Request) {
	adID, viewerID, ok := h.deliveryParams(w, r)
	if !ok {
		return
	}
	decision, err := h.delivery.RequestDelivery(r.Context(), adID, viewerID, time.Now().UTC())
	if err != nil {
		h.writeDeliveryErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decisionResponse{
		Allowed: decision.Admitted,
		Reason:  string(decision.Reason),
	})
}

// handleAdClick records a click charge for the ad. Same response shape
// as the view endpoint; clicks are not frequency capped.
func (h *Handler) handleAdClick(w http.ResponseWriter, r *http.Request) {
	adID, viewerID, ok := h.deliveryParams(w, r)
	if !ok {
		return
	}
	decision, err := h.delivery.RecordClick(r.Context(), adID, viewerID, time.Now().UTC())
	if err != nil {
		h.writeDeliveryErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decisionResponse{
		Allowed: decision.Admitted,
		Reason:  string(decision.Reason),
	})
}

func (h *Handler) deliveryParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	adID, err := pathID(r, "adID")
	if err != nil {
		http.Error(w, "invalid ad id", http.StatusBadRequest)
		return 0, "", false
	}
	viewerID := r.Header.Get("X-Viewer-ID")
	if viewerID == "" {
		http.Error(w, "missing X-Viewer-ID", http.StatusBadRequest)
		return 0, "", false
	}
	return adID, viewerID, true
}

// writeDeliveryErr differs from writeErr in one case: a bad cap
// configuration reaching the serving path is a server-side fault, not a
// client error.
func (h *Handler) writeDeliveryErr(w http.ResponseWriter, err error) {
	if errors.Is(err, port.ErrBadCapConfig) {
		h.logger.Error("misconfigured ad reached delivery", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeErr(w, err)
}
