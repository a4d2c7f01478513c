package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"adgate/internal/core/domain"
)

type createCampaignRequest struct {
	OwnerID         string     `json:"owner_id"`
	Name            string     `json:"name"`
	TotalBudget     int64      `json:"total_budget"`
	DailySpendLimit *int64     `json:"daily_spend_limit,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

type createAdRequest struct {
	CampaignID       int64    `json:"campaign_id"`
	Name             string   `json:"name"`
	BidPerImpression int64    `json:"bid_per_impression"`
	BidPerClick      int64    `json:"bid_per_click"`
	FreqCapViews     int      `json:"freq_cap_views"`
	FreqCapHours     int      `json:"freq_cap_hours"`
	Targeting        []string `json:"targeting,omitempty"`
}

type statusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c := &domain.Campaign{
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		TotalBudget:     req.TotalBudget,
		DailySpendLimit: req.DailySpendLimit,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	}
	if err := h.manage.CreateCampaign(r.Context(), c); err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, statusResponse{ID: c.ID, Status: string(c.Status)})
}

func (h *Handler) handleCreateAd(w http.ResponseWriter, r *http.Request) {
	var req createAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	a := &domain.Ad{
		CampaignID:       req.CampaignID,
		Name:             req.Name,
		BidPerImpression: req.BidPerImpression,
		BidPerClick:      req.BidPerClick,
		FreqCapViews:     req.FreqCapViews,
		FreqCapHours:     req.FreqCapHours,
		Targeting:        req.Targeting,
	}
	if err := h.manage.CreateAd(r.Context(), a); err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, statusResponse{ID: a.ID, Status: string(a.Status)})
}

// handleCampaignEvent drives one lifecycle transition. The event comes
// from the URL; anything outside the transition table is a 409.
func (h *Handler) handleCampaignEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "campaignID")
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	event, ok := parseCampaignEvent(r)
	if !ok {
		http.Error(w, "unknown event", http.StatusBadRequest)
		return
	}
	status, err := h.manage.TransitionCampaign(r.Context(), id, event)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: string(status)})
}

func (h *Handler) handleAdEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "adID")
	if err != nil {
		http.Error(w, "invalid ad id", http.StatusBadRequest)
		return
	}
	event, ok := parseAdEvent(r)
	if !ok {
		http.Error(w, "unknown event", http.StatusBadRequest)
		return
	}
	status, err := h.manage.TransitionAd(r.Context(), id, event)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: string(status)})
}

func parseCampaignEvent(r *http.Request) (domain.CampaignEvent, bool) {
	switch e := domain.CampaignEvent(eventParam(r)); e {
	case domain.CampaignSubmit, domain.CampaignApprove, domain.CampaignActivate,
		domain.CampaignPause, domain.CampaignResume, domain.CampaignEnd:
		return e, true
	}
	return "", false
}

func parseAdEvent(r *http.Request) (domain.AdEvent, bool) {
	switch e := domain.AdEvent(eventParam(r)); e {
	case domain.AdApprove, domain.AdReject, domain.AdPause,
		domain.AdResume, domain.AdComplete:
		return e, true
	}
	return "", false
}
