package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/pkg/httputil"
	"github.com/ignite/pressroom/internal/service/campaign"
)

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.campaigns.List(r.Context(), siteID(r), campaign.ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"campaigns": items, "total": total})
}

func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.campaigns.Create(r.Context(), siteID(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.GetWithStats(r.Context(), siteID(r), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var u campaign.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	if err := h.campaigns.Update(r.Context(), siteID(r), chi.URLParam(r, "campaignID"), u); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"updated": true})
}

func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(r.Context(), siteID(r), chi.URLParam(r, "campaignID")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// PlanCampaign previews the publish slots the campaign's cadence produces
// inside its window.
func (h *Handlers) PlanCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), siteID(r), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	dates, err := campaign.PlanDates(c, limit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.RFC3339)
	}
	httputil.OK(w, map[string]interface{}{"campaign_id": c.ID, "slots": out})
}

func (h *Handlers) ActivateCampaign(w http.ResponseWriter, r *http.Request) {
	h.transitionCampaign(w, r, h.campaigns.Activate, domain.CampaignActive)
}

func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	h.transitionCampaign(w, r, h.campaigns.Pause, domain.CampaignPaused)
}

func (h *Handlers) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	h.transitionCampaign(w, r, h.campaigns.Resume, domain.CampaignActive)
}

func (h *Handlers) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	h.transitionCampaign(w, r, h.campaigns.Cancel, domain.CampaignCancelled)
}

func (h *Handlers) transitionCampaign(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, siteID, id string) error, to domain.CampaignStatus) {
	if err := op(r.Context(), siteID(r), chi.URLParam(r, "campaignID")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": string(to)})
}
