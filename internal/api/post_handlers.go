package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/pressroom/internal/pkg/httputil"
	"github.com/ignite/pressroom/internal/service/post"
)

func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	f := post.ListFilter{
		Status:     q.Get("status"),
		CampaignID: q.Get("campaign_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.FieldError(w, "from", "must be RFC3339")
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.FieldError(w, "to", "must be RFC3339")
			return
		}
		f.To = &t
	}

	items, total, err := h.posts.List(r.Context(), siteID(r), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"posts": items, "total": total})
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input post.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	p, err := h.posts.Create(r.Context(), siteID(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.Created(w, p)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.Get(r.Context(), siteID(r), chi.URLParam(r, "postID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var u post.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	if err := h.posts.Update(r.Context(), siteID(r), chi.URLParam(r, "postID"), u); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"updated": true})
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), siteID(r), chi.URLParam(r, "postID")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) ConfirmPost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Confirm(r.Context(), siteID(r), chi.URLParam(r, "postID")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "scheduled"})
}

func (h *Handlers) CancelPost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Cancel(r.Context(), siteID(r), chi.URLParam(r, "postID")); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "cancelled"})
}
