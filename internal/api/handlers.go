package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/pkg/httputil"
	"github.com/ignite/pressroom/internal/service/campaign"
	"github.com/ignite/pressroom/internal/service/post"
)

// Handlers holds the API handler dependencies.
type Handlers struct {
	campaigns *campaign.Service
	posts     *post.Service
	db        *sql.DB
}

// NewHandlers creates the API handler set.
func NewHandlers(campaigns *campaign.Service, posts *post.Service, db *sql.DB) *Handlers {
	return &Handlers{campaigns: campaigns, posts: posts, db: db}
}

// HealthCheck reports process and database health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			status = "degraded"
			dbStatus = err.Error()
		}
	}
	httputil.OK(w, map[string]string{"status": status, "database": dbStatus})
}

// writeServiceError maps service-layer errors onto HTTP statuses:
// validation 400 with the violated field, unknown entity 404, illegal
// state 409, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var ferr *domain.FieldError
	switch {
	case errors.As(err, &ferr):
		httputil.FieldError(w, ferr.Field, ferr.Reason)
	case errors.Is(err, campaign.ErrNotFound), errors.Is(err, post.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, campaign.ErrInvalidTransition),
		errors.Is(err, campaign.ErrNotEditable),
		errors.Is(err, campaign.ErrHasActivity),
		errors.Is(err, post.ErrInvalidTransition),
		errors.Is(err, post.ErrNotEditable),
		errors.Is(err, post.ErrPastDue):
		httputil.Conflict(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
