package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/de-tools/snapshot-sweeper/pkg/models/api"
	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
	"github.com/de-tools/snapshot-sweeper/pkg/services/retention"
	"github.com/de-tools/snapshot-sweeper/pkg/services/scheduler"
	"github.com/de-tools/snapshot-sweeper/pkg/services/sweeper"
	"github.com/rs/zerolog"
)

type Trigger interface {
	Trigger(ctx context.Context) (*domain.SweepReport, error)
	Last() (*domain.SweepReport, error)
}

type Handler struct {
	trigger Trigger
	clock   func() time.Time
}

func NewHandler(trigger Trigger) *Handler {
	return &Handler{
		trigger: trigger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	// the sweep outlives a client that hangs up
	ctx := context.WithoutCancel(r.Context())

	report, err := h.trigger.Trigger(ctx)
	resp := api.SweepResponse{Report: report}
	status := http.StatusOK

	switch {
	case errors.Is(err, scheduler.ErrSweepInProgress):
		status = http.StatusConflict
		resp.Error = err.Error()
	case err != nil:
		status = http.StatusInternalServerError
		resp.Error = err.Error()
		resp.PendingDeletes = sweeper.PendingDeletes(err)
	}

	writeJSON(r.Context(), w, status, resp)
}

func (h *Handler) LastSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.trigger.Last()
	if report == nil && err == nil {
		writeJSON(r.Context(), w, http.StatusNotFound, api.SweepResponse{Error: "no sweep has run yet"})
		return
	}

	resp := api.SweepResponse{Report: report}
	if err != nil {
		resp.Error = err.Error()
		resp.PendingDeletes = sweeper.PendingDeletes(err)
	}
	writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *Handler) RetainSet(w http.ResponseWriter, r *http.Request) {
	set := retention.ComputeRetainSet(h.clock(), retention.RetentionMonths)
	writeJSON(r.Context(), w, http.StatusOK, api.RetainSetResponse{Days: set.Days()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
