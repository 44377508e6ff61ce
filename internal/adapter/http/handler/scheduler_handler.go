package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/iho/savingsledger/internal/adapter/http/dto"
	"github.com/iho/savingsledger/internal/usecase"
)

// SchedulerService defines the behavior needed by SchedulerHandler.
type SchedulerService interface {
	ApplyChargesDue(ctx context.Context, asOf time.Time) (usecase.ApplyChargesResult, error)
}

// SchedulerHandler exposes a manual trigger for the recurring-charge
// collection pass, for operators and cron-style callers.
type SchedulerHandler struct {
	schedulerUC SchedulerService
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(schedulerUC SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{schedulerUC: schedulerUC}
}

// Run executes one collection pass. An empty body runs as of now.
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.RunSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	result, err := h.schedulerUC.ApplyChargesDue(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scheduler run failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SchedulerRunResponse{
		Due:       result.Due,
		Collected: result.Collected,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	})
}
