package handler

import (
	"net/http"

	"github.com/iho/savingsledger/internal/adapter/http/dto"
	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// AuditHandler exposes the audit trail for back-office review.
type AuditHandler struct {
	auditRepo usecase.AuditRepository
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditRepo usecase.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// List lists audit log entries, newest first, filtered by query parameters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		UserID:       r.URL.Query().Get("user_id"),
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Limit:        parseIntQuery(r, "limit", 50),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	if start, err := parseDateQuery(r, "start_date"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err.Error())
		return
	} else if !start.IsZero() {
		filter.StartDate = &start
	}

	if end, err := parseDateQuery(r, "end_date"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date", err.Error())
		return
	} else if !end.IsZero() {
		filter.EndDate = &end
	}

	logs, err := h.auditRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAuditLogsResponse{
		Logs:  dto.AuditLogsFromDomain(logs),
		Total: int64(len(logs)),
	})
}
