package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/savingsledger/internal/adapter/http/dto"
	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// ChargeService defines the behavior needed by ChargeHandler.
type ChargeService interface {
	AttachCharge(ctx context.Context, input usecase.AttachChargeInput) (domain.AccountCharge, error)
	PayCharge(ctx context.Context, input usecase.PayChargeInput) (*domain.LedgerTransaction, error)
	WaiveCharge(ctx context.Context, chargeID string) (*domain.LedgerTransaction, error)
	UpdateCharge(ctx context.Context, input usecase.UpdateChargeInput) (domain.AccountCharge, error)
	InactivateCharge(ctx context.Context, chargeID string) (domain.AccountCharge, error)
	GetCharge(ctx context.Context, id string) (domain.AccountCharge, error)
	ListCharges(ctx context.Context, accountID string) ([]domain.AccountCharge, error)
	CreateChargeDefinition(ctx context.Context, def domain.ChargeDefinition) (domain.ChargeDefinition, error)
	GetChargeDefinition(ctx context.Context, id string) (domain.ChargeDefinition, error)
	ListChargeDefinitions(ctx context.Context) ([]domain.ChargeDefinition, error)
}

// ChargeHandler handles charge lifecycle and catalog HTTP requests.
type ChargeHandler struct {
	chargeUC ChargeService
}

// NewChargeHandler creates a new ChargeHandler.
func NewChargeHandler(chargeUC ChargeService) *ChargeHandler {
	return &ChargeHandler{chargeUC: chargeUC}
}

// Attach attaches a catalog charge to an account.
func (h *ChargeHandler) Attach(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.AttachChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	charge, err := h.chargeUC.AttachCharge(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to attach charge", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.ChargeFromDomain(charge))
}

// Pay settles a charge, in full or partially.
func (h *ChargeHandler) Pay(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "id")
	if chargeID == "" {
		writeError(w, http.StatusBadRequest, "missing charge ID", "")
		return
	}

	var req dto.PayChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.chargeUC.PayCharge(r.Context(), req.ToUseCaseInput(chargeID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to pay charge", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Waive forgives a charge's outstanding balance.
func (h *ChargeHandler) Waive(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "id")
	if chargeID == "" {
		writeError(w, http.StatusBadRequest, "missing charge ID", "")
		return
	}

	txn, err := h.chargeUC.WaiveCharge(r.Context(), chargeID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to waive charge", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Update edits a charge that has no payments recorded yet.
func (h *ChargeHandler) Update(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "id")
	if chargeID == "" {
		writeError(w, http.StatusBadRequest, "missing charge ID", "")
		return
	}

	var req dto.UpdateChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	charge, err := h.chargeUC.UpdateCharge(r.Context(), req.ToUseCaseInput(chargeID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to update charge", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChargeFromDomain(charge))
}

// Inactivate retires a charge, writing off any outstanding balance.
func (h *ChargeHandler) Inactivate(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "id")
	if chargeID == "" {
		writeError(w, http.StatusBadRequest, "missing charge ID", "")
		return
	}

	charge, err := h.chargeUC.InactivateCharge(r.Context(), chargeID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to inactivate charge", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChargeFromDomain(charge))
}

// Get retrieves a charge by ID.
func (h *ChargeHandler) Get(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "id")
	if chargeID == "" {
		writeError(w, http.StatusBadRequest, "missing charge ID", "")
		return
	}

	charge, err := h.chargeUC.GetCharge(r.Context(), chargeID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get charge", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChargeFromDomain(charge))
}

// ListByAccount lists an account's charges.
func (h *ChargeHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	charges, err := h.chargeUC.ListCharges(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list charges", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListChargesResponse{
		Charges: dto.ChargesFromDomain(charges),
		Total:   int64(len(charges)),
	})
}

// CreateDefinition adds a charge product to the catalog.
func (h *ChargeHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateChargeDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	def, err := h.chargeUC.CreateChargeDefinition(r.Context(), req.ToDomain())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create charge definition", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.ChargeDefinitionFromDomain(def))
}

// GetDefinition retrieves a catalog definition by ID.
func (h *ChargeHandler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing definition ID", "")
		return
	}

	def, err := h.chargeUC.GetChargeDefinition(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get charge definition", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ChargeDefinitionFromDomain(def))
}

// ListDefinitions lists the charge catalog.
func (h *ChargeHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := h.chargeUC.ListChargeDefinitions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list charge definitions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ChargeDefinitionsFromDomain(defs))
}
