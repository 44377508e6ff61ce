package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/savingsledger/internal/adapter/http/dto"
	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	EndOfDayBalances(ctx context.Context, input usecase.EndOfDayBalancesInput) ([]domain.EndOfDayBalance, error)
	GetBalance(ctx context.Context, accountID string) (domain.Money, error)
	CheckConsistency(ctx context.Context, accountID string) (usecase.ConsistencyReport, error)
}

// LedgerHandler handles read-side ledger reporting.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// EndOfDayBalances builds the daily balance series for a reporting window.
// The window is given by the from/to query parameters.
func (h *LedgerHandler) EndOfDayBalances(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
		return
	}

	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
		return
	}

	if from.IsZero() || to.IsZero() {
		writeError(w, http.StatusBadRequest, "missing reporting window", "from and to query parameters are required")
		return
	}

	balances, err := h.ledgerUC.EndOfDayBalances(r.Context(), usecase.EndOfDayBalancesInput{
		AccountID: accountID,
		From:      from,
		To:        to,
	})
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to build balance report", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.EndOfDayBalancesFromDomain(balances))
}

// GetBalance reports an account's current balance.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), accountID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balance", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountID: accountID,
		Balance:   balance,
	})
}

// CheckConsistency replays an account's transactions and compares the
// computed closing balance with the stored one.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	report, err := h.ledgerUC.CheckConsistency(r.Context(), accountID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to check consistency", err.Error())

		return
	}

	status := http.StatusOK
	if !report.Consistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyFromReport(report))
}
