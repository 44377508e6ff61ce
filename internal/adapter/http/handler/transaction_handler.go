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

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Deposit(ctx context.Context, input usecase.PostTransactionInput) (*domain.LedgerTransaction, error)
	Withdraw(ctx context.Context, input usecase.PostTransactionInput) (*domain.LedgerTransaction, error)
	PostInterest(ctx context.Context, input usecase.PostTransactionInput) (*domain.LedgerTransaction, error)
	HoldFunds(ctx context.Context, input usecase.HoldFundsInput) (*domain.LedgerTransaction, error)
	ReleaseFunds(ctx context.Context, holdTransactionID string) (*domain.LedgerTransaction, error)
	ReverseTransaction(ctx context.Context, transactionID string) (*domain.LedgerTransaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.LedgerTransaction, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.LedgerTransaction, error)
}

// TransactionHandler handles monetary postings and transaction reads.
type TransactionHandler struct {
	accountUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(accountUC TransactionService) *TransactionHandler {
	return &TransactionHandler{accountUC: accountUC}
}

// Deposit posts a deposit to an account.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.accountUC.Deposit, "failed to post deposit")
}

// Withdraw posts a withdrawal to an account.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.accountUC.Withdraw, "failed to post withdrawal")
}

// PostInterest posts an interest crediting transaction.
func (h *TransactionHandler) PostInterest(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.accountUC.PostInterest, "failed to post interest")
}

// post runs the shared decode-call-encode flow for monetary postings.
func (h *TransactionHandler) post(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, input usecase.PostTransactionInput) (*domain.LedgerTransaction, error),
	failureMsg string,
) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := fn(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, failureMsg, err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Hold earmarks funds on an account.
func (h *TransactionHandler) Hold(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.HoldFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.accountUC.HoldFunds(r.Context(), req.ToUseCaseInput(accountID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to hold funds", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Release posts the offsetting release for an earlier hold.
func (h *TransactionHandler) Release(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "id")
	if holdID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.accountUC.ReleaseFunds(r.Context(), holdID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to release funds", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Reverse voids a transaction with an offsetting reversal entry.
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.accountUC.ReverseTransaction(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to reverse transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.accountUC.GetTransaction(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ListByAccount lists an account's transactions.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	transactions, err := h.accountUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Total:        int64(len(transactions)),
	})
}
