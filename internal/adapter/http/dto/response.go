package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// AccountResponse represents a savings account in API responses.
type AccountResponse struct {
	ID                        string       `json:"id"`
	ClientName                string       `json:"client_name"`
	Currency                  string       `json:"currency"`
	Balance                   domain.Money `json:"balance"`
	AllowOverdraft            bool         `json:"allow_overdraft"`
	OverdraftLimit            domain.Money `json:"overdraft_limit"`
	MinRequiredBalance        domain.Money `json:"min_required_balance"`
	EnforceMinRequiredBalance bool         `json:"enforce_min_required_balance"`
	Status                    string       `json:"status"`
	Version                   int64        `json:"version"`
	ActivatedOn               time.Time    `json:"activated_on"`
	CreatedAt                 time.Time    `json:"created_at"`
	UpdatedAt                 time.Time    `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.SavingsAccount) *AccountResponse {
	return &AccountResponse{
		ID:                        a.ID,
		ClientName:                a.ClientName,
		Currency:                  a.Currency,
		Balance:                   a.Balance,
		AllowOverdraft:            a.AllowOverdraft,
		OverdraftLimit:            a.OverdraftLimit,
		MinRequiredBalance:        a.MinRequiredBalance,
		EnforceMinRequiredBalance: a.EnforceMinRequiredBalance,
		Status:                    string(a.Status),
		Version:                   a.Version,
		ActivatedOn:               a.ActivatedOn,
		CreatedAt:                 a.CreatedAt,
		UpdatedAt:                 a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.SavingsAccount) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// ChargePaidByResponse links a transaction to the charge it settled.
type ChargePaidByResponse struct {
	ChargeID string       `json:"charge_id"`
	Amount   domain.Money `json:"amount"`
	Penalty  bool         `json:"penalty"`
}

// TaxDetailResponse represents a withheld tax component.
type TaxDetailResponse struct {
	Component string       `json:"component"`
	Amount    domain.Money `json:"amount"`
}

// TransactionResponse represents a ledger transaction in API responses.
type TransactionResponse struct {
	ID                    string                 `json:"id"`
	AccountID             string                 `json:"account_id"`
	Type                  string                 `json:"type"`
	TransactionDate       time.Time              `json:"transaction_date"`
	Amount                domain.Money           `json:"amount"`
	Reversed              bool                   `json:"reversed"`
	Reversal              bool                   `json:"reversal"`
	OriginalTransactionID string                 `json:"original_transaction_id,omitempty"`
	RunningBalance        domain.Money           `json:"running_balance"`
	OverdraftAmount       domain.Money           `json:"overdraft_amount"`
	TaxDetails            []TaxDetailResponse    `json:"tax_details,omitempty"`
	ChargesPaid           []ChargePaidByResponse `json:"charges_paid,omitempty"`
	RefNo                 string                 `json:"ref_no,omitempty"`
	LienAllowed           bool                   `json:"lien_allowed,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.LedgerTransaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:                    t.ID,
		AccountID:             t.AccountID,
		Type:                  string(t.TypeOf),
		TransactionDate:       t.TransactionDate,
		Amount:                t.Amount,
		Reversed:              t.Reversed,
		Reversal:              t.Reversal,
		OriginalTransactionID: t.OriginalTransactionID,
		RunningBalance:        t.RunningBalance,
		OverdraftAmount:       t.OverdraftAmount,
		RefNo:                 t.RefNo,
		LienAllowed:           t.LienAllowed,
		CreatedAt:             t.CreatedAt,
	}

	for _, td := range t.TaxDetails {
		resp.TaxDetails = append(resp.TaxDetails, TaxDetailResponse{
			Component: td.Component,
			Amount:    td.Amount,
		})
	}

	for _, cp := range t.ChargesPaid {
		resp.ChargesPaid = append(resp.ChargesPaid, ChargePaidByResponse{
			ChargeID: cp.ChargeID,
			Amount:   cp.Amount,
			Penalty:  cp.Penalty,
		})
	}

	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.LedgerTransaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// ChargeResponse represents an account charge in API responses.
type ChargeResponse struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id"`
	ChargeID          string          `json:"charge_id"`
	TimeType          string          `json:"time_type"`
	CalculationType   string          `json:"calculation_type"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	FeeOnMonth        int             `json:"fee_on_month,omitempty"`
	FeeOnDay          int             `json:"fee_on_day,omitempty"`
	FeeInterval       int             `json:"fee_interval,omitempty"`
	Amount            domain.Money    `json:"amount"`
	Percentage        decimal.Decimal `json:"percentage"`
	AmountPaid        domain.Money    `json:"amount_paid"`
	AmountWaived      domain.Money    `json:"amount_waived"`
	AmountWrittenOff  domain.Money    `json:"amount_written_off"`
	AmountOutstanding domain.Money    `json:"amount_outstanding"`
	Penalty           bool            `json:"penalty"`
	Paid              bool            `json:"paid"`
	Waived            bool            `json:"waived"`
	Active            bool            `json:"active"`
	InactivationDate  *time.Time      `json:"inactivation_date,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ChargeFromDomain converts a domain charge to a response.
func ChargeFromDomain(c domain.AccountCharge) *ChargeResponse {
	return &ChargeResponse{
		ID:                c.ID,
		AccountID:         c.AccountID,
		ChargeID:          c.ChargeID,
		TimeType:          string(c.TimeType),
		CalculationType:   string(c.CalculationType),
		DueDate:           c.DueDate,
		FeeOnMonth:        int(c.FeeOnMonth),
		FeeOnDay:          c.FeeOnDay,
		FeeInterval:       c.FeeInterval,
		Amount:            c.Amount,
		Percentage:        c.Percentage,
		AmountPaid:        c.AmountPaid,
		AmountWaived:      c.AmountWaived,
		AmountWrittenOff:  c.AmountWrittenOff,
		AmountOutstanding: c.AmountOutstanding,
		Penalty:           c.Penalty,
		Paid:              c.Paid,
		Waived:            c.Waived,
		Active:            c.Active,
		InactivationDate:  c.InactivationDate,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ChargesFromDomain converts domain charges to responses.
func ChargesFromDomain(charges []domain.AccountCharge) []*ChargeResponse {
	result := make([]*ChargeResponse, len(charges))
	for i, c := range charges {
		result[i] = ChargeFromDomain(c)
	}
	return result
}

// ListChargesResponse wraps an account's charges.
type ListChargesResponse struct {
	Charges []*ChargeResponse `json:"charges"`
	Total   int64             `json:"total"`
}

// ChargeDefinitionResponse represents a catalog entry in API responses.
type ChargeDefinitionResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Currency        string          `json:"currency"`
	TimeType        string          `json:"time_type"`
	CalculationType string          `json:"calculation_type"`
	Amount          decimal.Decimal `json:"amount"`
	FeeOnMonth      int             `json:"fee_on_month,omitempty"`
	FeeOnDay        int             `json:"fee_on_day,omitempty"`
	FeeInterval     int             `json:"fee_interval,omitempty"`
	Penalty         bool            `json:"penalty"`
}

// ChargeDefinitionFromDomain converts a domain definition to a response.
func ChargeDefinitionFromDomain(d domain.ChargeDefinition) *ChargeDefinitionResponse {
	return &ChargeDefinitionResponse{
		ID:              d.ID,
		Name:            d.Name,
		Currency:        d.Currency,
		TimeType:        string(d.TimeType),
		CalculationType: string(d.CalculationType),
		Amount:          d.Amount,
		FeeOnMonth:      int(d.FeeOnMonth),
		FeeOnDay:        d.FeeOnDay,
		FeeInterval:     d.FeeInterval,
		Penalty:         d.Penalty,
	}
}

// ChargeDefinitionsFromDomain converts domain definitions to responses.
func ChargeDefinitionsFromDomain(defs []domain.ChargeDefinition) []*ChargeDefinitionResponse {
	result := make([]*ChargeDefinitionResponse, len(defs))
	for i, d := range defs {
		result[i] = ChargeDefinitionFromDomain(d)
	}
	return result
}

// EndOfDayBalanceResponse is one row of the daily balance report.
type EndOfDayBalanceResponse struct {
	Date            time.Time    `json:"date"`
	OpeningBalance  domain.Money `json:"opening_balance"`
	EndOfDayBalance domain.Money `json:"end_of_day_balance"`
	NumberOfDays    int          `json:"number_of_days"`
}

// EndOfDayBalancesFromDomain converts the domain report rows to responses.
func EndOfDayBalancesFromDomain(balances []domain.EndOfDayBalance) []EndOfDayBalanceResponse {
	result := make([]EndOfDayBalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = EndOfDayBalanceResponse{
			Date:            b.Date,
			OpeningBalance:  b.OpeningBalance,
			EndOfDayBalance: b.EndOfDayBalance,
			NumberOfDays:    b.NumberOfDays,
		}
	}
	return result
}

// BalanceResponse reports an account's current balance.
type BalanceResponse struct {
	AccountID string       `json:"account_id"`
	Balance   domain.Money `json:"balance"`
}

// ConsistencyResponse reports the outcome of a ledger consistency check.
type ConsistencyResponse struct {
	AccountID        string       `json:"account_id"`
	Consistent       bool         `json:"consistent"`
	StoredBalance    domain.Money `json:"stored_balance"`
	ComputedBalance  domain.Money `json:"computed_balance"`
	TransactionCount int          `json:"transaction_count"`
}

// ConsistencyFromReport converts a use case report to a response.
func ConsistencyFromReport(r usecase.ConsistencyReport) ConsistencyResponse {
	return ConsistencyResponse{
		AccountID:        r.AccountID,
		Consistent:       r.Consistent,
		StoredBalance:    r.StoredBalance,
		ComputedBalance:  r.ComputedBalance,
		TransactionCount: r.TransactionCount,
	}
}

// SchedulerRunResponse summarizes one scheduler pass.
type SchedulerRunResponse struct {
	Due       int `json:"due"`
	Collected int `json:"collected"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
