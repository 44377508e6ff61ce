package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/savingsledger/internal/domain"
	"github.com/iho/savingsledger/internal/usecase"
)

// OpenAccountRequest represents a request to open a savings account.
type OpenAccountRequest struct {
	ClientName                string          `json:"client_name"`
	Currency                  string          `json:"currency"`
	AllowOverdraft            bool            `json:"allow_overdraft"`
	OverdraftLimit            decimal.Decimal `json:"overdraft_limit"`
	MinRequiredBalance        decimal.Decimal `json:"min_required_balance"`
	EnforceMinRequiredBalance bool            `json:"enforce_min_required_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		ClientName:                r.ClientName,
		Currency:                  r.Currency,
		AllowOverdraft:            r.AllowOverdraft,
		OverdraftLimit:            r.OverdraftLimit,
		MinRequiredBalance:        r.MinRequiredBalance,
		EnforceMinRequiredBalance: r.EnforceMinRequiredBalance,
	}
}

// PostTransactionRequest represents a monetary posting against an account.
// Date is the value date; omitting it posts as of today. Backdated postings
// are accepted.
type PostTransactionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
	RefNo  string          `json:"ref_no,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostTransactionRequest) ToUseCaseInput(accountID string) usecase.PostTransactionInput {
	return usecase.PostTransactionInput{
		AccountID: accountID,
		Amount:    r.Amount,
		Date:      r.Date,
		RefNo:     r.RefNo,
	}
}

// HoldFundsRequest represents a request to earmark funds on an account.
type HoldFundsRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	LienAllowed bool            `json:"lien_allowed"`
}

// ToUseCaseInput converts to use case input.
func (r *HoldFundsRequest) ToUseCaseInput(accountID string) usecase.HoldFundsInput {
	return usecase.HoldFundsInput{
		AccountID:   accountID,
		Amount:      r.Amount,
		LienAllowed: r.LienAllowed,
	}
}

// AttachChargeRequest represents a request to attach a catalog charge to an
// account. Nil override fields inherit from the definition.
type AttachChargeRequest struct {
	ChargeDefinitionID string           `json:"charge_definition_id"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	AppliedBase        decimal.Decimal  `json:"applied_base"`
	DueDate            *time.Time       `json:"due_date,omitempty"`
	FeeInterval        *int             `json:"fee_interval,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AttachChargeRequest) ToUseCaseInput(accountID string) usecase.AttachChargeInput {
	return usecase.AttachChargeInput{
		AccountID:          accountID,
		ChargeDefinitionID: r.ChargeDefinitionID,
		Amount:             r.Amount,
		AppliedBase:        r.AppliedBase,
		DueDate:            r.DueDate,
		FeeInterval:        r.FeeInterval,
	}
}

// PayChargeRequest represents a request to settle a charge. A zero amount
// settles the full outstanding balance.
type PayChargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PayChargeRequest) ToUseCaseInput(chargeID string) usecase.PayChargeInput {
	return usecase.PayChargeInput{
		ChargeID: chargeID,
		Amount:   r.Amount,
		Date:     r.Date,
	}
}

// UpdateChargeRequest represents administrative edits to an unpaid charge.
type UpdateChargeRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	AppliedBase decimal.Decimal  `json:"applied_base"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	FeeInterval *int             `json:"fee_interval,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateChargeRequest) ToUseCaseInput(chargeID string) usecase.UpdateChargeInput {
	return usecase.UpdateChargeInput{
		ChargeID:    chargeID,
		Amount:      r.Amount,
		AppliedBase: r.AppliedBase,
		DueDate:     r.DueDate,
		FeeInterval: r.FeeInterval,
	}
}

// CreateChargeDefinitionRequest represents a new charge catalog entry.
type CreateChargeDefinitionRequest struct {
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

// ToDomain converts to a domain charge definition.
func (r *CreateChargeDefinitionRequest) ToDomain() domain.ChargeDefinition {
	return domain.ChargeDefinition{
		Name:            r.Name,
		Currency:        r.Currency,
		TimeType:        domain.ChargeTimeType(r.TimeType),
		CalculationType: domain.ChargeCalculationType(r.CalculationType),
		Amount:          r.Amount,
		FeeOnMonth:      time.Month(r.FeeOnMonth),
		FeeOnDay:        r.FeeOnDay,
		FeeInterval:     r.FeeInterval,
		Penalty:         r.Penalty,
	}
}

// RunSchedulerRequest represents a manual scheduler trigger. AsOf defaults
// to the current time.
type RunSchedulerRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}
