package domain

import "time"

// Event types
const (
	EventTypeTransactionPosted   = "transaction.posted"
	EventTypeTransactionReversed = "transaction.reversed"
	EventTypeChargePaid          = "charge.paid"
	EventTypeChargeWaived        = "charge.waived"
	EventTypeHoldCreated         = "hold.created"
	EventTypeHoldReleased        = "hold.released"
	EventTypeAccountOpened       = "account.opened"
)

// Aggregate types
const (
	AggregateTypeAccount     = "account"
	AggregateTypeTransaction = "transaction"
	AggregateTypeCharge      = "charge"
)

// OutboxEvent represents an event to be published after commit.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionPostedEvent payload
type TransactionPostedEvent struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Date          string `json:"date"`
}

// TransactionReversedEvent payload
type TransactionReversedEvent struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Amount        string `json:"amount"`
}

// ChargePaidEvent payload
type ChargePaidEvent struct {
	ChargeID      string `json:"charge_id"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

// ChargeWaivedEvent payload
type ChargeWaivedEvent struct {
	ChargeID  string `json:"charge_id"`
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}
