package domain

import "errors"

var (
	// Money errors
	ErrCurrencyMismatch = errors.New("money operation across different currencies")

	// Interval errors
	ErrInvalidInterval = errors.New("interval end date precedes start date")

	// Charge errors
	ErrMissingMandatoryField      = errors.New("mandatory charge field is missing")
	ErrUnsupportedCalculationType = errors.New("charge calculation type is not supported for savings")
	ErrInvalidChargeState         = errors.New("charge is not in a state that allows this operation")
	ErrChargeNotActive            = errors.New("charge is not active")
	ErrChargeNotFound             = errors.New("charge not found")
	ErrChargeDefinitionNotFound   = errors.New("charge definition not found")

	// Account and transaction errors
	ErrAccountNotFound          = errors.New("account not found")
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrInvalidAmount            = errors.New("amount must be positive")
	ErrInsufficientBalance      = errors.New("insufficient balance and overdraft is not allowed")
	ErrTransactionAlreadyVoided = errors.New("transaction is already reversed")
)
