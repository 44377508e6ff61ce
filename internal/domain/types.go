package domain

// TransactionType identifies the kind of monetary movement a ledger
// transaction records. Whether a type is credit or debit is a fixed
// property of the type itself; see IsCreditType and IsDebitType.
type TransactionType string

const (
	TransactionDeposit            TransactionType = "deposit"
	TransactionWithdrawal         TransactionType = "withdrawal"
	TransactionInterestPosting    TransactionType = "interest_posting"
	TransactionOverdraftInterest  TransactionType = "overdraft_interest"
	TransactionWithdrawalFee      TransactionType = "withdrawal_fee"
	TransactionAnnualFee          TransactionType = "annual_fee"
	TransactionPayCharge          TransactionType = "pay_charge"
	TransactionWaiveCharge        TransactionType = "waive_charge"
	TransactionDividendPayout     TransactionType = "dividend_payout"
	TransactionTransferInitiation TransactionType = "transfer_initiation"
	TransactionTransferApproval   TransactionType = "transfer_approval"
	TransactionTransferWithdrawal TransactionType = "transfer_withdrawal"
	TransactionWithholdTax        TransactionType = "withhold_tax"
	TransactionEscheat            TransactionType = "escheat"
	TransactionAmountHold         TransactionType = "amount_hold"
	TransactionAmountRelease      TransactionType = "amount_release"
)

// IsCreditType reports whether the type increases the account balance.
// Transfer approvals are status-only and waivers are non-monetary; neither
// classifies as credit or debit.
func (t TransactionType) IsCreditType() bool {
	switch t {
	case TransactionDeposit,
		TransactionInterestPosting,
		TransactionDividendPayout,
		TransactionTransferWithdrawal,
		TransactionAmountRelease:
		return true
	default:
		return false
	}
}

// IsDebitType reports whether the type decreases the account balance.
func (t TransactionType) IsDebitType() bool {
	switch t {
	case TransactionWithdrawal,
		TransactionWithdrawalFee,
		TransactionAnnualFee,
		TransactionPayCharge,
		TransactionOverdraftInterest,
		TransactionWithholdTax,
		TransactionEscheat,
		TransactionAmountHold,
		TransactionTransferInitiation:
		return true
	default:
		return false
	}
}

// ChargeTimeType identifies when a charge becomes due.
type ChargeTimeType string

const (
	ChargeTimeSpecifiedDueDate  ChargeTimeType = "specified_due_date"
	ChargeTimeAnnualFee         ChargeTimeType = "annual_fee"
	ChargeTimeMonthlyFee        ChargeTimeType = "monthly_fee"
	ChargeTimeWeeklyFee         ChargeTimeType = "weekly_fee"
	ChargeTimeWithdrawalFee     ChargeTimeType = "withdrawal_fee"
	ChargeTimeOverdraftFee      ChargeTimeType = "overdraft_fee"
	ChargeTimeSavingsActivation ChargeTimeType = "savings_activation"
	ChargeTimeSavingsClosure    ChargeTimeType = "savings_closure"
	ChargeTimeSavingsNoActivity ChargeTimeType = "savings_no_activity"
)

// IsRecurring reports whether the charge re-opens a new liability cycle
// upon full settlement of the current one.
func (t ChargeTimeType) IsRecurring() bool {
	switch t {
	case ChargeTimeAnnualFee, ChargeTimeMonthlyFee, ChargeTimeWeeklyFee:
		return true
	default:
		return false
	}
}

// CanOverrideAccountRules reports whether a charge of this time type may be
// collected even when it would breach the account's minimum-balance
// constraint. Activation and withdrawal fees never may.
func (t ChargeTimeType) CanOverrideAccountRules() bool {
	switch t {
	case ChargeTimeSavingsActivation, ChargeTimeWithdrawalFee:
		return false
	default:
		return true
	}
}

// ChargeCalculationType identifies how a charge amount is derived.
type ChargeCalculationType string

const (
	ChargeCalculationFlat                       ChargeCalculationType = "flat"
	ChargeCalculationPercentOfAmount            ChargeCalculationType = "percent_of_amount"
	ChargeCalculationPercentOfAmountAndInterest ChargeCalculationType = "percent_of_amount_and_interest"
	ChargeCalculationPercentOfInterest          ChargeCalculationType = "percent_of_interest"
	ChargeCalculationPercentOfDisbursement      ChargeCalculationType = "percent_of_disbursement"
)

// IsSupportedForSavings reports whether this calculation type is computed at
// the savings layer. The interest- and disbursement-linked variants depend
// on loan-side data that savings accounts do not carry.
func (t ChargeCalculationType) IsSupportedForSavings() bool {
	switch t {
	case ChargeCalculationFlat, ChargeCalculationPercentOfAmount:
		return true
	default:
		return false
	}
}

// IsPercentage reports whether the amount derives from a percentage of a
// base value.
func (t ChargeCalculationType) IsPercentage() bool {
	return t != ChargeCalculationFlat
}
