package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the two-state lifecycle of an affiliate cash-out.
type WithdrawalStatus string

const (
	WithdrawalPending WithdrawalStatus = "pending"
	WithdrawalPaid    WithdrawalStatus = "paid"
)

// Withdrawal represents an affiliate commission payout request.
type Withdrawal struct {
	ID            int64
	AffiliateID   int64
	AffiliateCode string
	Amount        decimal.Decimal
	Status        WithdrawalStatus
	PayoutKey     string
	PayoutKeyType string
	CreatedAt     time.Time
	PaidAt        *time.Time
}

// AffiliateLedger aggregates payouts and referrals of one affiliate.
type AffiliateLedger struct {
	AffiliateID int64
	TotalPaid   decimal.Decimal
	SaleCount   int
}

// WithdrawalDetail is a withdrawal together with its affiliate ledger.
type WithdrawalDetail struct {
	Withdrawal Withdrawal
	Ledger     AffiliateLedger
}
