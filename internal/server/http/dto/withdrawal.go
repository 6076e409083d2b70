package dto

import "time"

// WithdrawalResponse describes an affiliate payout request.
type WithdrawalResponse struct {
	ID            int64      `json:"id"`
	AffiliateID   int64      `json:"affiliate_id"`
	AffiliateCode string     `json:"affiliate_code"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	PayoutKey     string     `json:"payout_key"`
	PayoutKeyType string     `json:"payout_key_type"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// LedgerResponse summarises what an affiliate was paid and referred.
type LedgerResponse struct {
	TotalPaid string `json:"total_paid"`
	SaleCount int    `json:"sale_count"`
}

// WithdrawalDetailResponse is a withdrawal together with its affiliate ledger.
type WithdrawalDetailResponse struct {
	WithdrawalResponse
	Ledger LedgerResponse `json:"ledger"`
}

// PayWithdrawalResponse reports whether the call changed the withdrawal.
type PayWithdrawalResponse struct {
	Withdrawal WithdrawalResponse `json:"withdrawal"`
	Changed    bool               `json:"changed"`
}
