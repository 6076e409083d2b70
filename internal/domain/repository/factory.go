package repository

import "context"

// Factory describes access to different domain repositories.
// Repositories obtained inside Transactor.WithinTransaction share one transaction.
type Factory interface {
	Sales() SaleRepository
	Affiliates() AffiliateRepository
	Withdrawals() WithdrawalRepository
	Codes() CodeSpace
}

// Transactor runs fn against repositories bound to a single serializable unit.
// Returning an error from fn rolls every write back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Factory) error) error
}
