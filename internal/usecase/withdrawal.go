package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/domain/repository"
)

// WithdrawalUseCase manages affiliate payout requests.
type WithdrawalUseCase struct {
	withdrawals repository.WithdrawalRepository
	logger      *slog.Logger
}

// NewWithdrawalUseCase constructs WithdrawalUseCase.
func NewWithdrawalUseCase(w repository.WithdrawalRepository, logger *slog.Logger) *WithdrawalUseCase {
	return &WithdrawalUseCase{withdrawals: w, logger: logger}
}

// List returns withdrawals newest first, optionally narrowed to one status.
func (u *WithdrawalUseCase) List(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	if status != "" && status != model.WithdrawalPending && status != model.WithdrawalPaid {
		return nil, domainErrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return u.withdrawals.List(ctx, status, limit, offset)
}

// Get returns the withdrawal with its affiliate's payout and referral totals.
func (u *WithdrawalUseCase) Get(ctx context.Context, id int64) (*model.WithdrawalDetail, error) {
	w, err := u.withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger, err := u.withdrawals.Ledger(ctx, w.AffiliateID)
	if err != nil {
		return nil, err
	}
	return &model.WithdrawalDetail{Withdrawal: *w, Ledger: *ledger}, nil
}

// MarkPaid settles a pending withdrawal. Settling it again returns changed=false.
func (u *WithdrawalUseCase) MarkPaid(ctx context.Context, id int64) (*model.Withdrawal, bool, error) {
	w, changed, err := u.withdrawals.MarkPaid(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if changed {
		u.logger.Info("withdrawal paid",
			slog.Int64("withdrawal_id", w.ID),
			slog.Int64("affiliate_id", w.AffiliateID),
			slog.String("amount", w.Amount.StringFixed(2)))
	}
	return w, changed, nil
}
