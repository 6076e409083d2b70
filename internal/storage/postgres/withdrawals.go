package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
)

const withdrawalSelect = `SELECT w.id, w.affiliate_id, a.code, w.amount, w.status,
                                 w.payout_key, w.payout_key_type, w.created_at, w.paid_at
                          FROM withdrawals w JOIN affiliates a ON a.id = w.affiliate_id`

type withdrawalRepository struct {
	q querier
}

func scanWithdrawal(row rowScanner) (*model.Withdrawal, error) {
	var w model.Withdrawal
	err := row.Scan(&w.ID, &w.AffiliateID, &w.AffiliateCode, &w.Amount, &w.Status,
		&w.PayoutKey, &w.PayoutKeyType, &w.CreatedAt, &w.PaidAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id int64) (*model.Withdrawal, error) {
	w, err := scanWithdrawal(r.q.QueryRow(ctx, withdrawalSelect+` WHERE w.id=$1`, id))
	if err != nil {
		return nil, notFound(err, domainErrors.ErrNotFound)
	}
	return w, nil
}

func (r *withdrawalRepository) List(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	query := withdrawalSelect + ` WHERE ($1 = '' OR w.status = $1) ORDER BY w.created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var result []model.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkPaid flips a pending withdrawal. The status guard makes a repeated call a no-op.
func (r *withdrawalRepository) MarkPaid(ctx context.Context, id int64) (*model.Withdrawal, bool, error) {
	const query = `UPDATE withdrawals SET status=$1, paid_at=NOW() WHERE id=$2 AND status=$3`
	tag, err := r.q.Exec(ctx, query, model.WithdrawalPaid, id, model.WithdrawalPending)
	if err != nil {
		return nil, false, fmt.Errorf("mark withdrawal paid: %w", err)
	}
	w, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return w, tag.RowsAffected() > 0, nil
}

func (r *withdrawalRepository) Ledger(ctx context.Context, affiliateID int64) (*model.AffiliateLedger, error) {
	const query = `SELECT
                       (SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE affiliate_id=$1 AND status=$2),
                       (SELECT COUNT(*) FROM sales s JOIN affiliates a ON s.referrer_code = a.code
                        WHERE a.id=$1 AND s.payment_status=$3)`
	ledger := model.AffiliateLedger{AffiliateID: affiliateID}
	if err := r.q.QueryRow(ctx, query, affiliateID, model.WithdrawalPaid, model.PaymentStatusPaid).Scan(&ledger.TotalPaid, &ledger.SaleCount); err != nil {
		return nil, fmt.Errorf("affiliate ledger: %w", err)
	}
	return &ledger, nil
}
