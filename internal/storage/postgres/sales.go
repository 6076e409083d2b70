package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
)

const saleColumns = `id, preference_id, external_reference, referrer_code,
                     customer_name, customer_email, customer_phone, customer_document,
                     shipping_address, amount, payment_status, fulfillment_status, redemption_code,
                     created_at, updated_at`

type saleRepository struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*model.Sale, error) {
	var s model.Sale
	err := row.Scan(
		&s.ID, &s.PreferenceID, &s.ExternalReference, &s.ReferrerCode,
		&s.Customer.Name, &s.Customer.Email, &s.Customer.Phone, &s.Customer.Document,
		&s.Shipping, &s.Amount, &s.PaymentStatus, &s.FulfillmentStatus, &s.RedemptionCode,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) (*model.Sale, error) {
	const query = `INSERT INTO sales (preference_id, external_reference, referrer_code,
                       customer_name, customer_email, customer_phone, customer_document,
                       shipping_address, amount, payment_status, fulfillment_status)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                   RETURNING id, created_at, updated_at`
	created := *sale
	if created.PaymentStatus == "" {
		created.PaymentStatus = model.PaymentStatusPending
	}
	if created.FulfillmentStatus == "" {
		created.FulfillmentStatus = model.FulfillmentPending
	}
	err := r.q.QueryRow(ctx, query,
		created.PreferenceID, created.ExternalReference, created.ReferrerCode,
		created.Customer.Name, created.Customer.Email, created.Customer.Phone, created.Customer.Document,
		created.Shipping, created.Amount, created.PaymentStatus, created.FulfillmentStatus,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert sale: %w", err)
	}
	return &created, nil
}

func (r *saleRepository) GetByID(ctx context.Context, id int64) (*model.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id=$1`
	sale, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domainErrors.ErrNotFound)
	}
	return sale, nil
}

func (r *saleRepository) GetByKey(ctx context.Context, key model.IdentityKey) (*model.Sale, error) {
	return r.byKey(ctx, key, "")
}

func (r *saleRepository) LockByKey(ctx context.Context, key model.IdentityKey) (*model.Sale, error) {
	return r.byKey(ctx, key, " FOR UPDATE")
}

// byKey resolves by preference id first and falls back to the external reference.
func (r *saleRepository) byKey(ctx context.Context, key model.IdentityKey, suffix string) (*model.Sale, error) {
	lookups := []struct {
		column string
		value  string
	}{
		{"preference_id", key.PreferenceID},
		{"external_reference", key.Reference},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		query := `SELECT ` + saleColumns + ` FROM sales WHERE ` + l.column + `=$1` + suffix
		sale, err := scanSale(r.q.QueryRow(ctx, query, l.value))
		if err == nil {
			return sale, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("lookup sale by %s: %w", l.column, err)
		}
	}
	return nil, domainErrors.ErrSaleNotFound
}

func (r *saleRepository) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	const query = `UPDATE sales SET payment_status=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrSaleNotFound
	}
	return nil
}

func (r *saleRepository) AssignCode(ctx context.Context, id int64, code string) error {
	const query = `UPDATE sales
                   SET redemption_code=$1, payment_status=$2, fulfillment_status=$3, updated_at=NOW()
                   WHERE id=$4 AND redemption_code IS NULL`
	tag, err := r.q.Exec(ctx, query, code, model.PaymentStatusPaid, model.FulfillmentAwaitingPrint, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assign code %s: %w", code, domainErrors.ErrCodeConflict)
		}
		return fmt.Errorf("assign code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *saleRepository) UpdateFulfillment(ctx context.Context, id int64, from, to model.FulfillmentStatus) error {
	const query = `UPDATE sales SET fulfillment_status=$1, updated_at=NOW()
                   WHERE id=$2 AND fulfillment_status=$3 AND redemption_code IS NOT NULL`
	tag, err := r.q.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update fulfillment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvalidTransition
	}
	return nil
}

func (r *saleRepository) List(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error) {
	var (
		where []string
		args  []any
	)
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where = append(where, fmt.Sprintf("payment_status=$%d", len(args)))
	}

	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.query(ctx, query, args...)
}

func (r *saleRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales
              WHERE payment_status=$1 AND created_at < $2
              ORDER BY created_at LIMIT $3`
	return r.query(ctx, query, model.PaymentStatusPending, before, limit)
}

func (r *saleRepository) query(ctx context.Context, query string, args ...any) ([]model.Sale, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var result []model.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *saleRepository) PaidStats(ctx context.Context, todayStart, weekStart time.Time) (*model.DashboardStats, error) {
	const query = `SELECT COUNT(*) FILTER (WHERE created_at >= $1),
                          COUNT(*) FILTER (WHERE created_at >= $2),
                          COUNT(*)
                   FROM sales WHERE payment_status=$3`
	var stats model.DashboardStats
	if err := r.q.QueryRow(ctx, query, todayStart, weekStart, model.PaymentStatusPaid).Scan(&stats.Today, &stats.SevenDays, &stats.Total); err != nil {
		return nil, fmt.Errorf("paid stats: %w", err)
	}
	return &stats, nil
}
