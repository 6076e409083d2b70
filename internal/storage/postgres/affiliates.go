package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
)

type affiliateRepository struct {
	q querier
}

// codeSpace checks both columns that hold redemption codes in one round trip.
type codeSpace struct {
	q querier
}

func (r *affiliateRepository) Create(ctx context.Context, code string, saleID int64, status model.AffiliateStatus) (*model.Affiliate, error) {
	const query = `INSERT INTO affiliates (code, status, sale_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	a := model.Affiliate{Code: code, Status: status, SaleID: saleID}
	if err := r.q.QueryRow(ctx, query, code, status, saleID).Scan(&a.ID, &a.CreatedAt); err != nil {
		if constraint, ok := uniqueViolationOn(err); ok {
			if constraint == affiliateSaleConstraint {
				return nil, fmt.Errorf("create affiliate for sale %d: %w", saleID, domainErrors.ErrAlreadyProcessed)
			}
			return nil, fmt.Errorf("create affiliate %s: %w", code, domainErrors.ErrCodeConflict)
		}
		return nil, fmt.Errorf("create affiliate: %w", err)
	}
	return &a, nil
}

func (r *affiliateRepository) GetByCode(ctx context.Context, code string) (*model.Affiliate, error) {
	const query = `SELECT id, code, status, COALESCE(sale_id, 0), created_at FROM affiliates WHERE code=$1`
	var a model.Affiliate
	if err := r.q.QueryRow(ctx, query, code).Scan(&a.ID, &a.Code, &a.Status, &a.SaleID, &a.CreatedAt); err != nil {
		return nil, notFound(err, domainErrors.ErrNotFound)
	}
	return &a, nil
}

func (c *codeSpace) Taken(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sales WHERE redemption_code=$1)
                       OR EXISTS (SELECT 1 FROM affiliates WHERE code=$1)`
	var taken bool
	if err := c.q.QueryRow(ctx, query, code).Scan(&taken); err != nil {
		return false, fmt.Errorf("check code space: %w", err)
	}
	return taken, nil
}
