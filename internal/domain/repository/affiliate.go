package repository

import (
	"context"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

// AffiliateRepository describes persistence operations with affiliates.
type AffiliateRepository interface {
	Create(ctx context.Context, code string, saleID int64, status model.AffiliateStatus) (*model.Affiliate, error)
	GetByCode(ctx context.Context, code string) (*model.Affiliate, error)
}

// CodeSpace is the single logical namespace of redemption codes.
// Taken reports whether code is used by any sale or any affiliate.
type CodeSpace interface {
	Taken(ctx context.Context, code string) (bool, error)
}
