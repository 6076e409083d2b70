package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sales (
            id BIGSERIAL PRIMARY KEY,
            preference_id TEXT UNIQUE,
            external_reference TEXT UNIQUE NOT NULL,
            referrer_code TEXT NOT NULL,
            customer_name TEXT NOT NULL,
            customer_email TEXT NOT NULL,
            customer_phone TEXT NOT NULL DEFAULT '',
            customer_document TEXT NOT NULL DEFAULT '',
            shipping_address JSONB NOT NULL DEFAULT '{}'::jsonb,
            amount NUMERIC(12,2) NOT NULL,
            payment_status TEXT NOT NULL DEFAULT 'pending_payment',
            fulfillment_status TEXT NOT NULL DEFAULT 'pending',
            redemption_code TEXT UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS affiliates (
            id BIGSERIAL PRIMARY KEY,
            code TEXT UNIQUE NOT NULL,
            status TEXT NOT NULL DEFAULT 'inactive',
            sale_id BIGINT CONSTRAINT affiliates_sale_id_key UNIQUE REFERENCES sales(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS withdrawals (
            id BIGSERIAL PRIMARY KEY,
            affiliate_id BIGINT NOT NULL REFERENCES affiliates(id),
            amount NUMERIC(12,2) NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            payout_key TEXT NOT NULL,
            payout_key_type TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            paid_at TIMESTAMPTZ
        )`,
	`CREATE INDEX IF NOT EXISTS idx_sales_status_created ON sales(payment_status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_referrer ON sales(referrer_code)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status, created_at DESC)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
