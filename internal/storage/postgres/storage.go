package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/samplestore/internal/domain/repository"
)

const (
	uniqueViolation = "23505"

	// affiliateSaleConstraint guards one affiliate per sale.
	affiliateSaleConstraint = "affiliates_sale_id_key"
)

// pgxPool is the part of *pgxpool.Pool the storage relies on.
type pgxPool interface {
	querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// repos binds repositories to one querier, either the pool or a transaction.
type repos struct {
	q querier
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories outside of a transaction.
func (s *Storage) Sales() repository.SaleRepository {
	return s.repos().Sales()
}

func (s *Storage) Affiliates() repository.AffiliateRepository {
	return s.repos().Affiliates()
}

func (s *Storage) Withdrawals() repository.WithdrawalRepository {
	return s.repos().Withdrawals()
}

func (s *Storage) Codes() repository.CodeSpace {
	return s.repos().Codes()
}

func (s *Storage) repos() *repos {
	return &repos{q: s.pool}
}

func (r *repos) Sales() repository.SaleRepository {
	return &saleRepository{q: r.q}
}

func (r *repos) Affiliates() repository.AffiliateRepository {
	return &affiliateRepository{q: r.q}
}

func (r *repos) Withdrawals() repository.WithdrawalRepository {
	return &withdrawalRepository{q: r.q}
}

func (r *repos) Codes() repository.CodeSpace {
	return &codeSpace{q: r.q}
}

// WithinTransaction executes fn with repositories bound to one transaction.
// Any error from fn rolls the transaction back.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Factory) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Warn("rollback failed", slog.Any("error", rbErr))
			}
		} else if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	err = fn(ctx, &repos{q: tx})
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

func isUniqueViolation(err error) bool {
	_, ok := uniqueViolationOn(err)
	return ok
}

// uniqueViolationOn reports the constraint a unique violation tripped.
func uniqueViolationOn(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func notFound(err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}
