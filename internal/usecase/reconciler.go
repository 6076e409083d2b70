package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/samplestore/internal/adapter/events"
	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/domain/repository"
	"github.com/polkiloo/samplestore/internal/pkg/lock"
)

// Reconciler applies normalized payment notifications to the sale state machine.
// Work for one identity key is serialized by the locker and by a row lock held
// for the duration of the store transaction.
type Reconciler struct {
	store     repository.Transactor
	allocator *CodeAllocator
	locker    lock.Locker
	publisher events.Publisher
	retries   int
	logger    *slog.Logger
	now       func() time.Time
}

// NewReconciler constructs Reconciler.
func NewReconciler(cfg *config.Config, logger *slog.Logger, store repository.Transactor, allocator *CodeAllocator, locker lock.Locker, publisher events.Publisher) *Reconciler {
	return &Reconciler{
		store:     store,
		allocator: allocator,
		locker:    locker,
		publisher: publisher,
		retries:   cfg.ConflictRetries,
		logger:    logger,
		now:       time.Now,
	}
}

// Reconcile handles one notification. The returned result always carries an
// outcome; err is non-nil only for sale_not_found, allocator_exhausted and
// persistence_error.
func (r *Reconciler) Reconcile(ctx context.Context, n model.PaymentNotification) (model.ReconcileResult, error) {
	logger := r.logger.With(
		slog.String("key", n.Key.String()),
		slog.String("source", string(n.Source)),
		slog.String("status", string(n.Status)),
	)
	if n.Key.Empty() {
		logger.Info("notification without identity key ignored")
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "missing identity key"}, nil
	}
	if !n.Status.Valid() {
		logger.Warn("notification with invalid status ignored")
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "invalid status"}, nil
	}

	release, err := r.locker.Acquire(ctx, n.Key.String())
	if err != nil {
		logger.Error("acquire reconcile lock", slog.Any("error", err))
		return model.ReconcileResult{Outcome: model.OutcomePersistenceError, Reason: "lock unavailable"},
			fmt.Errorf("lock %s: %w", n.Key, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("release reconcile lock", slog.Any("error", err))
		}
	}()

	var (
		res   model.ReconcileResult
		event *model.TransitionEvent
	)
	for attempt := 0; attempt <= r.retries; attempt++ {
		res, event, err = r.apply(ctx, n)
		if !errors.Is(err, domainErrors.ErrCodeConflict) {
			break
		}
		logger.Warn("redemption code lost a race, retrying", slog.Int("attempt", attempt+1))
	}
	if errors.Is(err, domainErrors.ErrCodeConflict) {
		err = fmt.Errorf("%w: %w", domainErrors.ErrAllocatorExhausted, err)
	}
	if err != nil {
		return r.fail(logger, res, err)
	}

	if event != nil {
		if err := r.publisher.Publish(ctx, *event); err != nil {
			logger.Warn("publish transition", slog.Any("error", err))
		}
		logger.Info("sale reconciled",
			slog.Int64("sale_id", res.SaleID),
			slog.String("from", string(event.From)),
			slog.String("to", string(event.To)))
	} else {
		logger.Info("notification produced no change",
			slog.Int64("sale_id", res.SaleID),
			slog.String("outcome", string(res.Outcome)),
			slog.String("reason", res.Reason))
	}
	return res, nil
}

func (r *Reconciler) fail(logger *slog.Logger, res model.ReconcileResult, err error) (model.ReconcileResult, error) {
	switch {
	case errors.Is(err, domainErrors.ErrSaleNotFound):
		logger.Warn("notification for unknown sale")
		return model.ReconcileResult{Outcome: model.OutcomeSaleNotFound, Reason: "sale not found"}, err
	case errors.Is(err, domainErrors.ErrAlreadyProcessed):
		// The code guard lost to a concurrent writer that already issued the code.
		return model.ReconcileResult{Outcome: model.OutcomeAlreadyProcessed, SaleID: res.SaleID, Reason: "code already issued"}, nil
	case errors.Is(err, domainErrors.ErrAllocatorExhausted):
		logger.Error("redemption code allocation exhausted", slog.Int64("sale_id", res.SaleID), slog.Any("error", err))
		return model.ReconcileResult{Outcome: model.OutcomeAllocatorExhausted, SaleID: res.SaleID, Reason: "no free redemption code"}, err
	default:
		logger.Error("reconcile failed", slog.Int64("sale_id", res.SaleID), slog.Any("error", err))
		return model.ReconcileResult{Outcome: model.OutcomePersistenceError, SaleID: res.SaleID, Reason: "persistence failure"}, err
	}
}

// apply runs one attempt inside a store transaction. Any error rolls back every write.
func (r *Reconciler) apply(ctx context.Context, n model.PaymentNotification) (model.ReconcileResult, *model.TransitionEvent, error) {
	var (
		res   model.ReconcileResult
		event *model.TransitionEvent
	)
	err := r.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		res, event = model.ReconcileResult{}, nil

		sale, err := repos.Sales().LockByKey(ctx, n.Key)
		if err != nil {
			return err
		}
		res.SaleID = sale.ID
		res.Status = sale.PaymentStatus
		res.RedemptionCode = sale.RedemptionCode

		issue := n.Status == model.PaymentStatusPaid && !sale.HasCode()
		switch {
		case n.Status == model.PaymentStatusPaid && sale.HasCode():
			res.Outcome = model.OutcomeAlreadyProcessed
			res.Reason = "code already issued"
			return nil
		case sale.PaymentStatus == n.Status && !issue:
			res.Outcome = model.OutcomeAlreadyProcessed
			res.Reason = "status unchanged"
			return nil
		case sale.PaymentStatus != n.Status && !sale.PaymentStatus.CanTransition(n.Status):
			res.Outcome = model.OutcomeIgnored
			res.Reason = fmt.Sprintf("stale transition %s -> %s", sale.PaymentStatus, n.Status)
			return nil
		}

		if issue {
			code, err := r.allocator.Allocate(ctx, repos.Codes())
			if err != nil {
				return err
			}
			if err := repos.Sales().AssignCode(ctx, sale.ID, code); err != nil {
				return err
			}
			if _, err := repos.Affiliates().Create(ctx, code, sale.ID, model.AffiliateInactive); err != nil {
				return err
			}
			res.RedemptionCode = &code
		} else if err := repos.Sales().UpdatePaymentStatus(ctx, sale.ID, n.Status); err != nil {
			return err
		}

		res.Outcome = model.OutcomeUpdated
		res.Status = n.Status
		event = &model.TransitionEvent{
			SaleID:         sale.ID,
			Key:            n.Key.String(),
			From:           sale.PaymentStatus,
			To:             n.Status,
			RedemptionCode: res.RedemptionCode,
			At:             r.now(),
		}
		return nil
	})
	return res, event, err
}
