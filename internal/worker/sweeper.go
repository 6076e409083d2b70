package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/usecase"
)

// SweepFacade exposes the subset of application functionality required by the sweeper.
type SweepFacade interface {
	PendingSales(ctx context.Context, before time.Time, limit int) ([]model.Sale, error)
	SearchPayments(ctx context.Context, reference string) ([]model.GatewayPayment, error)
	Reconcile(ctx context.Context, n model.PaymentNotification) (model.ReconcileResult, error)
}

// Sweeper periodically re-checks pending sales against the gateway and feeds
// the results through the reconciler. It recovers sales whose webhook was lost.
type Sweeper struct {
	facade   SweepFacade
	interval time.Duration
	minAge   time.Duration
	batch    int
	workers  int
	logger   *slog.Logger
	now      func() time.Time

	jobs   chan model.Sale
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the sweeper worker pool. A zero interval disables it.
func NewSweeper(facade SweepFacade, interval, minAge time.Duration, batch, workers int, logger *slog.Logger) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	if batch <= 0 {
		batch = 1
	}
	return &Sweeper{
		facade:   facade,
		interval: interval,
		minAge:   minAge,
		batch:    batch,
		workers:  workers,
		logger:   logger.With(slog.String("component", "sweeper")),
		now:      time.Now,
	}
}

// Enabled reports whether the sweeper runs at all.
func (s *Sweeper) Enabled() bool {
	return s.interval > 0
}

// Start launches background processing.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("pending sale sweeper disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.jobs = make(chan model.Sale, s.batch)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx)
		}
	}
}

func (s *Sweeper) fetchAndDispatch(ctx context.Context) {
	sales, err := s.facade.PendingSales(ctx, s.now().Add(-s.minAge), s.batch)
	if err != nil {
		s.logger.Warn("fetch pending sales failed", slog.Any("error", err))
		return
	}
	for _, sale := range sales {
		select {
		case <-ctx.Done():
			return
		case s.jobs <- sale:
		}
	}
}

func (s *Sweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case sale, ok := <-s.jobs:
			if !ok {
				return
			}
			s.sweep(ctx, sale)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, sale model.Sale) {
	logger := s.logger.With(slog.Int64("sale_id", sale.ID), slog.String("reference", sale.ExternalReference))

	payments, err := s.facade.SearchPayments(ctx, sale.ExternalReference)
	if err != nil {
		logger.Warn("payment search failed", slog.Any("error", err))
		return
	}
	payment, ok := pickPayment(payments)
	if !ok {
		logger.Debug("no gateway payment yet")
		return
	}

	status, known := usecase.MapGatewayStatus(payment.Status)
	if !known {
		logger.Warn("unknown gateway status, treating as pending", slog.String("gateway_status", payment.Status))
	}
	if status == model.PaymentStatusPending {
		return
	}

	res, err := s.facade.Reconcile(ctx, model.PaymentNotification{
		Key:           model.IdentityKey{Reference: sale.ExternalReference},
		Status:        status,
		GatewayStatus: payment.Status,
		PaymentID:     payment.ID,
		Source:        model.SourceSweeper,
	})
	if err != nil {
		return
	}
	if res.Outcome == model.OutcomeUpdated {
		logger.Info("sweeper recovered missed notification", slog.String("status", string(res.Status)))
	}
}

// pickPayment prefers an approved payment, otherwise the newest one.
// The gateway lists payments newest first.
func pickPayment(payments []model.GatewayPayment) (model.GatewayPayment, bool) {
	if len(payments) == 0 {
		return model.GatewayPayment{}, false
	}
	for _, p := range payments {
		if status, _ := usecase.MapGatewayStatus(p.Status); status == model.PaymentStatusPaid {
			return p, true
		}
	}
	return payments[0], true
}
