package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polkiloo/samplestore/internal/adapter/gateway"
	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	pkgAuth "github.com/polkiloo/samplestore/internal/pkg/auth"
)

// PaymentReconciler is the part of Reconciler the webhook intake depends on.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, n model.PaymentNotification) (model.ReconcileResult, error)
}

// WebhookUseCase authenticates inbound notifications, normalizes both payload
// shapes and hands them to the reconciler.
type WebhookUseCase struct {
	verifier      *pkgAuth.Verifier
	gateway       gateway.Client
	reconciler    PaymentReconciler
	allowUnsigned bool
	logger        *slog.Logger
}

// NewWebhookUseCase constructs WebhookUseCase.
func NewWebhookUseCase(cfg *config.Config, logger *slog.Logger, verifier *pkgAuth.Verifier, client gateway.Client, reconciler *Reconciler) *WebhookUseCase {
	return newWebhookUseCase(cfg, logger, verifier, client, reconciler)
}

func newWebhookUseCase(cfg *config.Config, logger *slog.Logger, verifier *pkgAuth.Verifier, client gateway.Client, reconciler PaymentReconciler) *WebhookUseCase {
	return &WebhookUseCase{
		verifier:      verifier,
		gateway:       client,
		reconciler:    reconciler,
		allowUnsigned: cfg.AllowUnsignedWebhooks && !cfg.IsProduction(),
		logger:        logger,
	}
}

// Handle processes one decoded webhook.
func (u *WebhookUseCase) Handle(ctx context.Context, event model.WebhookEvent) (model.ReconcileResult, error) {
	switch e := event.(type) {
	case model.RelayEvent:
		return u.handleRelay(ctx, e)
	case model.GatewayEvent:
		return u.handleGateway(ctx, e)
	default:
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "unsupported payload"}, nil
	}
}

func (u *WebhookUseCase) handleRelay(ctx context.Context, e model.RelayEvent) (model.ReconcileResult, error) {
	if !u.verifier.VerifyRelay(e.Token) {
		if !u.allowUnsigned {
			u.logger.Warn("relay notification rejected", slog.String("preference_id", e.PreferenceID))
			return model.ReconcileResult{Outcome: model.OutcomeUnauthenticated, Reason: "invalid relay token"}, domainErrors.ErrUnauthenticated
		}
		u.logger.Warn("accepting unauthenticated relay notification", slog.String("preference_id", e.PreferenceID))
	}
	if e.PreferenceID == "" {
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "missing preference id"}, nil
	}

	key := model.IdentityKey{PreferenceID: e.PreferenceID}
	status := RelayGatewayStatus(e.Paid)
	return u.reconciler.Reconcile(ctx, model.PaymentNotification{
		Key:           key,
		Status:        mapStatusLogged(u.logger, status, key),
		GatewayStatus: status,
		Source:        model.SourceRelay,
	})
}

func (u *WebhookUseCase) handleGateway(ctx context.Context, e model.GatewayEvent) (model.ReconcileResult, error) {
	if e.Type != "payment" {
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "unsupported notification type"}, nil
	}
	if e.PaymentID == "" {
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "missing payment id"}, nil
	}

	logger := u.logger.With(slog.String("payment_id", e.PaymentID), slog.String("request_id", e.RequestID))
	signed := pkgAuth.SignatureInput{Header: e.Signature, RequestID: e.RequestID, DataID: e.PaymentID}
	if !u.verifier.Verify(signed) {
		if !u.allowUnsigned {
			logger.Warn("gateway notification signature rejected", slog.Bool("secret_configured", u.verifier.Configured()))
			return model.ReconcileResult{Outcome: model.OutcomeUnauthenticated, Reason: "invalid signature"}, domainErrors.ErrUnauthenticated
		}
		logger.Warn("accepting unsigned gateway notification")
	}

	payment, err := u.gateway.FetchPayment(ctx, e.PaymentID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrGatewayRejected) {
			logger.Warn("gateway refused payment lookup, notification dropped", slog.Any("error", err))
			return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "payment lookup rejected"}, nil
		}
		if !errors.Is(err, domainErrors.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", domainErrors.ErrUpstreamUnavailable, err)
		}
		logger.Warn("payment lookup failed", slog.Any("error", err))
		return model.ReconcileResult{Outcome: model.OutcomeUpstreamUnavailable, Reason: "payment lookup failed"}, err
	}
	if payment.ExternalReference == "" {
		logger.Info("payment without external reference ignored")
		return model.ReconcileResult{Outcome: model.OutcomeIgnored, Reason: "missing external reference"}, nil
	}

	key := model.IdentityKey{Reference: payment.ExternalReference}
	return u.reconciler.Reconcile(ctx, model.PaymentNotification{
		Key:           key,
		Status:        mapStatusLogged(logger, payment.Status, key),
		GatewayStatus: payment.Status,
		PaymentID:     payment.ID,
		Source:        model.SourceGateway,
	})
}
