package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	pkgAuth "github.com/polkiloo/samplestore/internal/pkg/auth"
	testhelpers "github.com/polkiloo/samplestore/internal/test"
)

const (
	testWebhookSecret = "whsec"
	testRelayToken    = "relay-token"
)

type webhookFixture struct {
	*reconcilerFixture
	gateway  *testhelpers.GatewayStub
	verifier *pkgAuth.Verifier
	uc       *WebhookUseCase
}

func newWebhookFixture(cfg *config.Config, logger *slog.Logger) *webhookFixture {
	rf := newReconcilerFixture(logger)
	gw := testhelpers.NewGatewayStub()
	verifier := pkgAuth.NewVerifier(testWebhookSecret).WithRelayToken(testRelayToken)
	return &webhookFixture{
		reconcilerFixture: rf,
		gateway:           gw,
		verifier:          verifier,
		uc:                NewWebhookUseCase(cfg, logger, verifier, gw, rf.rec),
	}
}

func (f *webhookFixture) signedEvent(paymentID string) model.GatewayEvent {
	return model.GatewayEvent{
		Type:      "payment",
		Action:    "payment.updated",
		PaymentID: paymentID,
		RequestID: "req-1",
		Signature: "ts=1700000000,v1=" + f.verifier.Sign(paymentID, "req-1", "1700000000"),
	}
}

func (f *webhookFixture) payment(id, status, reference string) {
	f.gateway.Payments[id] = model.GatewayPayment{
		ID:                id,
		Status:            status,
		ExternalReference: reference,
		Amount:            decimal.RequireFromString("19.90"),
	}
}

func productionConfig() *config.Config {
	cfg := testConfig()
	cfg.Environment = config.EnvProduction
	return cfg
}

func developmentConfig(allowUnsigned bool) *config.Config {
	cfg := testConfig()
	cfg.Environment = config.EnvDevelopment
	cfg.AllowUnsignedWebhooks = allowUnsigned
	return cfg
}

func TestWebhookGatewayApprovedIssuesCode(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.store.AddSale(testhelpers.FakeSale("AMO-100", "pref-100"))
	f.payment("9001", "approved", "AMO-100")

	res, err := f.uc.Handle(context.Background(), f.signedEvent("9001"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, res.Outcome)
	require.NotNil(t, res.RedemptionCode)

	again, err := f.uc.Handle(context.Background(), f.signedEvent("9001"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAlreadyProcessed, again.Outcome)
	assert.Equal(t, *res.RedemptionCode, *again.RedemptionCode)
	assert.Equal(t, 2, f.gateway.Fetches)
}

func TestWebhookGatewayRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.store.AddSale(testhelpers.FakeSale("AMO-101", ""))
	f.payment("9002", "approved", "AMO-101")

	event := f.signedEvent("9002")
	event.Signature = "ts=1700000000,v1=deadbeef"

	res, err := f.uc.Handle(context.Background(), event)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthenticated)
	assert.Equal(t, model.OutcomeUnauthenticated, res.Outcome)
	assert.Zero(t, f.gateway.Fetches, "unauthenticated payloads must not reach the gateway")

	event = f.signedEvent("9002")
	event.PaymentID = "9003"
	_, err = f.uc.Handle(context.Background(), event)
	assert.ErrorIs(t, err, domainErrors.ErrUnauthenticated, "signature is bound to the payment id")
}

func TestWebhookFailOpenOnlyOutsideProduction(t *testing.T) {
	logger, buf := bufferLogger()
	f := newWebhookFixture(developmentConfig(true), logger)
	f.store.AddSale(testhelpers.FakeSale("AMO-102", ""))
	f.payment("9004", "approved", "AMO-102")

	res, err := f.uc.Handle(context.Background(), model.GatewayEvent{Type: "payment", PaymentID: "9004"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, res.Outcome)
	assert.Contains(t, buf.String(), "accepting unsigned gateway notification")

	cfg := productionConfig()
	cfg.AllowUnsignedWebhooks = true
	prod := newWebhookFixture(cfg, discardLogger())
	_, err = prod.uc.Handle(context.Background(), model.GatewayEvent{Type: "payment", PaymentID: "9004"})
	assert.ErrorIs(t, err, domainErrors.ErrUnauthenticated)
}

func TestWebhookIgnoresNonPaymentTopics(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())

	for _, event := range []model.GatewayEvent{
		{Type: "merchant_order", PaymentID: "1"},
		{Type: "payment"},
	} {
		res, err := f.uc.Handle(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeIgnored, res.Outcome)
	}
	assert.Zero(t, f.gateway.Fetches)
}

func TestWebhookUpstreamUnavailable(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.gateway.Err = errors.New("dial tcp: timeout")

	res, err := f.uc.Handle(context.Background(), f.signedEvent("9005"))
	assert.ErrorIs(t, err, domainErrors.ErrUpstreamUnavailable)
	assert.Equal(t, model.OutcomeUpstreamUnavailable, res.Outcome)
}

func TestWebhookUnknownPaymentIsIgnored(t *testing.T) {
	logger, buf := bufferLogger()
	f := newWebhookFixture(productionConfig(), logger)
	f.gateway.Err = fmt.Errorf("fetch payment 123456: %w", domainErrors.ErrGatewayRejected)

	res, err := f.uc.Handle(context.Background(), f.signedEvent("123456"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIgnored, res.Outcome)
	assert.Equal(t, "payment lookup rejected", res.Reason)
	assert.Zero(t, f.store.Transactions)
	assert.Contains(t, buf.String(), "level=WARN")

	f.gateway.Err = nil
	res, err = f.uc.Handle(context.Background(), f.signedEvent("654321"))
	require.NoError(t, err, "a payment id the gateway does not know is not an outage")
	assert.Equal(t, model.OutcomeIgnored, res.Outcome)
}

func TestWebhookPaymentWithoutReferenceIgnored(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.payment("9006", "approved", "")

	res, err := f.uc.Handle(context.Background(), f.signedEvent("9006"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIgnored, res.Outcome)
	assert.Zero(t, f.store.Transactions)
}

func TestWebhookUnknownGatewayStatusWarnsAndStaysPending(t *testing.T) {
	logger, buf := bufferLogger()
	f := newWebhookFixture(productionConfig(), logger)
	f.store.AddSale(testhelpers.FakeSale("AMO-103", ""))
	f.payment("9007", "brand_new_status", "AMO-103")

	res, err := f.uc.Handle(context.Background(), f.signedEvent("9007"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAlreadyProcessed, res.Outcome)
	assert.Contains(t, buf.String(), "unknown gateway status")
}

func TestWebhookGatewayUnknownSale(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.payment("9008", "approved", "AMO-404")

	res, err := f.uc.Handle(context.Background(), f.signedEvent("9008"))
	assert.ErrorIs(t, err, domainErrors.ErrSaleNotFound)
	assert.Equal(t, model.OutcomeSaleNotFound, res.Outcome)
}

func TestWebhookRelay(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.store.AddSale(testhelpers.FakeSale("AMO-104", "pref-104"))
	ctx := context.Background()

	res, err := f.uc.Handle(ctx, model.RelayEvent{PreferenceID: "pref-104", Paid: false, Token: testRelayToken})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAlreadyProcessed, res.Outcome)

	res, err = f.uc.Handle(ctx, model.RelayEvent{PreferenceID: "pref-104", Paid: true, Token: testRelayToken})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, res.Outcome)
	assert.NotNil(t, res.RedemptionCode)

	res, err = f.uc.Handle(ctx, model.RelayEvent{Token: testRelayToken})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIgnored, res.Outcome)
}

func TestWebhookRelayRequiresToken(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	f.store.AddSale(testhelpers.FakeSale("AMO-105", "pref-105"))

	for _, token := range []string{"", "wrong"} {
		res, err := f.uc.Handle(context.Background(), model.RelayEvent{PreferenceID: "pref-105", Paid: true, Token: token})
		assert.ErrorIs(t, err, domainErrors.ErrUnauthenticated)
		assert.Equal(t, model.OutcomeUnauthenticated, res.Outcome)
	}
	assert.Zero(t, f.store.Transactions)

	dev := newWebhookFixture(developmentConfig(true), discardLogger())
	dev.store.AddSale(testhelpers.FakeSale("AMO-105", "pref-105"))
	res, err := dev.uc.Handle(context.Background(), model.RelayEvent{PreferenceID: "pref-105", Paid: true})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, res.Outcome)
}

func TestWebhookUnsupportedEvent(t *testing.T) {
	f := newWebhookFixture(productionConfig(), discardLogger())
	res, err := f.uc.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIgnored, res.Outcome)
}
