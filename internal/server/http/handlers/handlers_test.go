package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/server/http/dto"
	"github.com/polkiloo/samplestore/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/samplestore/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func performRequest(t *testing.T, method, pattern, target string, handler gin.HandlerFunc, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, pattern, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestCurrentAdmin(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentAdmin(c); got != "" {
		t.Fatalf("expected empty admin when not set, got %q", got)
	}

	c.Set(middleware.AdminContextKey, "ops")
	if got := CurrentAdmin(c); got != "ops" {
		t.Fatalf("expected ops, got %q", got)
	}
}

func TestWebhookDecodesRelayPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		paid bool
	}{
		{name: "boolean true", body: `{"payment_link_id":"pref-1","payment_link_status":true}`, paid: true},
		{name: "string true", body: `{"payment_link_id":"pref-1","payment_link_status":"true"}`, paid: true},
		{name: "boolean false", body: `{"payment_link_id":"pref-1","payment_link_status":false}`},
		{name: "other string", body: `{"payment_link_id":"pref-1","payment_link_status":"pending"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := &testhelpers.WebhookFacadeStub{}
			headers := map[string]string{"Content-Type": "application/json", relayTokenHeader: "relay-token"}
			resp := performRequest(t, http.MethodPost, "/hook", "/hook", NewWebhookHandler(facade).Receive, []byte(tt.body), headers)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.Code)
			}
			events := facade.Events()
			if len(events) != 1 {
				t.Fatalf("expected one event, got %d", len(events))
			}
			relay, ok := events[0].(model.RelayEvent)
			if !ok {
				t.Fatalf("expected relay event, got %T", events[0])
			}
			if relay.PreferenceID != "pref-1" || relay.Paid != tt.paid || relay.Token != "relay-token" {
				t.Fatalf("unexpected relay event %+v", relay)
			}
		})
	}
}

func TestWebhookDecodesGatewayPayload(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		typ    string
		id     string
	}{
		{name: "numeric id", target: "/hook", body: `{"type":"payment","action":"payment.updated","data":{"id":123456}}`, typ: "payment", id: "123456"},
		{name: "string id", target: "/hook", body: `{"type":"payment","data":{"id":"987"}}`, typ: "payment", id: "987"},
		{name: "query params", target: "/hook?type=payment&data.id=555", body: ``, typ: "payment", id: "555"},
		{name: "legacy topic", target: "/hook?topic=merchant_order&id=77", body: `{}`, typ: "merchant_order", id: "77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := &testhelpers.WebhookFacadeStub{}
			headers := map[string]string{
				"Content-Type":  "application/json",
				signatureHeader: "ts=1,v1=abc",
				requestIDHeader: "req-1",
			}
			resp := performRequest(t, http.MethodPost, "/hook", tt.target, NewWebhookHandler(facade).Receive, []byte(tt.body), headers)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
			}
			events := facade.Events()
			if len(events) != 1 {
				t.Fatalf("expected one event, got %d", len(events))
			}
			gw, ok := events[0].(model.GatewayEvent)
			if !ok {
				t.Fatalf("expected gateway event, got %T", events[0])
			}
			if gw.Type != tt.typ || gw.PaymentID != tt.id {
				t.Fatalf("unexpected gateway event %+v", gw)
			}
			if gw.Signature != "ts=1,v1=abc" || gw.RequestID != "req-1" {
				t.Fatalf("signature headers not carried: %+v", gw)
			}
		})
	}
}

func TestWebhookRejectsUnknownShape(t *testing.T) {
	for name, body := range map[string]string{
		"not json":        `{{{`,
		"empty object":    `{}`,
		"foreign":         `{"hello":"world"}`,
		"relay no status": `{"payment_link_id":"pref-1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			facade := &testhelpers.WebhookFacadeStub{}
			resp := performRequest(t, http.MethodPost, "/hook", "/hook", NewWebhookHandler(facade).Receive, []byte(body), jsonHeaders)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if len(facade.Events()) != 0 {
				t.Fatal("unknown shapes must not reach the facade")
			}
		})
	}
}

func TestWebhookOutcomeMapping(t *testing.T) {
	code := "123456"
	tests := []struct {
		outcome model.ReconcileOutcome
		err     error
		status  int
		body    string
	}{
		{outcome: model.OutcomeUpdated, status: http.StatusOK, body: "ok"},
		{outcome: model.OutcomeAlreadyProcessed, status: http.StatusOK, body: "already_processed"},
		{outcome: model.OutcomeIgnored, status: http.StatusOK, body: "ignored"},
		{outcome: model.OutcomeUnauthenticated, err: domainErrors.ErrUnauthenticated, status: http.StatusUnauthorized, body: "error"},
		{outcome: model.OutcomeSaleNotFound, err: domainErrors.ErrSaleNotFound, status: http.StatusNotFound, body: "error"},
		{outcome: model.OutcomeUpstreamUnavailable, err: domainErrors.ErrUpstreamUnavailable, status: http.StatusServiceUnavailable, body: "error"},
		{outcome: model.OutcomePersistenceError, err: errors.New("db down"), status: http.StatusInternalServerError, body: "error"},
		{outcome: model.OutcomeAllocatorExhausted, err: domainErrors.ErrAllocatorExhausted, status: http.StatusInternalServerError, body: "error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			facade := &testhelpers.WebhookFacadeStub{HandleFn: func(context.Context, model.WebhookEvent) (model.ReconcileResult, error) {
				return model.ReconcileResult{Outcome: tt.outcome, RedemptionCode: &code}, tt.err
			}}
			body := []byte(`{"type":"payment","data":{"id":"1"}}`)
			resp := performRequest(t, http.MethodPost, "/hook", "/hook", NewWebhookHandler(facade).Receive, body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			got := decode[dto.WebhookResponse](t, resp)
			if got.Status != tt.body {
				t.Fatalf("expected body status %q, got %q", tt.body, got.Status)
			}
			if tt.body == "error" && got.Reason == "" {
				t.Fatal("error replies must carry a reason")
			}
			if bytes.Contains(resp.Body.Bytes(), []byte("redemption_code")) || bytes.Contains(resp.Body.Bytes(), []byte(code)) {
				t.Fatalf("webhook replies must not leak the redemption code: %s", resp.Body.String())
			}
		})
	}
}

func TestWebhookErrorsReachContext(t *testing.T) {
	facade := &testhelpers.WebhookFacadeStub{HandleFn: func(context.Context, model.WebhookEvent) (model.ReconcileResult, error) {
		return model.ReconcileResult{Outcome: model.OutcomeUpstreamUnavailable, Reason: "payment lookup failed"}, domainErrors.ErrUpstreamUnavailable
	}}

	var recorded []error
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			recorded = append(recorded, e.Err)
		}
	})
	router.POST("/hook", NewWebhookHandler(facade).Receive)

	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{"type":"payment","data":{"id":"1"}}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if len(recorded) != 1 || !errors.Is(recorded[0], domainErrors.ErrUpstreamUnavailable) {
		t.Fatalf("expected the use case error on the context, got %v", recorded)
	}
}

func validCheckoutBody() []byte {
	body, _ := json.Marshal(dto.CheckoutRequest{
		Name:  "Maria Silva",
		Email: "maria@example.com",
		Phone: "(11) 98888-7777",
		CPF:   "123.456.789-09",
		Address: dto.AddressRequest{
			PostalCode: "01310-100",
			Street:     "Av. Paulista",
			Number:     "1000",
			City:       "Sao Paulo",
			State:      "SP",
		},
		ReferrerCode: "123456",
	})
	return body
}

func TestStorefrontCheckout(t *testing.T) {
	var got model.CheckoutInput
	facade := testhelpers.StorefrontFacadeStub{CheckoutFn: func(_ context.Context, in model.CheckoutInput) (*model.CheckoutResult, error) {
		got = in
		return &model.CheckoutResult{SaleID: 7, PreferenceID: "pref-7", Reference: "AMO-7", InitPoint: "https://gateway.test/7"}, nil
	}}
	resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", NewStorefrontHandler(facade).Checkout, validCheckoutBody(), jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	out := decode[dto.CheckoutResponse](t, resp)
	if out.PreferenceID != "pref-7" || out.InitPoint != "https://gateway.test/7" || out.Reference != "AMO-7" {
		t.Fatalf("unexpected response %+v", out)
	}
	if got.Customer.Document != "123.456.789-09" || got.Shipping.State != "SP" || got.ReferrerCode != "123456" {
		t.Fatalf("request not mapped to input: %+v", got)
	}
}

func TestStorefrontCheckoutFailures(t *testing.T) {
	fieldErr := validation.Errors{"email": errors.New("must be a valid email address")}
	tests := []struct {
		name   string
		body   []byte
		err    error
		status int
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "validation", body: validCheckoutBody(), err: fmt.Errorf("%w: %w", domainErrors.ErrInvalidInput, fieldErr), status: http.StatusBadRequest},
		{name: "inactive referrer", body: validCheckoutBody(), err: domainErrors.ErrAffiliateInactive, status: http.StatusUnprocessableEntity},
		{name: "gateway down", body: validCheckoutBody(), err: fmt.Errorf("create preference: %w", domainErrors.ErrUpstreamUnavailable), status: http.StatusServiceUnavailable},
		{name: "gateway rejected", body: validCheckoutBody(), err: fmt.Errorf("create preference: %w", domainErrors.ErrGatewayRejected), status: http.StatusBadGateway},
		{name: "internal", body: validCheckoutBody(), err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.StorefrontFacadeStub{CheckoutFn: func(context.Context, model.CheckoutInput) (*model.CheckoutResult, error) {
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", NewStorefrontHandler(facade).Checkout, tt.body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}

	facade := testhelpers.StorefrontFacadeStub{CheckoutFn: func(context.Context, model.CheckoutInput) (*model.CheckoutResult, error) {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrInvalidInput, fieldErr)
	}}
	resp := performRequest(t, http.MethodPost, "/checkout", "/checkout", NewStorefrontHandler(facade).Checkout, validCheckoutBody(), jsonHeaders)
	out := decode[dto.ErrorResponse](t, resp)
	if out.Fields["email"] == "" {
		t.Fatalf("expected field errors in body, got %+v", out)
	}
}

func TestStorefrontStatus(t *testing.T) {
	code := "654321"
	var gotKey model.IdentityKey
	facade := testhelpers.StorefrontFacadeStub{StatusFn: func(_ context.Context, key model.IdentityKey) (*model.SaleStatusView, error) {
		gotKey = key
		return &model.SaleStatusView{IsPaid: true, FulfillmentStatus: model.FulfillmentAwaitingPrint, RedemptionCode: &code, UpdatedAt: time.Unix(10, 0)}, nil
	}}
	handler := NewStorefrontHandler(facade).Status

	resp := performRequest(t, http.MethodGet, "/status", "/status?preference_id=pref-1", handler, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := decode[dto.SaleStatusResponse](t, resp)
	if !out.IsPaid || out.RedemptionCode == nil || *out.RedemptionCode != code || out.FulfillmentStatus != "awaiting_print" {
		t.Fatalf("unexpected status response %+v", out)
	}
	if gotKey.PreferenceID != "pref-1" {
		t.Fatalf("unexpected key %+v", gotKey)
	}

	resp = performRequest(t, http.MethodGet, "/status", "/status?reference=AMO-1", handler, nil, nil)
	if resp.Code != http.StatusOK || gotKey.Reference != "AMO-1" {
		t.Fatalf("expected lookup by reference, got %d %+v", resp.Code, gotKey)
	}

	resp = performRequest(t, http.MethodGet, "/status", "/status", handler, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key, got %d", resp.Code)
	}

	missing := testhelpers.StorefrontFacadeStub{StatusFn: func(context.Context, model.IdentityKey) (*model.SaleStatusView, error) {
		return nil, domainErrors.ErrNotFound
	}}
	resp = performRequest(t, http.MethodGet, "/status", "/status?preference_id=x", NewStorefrontHandler(missing).Status, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStorefrontValidateCode(t *testing.T) {
	resp := performRequest(t, http.MethodPost, "/codes", "/codes", NewStorefrontHandler(testhelpers.StorefrontFacadeStub{}).ValidateCode, []byte(`{"code":"123456"}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := decode[dto.CodeValidationResponse](t, resp)
	if !out.Valid || out.Code != "123456" {
		t.Fatalf("unexpected response %+v", out)
	}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "bad format", err: domainErrors.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "inactive", err: domainErrors.ErrAffiliateInactive, status: http.StatusNotFound},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.StorefrontFacadeStub{ValidateFn: func(context.Context, string) (*model.Affiliate, error) {
				return nil, tt.err
			}}
			resp := performRequest(t, http.MethodPost, "/codes", "/codes", NewStorefrontHandler(facade).ValidateCode, []byte(`{"code":"12"}`), jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	body, _ := json.Marshal(dto.LoginRequest{User: "admin", Password: "secret"})
	facade := testhelpers.AuthFacadeStub{LoginFn: func(user, password string) (string, error) {
		if user != "admin" || password != "secret" {
			t.Fatalf("unexpected credentials passed to facade: %q %q", user, password)
		}
		return "session-token", nil
	}}
	resp := performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(facade).Login, body, jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Authorization"); got != "Bearer session-token" {
		t.Fatalf("unexpected authorization header %q", got)
	}
	result := resp.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	found := false
	for _, cookie := range result.Cookies() {
		if cookie.Name == "samplestore_admin" && cookie.Value == "session-token" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected admin session cookie")
	}
}

func TestAuthHandlerLoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   []byte
		err    error
		status int
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "invalid credentials", body: []byte(`{"user":"a","password":"b"}`), err: domainErrors.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{name: "disabled", body: []byte(`{"user":"a","password":"b"}`), err: domainErrors.ErrAdminDisabled, status: http.StatusServiceUnavailable},
		{name: "internal", body: []byte(`{"user":"a","password":"b"}`), err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := testhelpers.AuthFacadeStub{LoginFn: func(string, string) (string, error) { return "", tt.err }}
			resp := performRequest(t, http.MethodPost, "/login", "/login", NewAuthHandler(facade).Login, tt.body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestAdminDashboard(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/dashboard", "/dashboard", NewAdminHandler(testhelpers.AdminFacadeStub{}).Dashboard, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	out := decode[dto.DashboardResponse](t, resp)
	if out.Today != 1 || out.SevenDays != 2 || out.Total != 3 {
		t.Fatalf("unexpected dashboard %+v", out)
	}

	failing := testhelpers.AdminFacadeStub{DashboardFn: func(context.Context) (*model.DashboardStats, error) { return nil, errors.New("boom") }}
	resp = performRequest(t, http.MethodGet, "/dashboard", "/dashboard", NewAdminHandler(failing).Dashboard, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestAdminSales(t *testing.T) {
	var gotFilter model.SaleFilter
	facade := testhelpers.AdminFacadeStub{SalesFn: func(_ context.Context, filter model.SaleFilter) ([]model.Sale, error) {
		gotFilter = filter
		if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
			return nil, domainErrors.ErrInvalidInput
		}
		return []model.Sale{testhelpers.FakeSale("AMO-1", "pref-1")}, nil
	}}
	handler := NewAdminHandler(facade).Sales

	resp := performRequest(t, http.MethodGet, "/sales", "/sales?status=paid&limit=10&offset=20", handler, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotFilter.PaymentStatus != model.PaymentStatusPaid || gotFilter.Limit != 10 || gotFilter.Offset != 20 {
		t.Fatalf("unexpected filter %+v", gotFilter)
	}
	out := decode[[]dto.SaleResponse](t, resp)
	if len(out) != 1 || out[0].Reference != "AMO-1" || out[0].Amount != "19.90" {
		t.Fatalf("unexpected sales %+v", out)
	}

	resp = performRequest(t, http.MethodGet, "/sales", "/sales?limit=ten", handler, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad paging, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/sales", "/sales?status=approved", handler, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
}

func TestAdminSale(t *testing.T) {
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{}).Sale
	resp := performRequest(t, http.MethodGet, "/sales/:id", "/sales/5", handler, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if out := decode[dto.SaleResponse](t, resp); out.ID != 5 {
		t.Fatalf("unexpected sale %+v", out)
	}

	resp = performRequest(t, http.MethodGet, "/sales/:id", "/sales/abc", handler, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.Code)
	}

	missing := testhelpers.AdminFacadeStub{SaleFn: func(context.Context, int64) (*model.Sale, error) { return nil, domainErrors.ErrSaleNotFound }}
	resp = performRequest(t, http.MethodGet, "/sales/:id", "/sales/5", NewAdminHandler(missing).Sale, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestAdminAdvanceFulfillment(t *testing.T) {
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{}).AdvanceFulfillment
	resp := performRequest(t, http.MethodPost, "/sales/:id/fulfillment", "/sales/3/fulfillment", handler, []byte(`{"status":"awaiting_shipment"}`), jsonHeaders)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if out := decode[dto.SaleResponse](t, resp); out.FulfillmentStatus != "awaiting_shipment" {
		t.Fatalf("unexpected sale %+v", out)
	}

	resp = performRequest(t, http.MethodPost, "/sales/:id/fulfillment", "/sales/3/fulfillment", handler, []byte(`{}`), jsonHeaders)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without status, got %d", resp.Code)
	}

	conflict := testhelpers.AdminFacadeStub{AdvanceFn: func(context.Context, int64, model.FulfillmentStatus) (*model.Sale, error) {
		return nil, fmt.Errorf("awaiting_print -> shipped: %w", domainErrors.ErrInvalidTransition)
	}}
	resp = performRequest(t, http.MethodPost, "/sales/:id/fulfillment", "/sales/3/fulfillment", NewAdminHandler(conflict).AdvanceFulfillment, []byte(`{"status":"shipped"}`), jsonHeaders)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestAdminWithdrawals(t *testing.T) {
	var gotStatus model.WithdrawalStatus
	facade := testhelpers.AdminFacadeStub{WithdrawalsFn: func(_ context.Context, status model.WithdrawalStatus, _, _ int) ([]model.Withdrawal, error) {
		gotStatus = status
		if status == "cancelled" {
			return nil, domainErrors.ErrInvalidInput
		}
		return testhelpers.AdminFacadeStub{}.Withdrawals(context.Background(), status, 0, 0)
	}}
	handler := NewAdminHandler(facade).Withdrawals

	resp := performRequest(t, http.MethodGet, "/withdrawals", "/withdrawals?status=pending", handler, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotStatus != model.WithdrawalPending {
		t.Fatalf("status filter not passed, got %q", gotStatus)
	}
	out := decode[[]dto.WithdrawalResponse](t, resp)
	if len(out) != 1 || out[0].Amount != "25.00" {
		t.Fatalf("unexpected withdrawals %+v", out)
	}

	resp = performRequest(t, http.MethodGet, "/withdrawals", "/withdrawals?status=cancelled", handler, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAdminWithdrawalDetailAndPay(t *testing.T) {
	handler := NewAdminHandler(testhelpers.AdminFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/withdrawals/:id", "/withdrawals/4", handler.Withdrawal, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	detail := decode[dto.WithdrawalDetailResponse](t, resp)
	if detail.ID != 4 || detail.Ledger.TotalPaid != "10.00" || detail.Ledger.SaleCount != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	resp = performRequest(t, http.MethodPost, "/withdrawals/:id/pay", "/withdrawals/4/pay", handler.PayWithdrawal, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	paid := decode[dto.PayWithdrawalResponse](t, resp)
	if !paid.Changed || paid.Withdrawal.Status != "paid" || paid.Withdrawal.PaidAt == nil {
		t.Fatalf("unexpected pay response %+v", paid)
	}

	missing := NewAdminHandler(testhelpers.AdminFacadeStub{PayFn: func(context.Context, int64) (*model.Withdrawal, bool, error) {
		return nil, false, domainErrors.ErrNotFound
	}})
	resp = performRequest(t, http.MethodPost, "/withdrawals/:id/pay", "/withdrawals/9/pay", missing.PayWithdrawal, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/withdrawals/:id/pay", "/withdrawals/0/pay", handler.PayWithdrawal, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive id, got %d", resp.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(testhelpers.HealthFacadeStub{}).Check, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewHealthHandler(testhelpers.HealthFacadeStub{Err: errors.New("db down")}).Check, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
