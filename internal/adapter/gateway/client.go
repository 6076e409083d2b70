package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainerrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
)

// Client exposes the gateway operations the store depends on.
type Client interface {
	FetchPayment(ctx context.Context, id string) (*model.GatewayPayment, error)
	SearchPayments(ctx context.Context, externalReference string) ([]model.GatewayPayment, error)
	CreatePreference(ctx context.Context, req model.PreferenceRequest) (*model.Preference, error)
}

// HTTPClient implements Client against the Mercado Pago REST API.
type HTTPClient struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries uint64
	backoff    func() backoff.BackOff
}

// statusError is a non-2xx reply. 5xx and 429 are retried, any other code is final.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// NewHTTPClient creates gateway client with default timeout and retry policy.
func NewHTTPClient(baseURL, token string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}, nil
}

type paymentResponse struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
}

func (p paymentResponse) toModel() model.GatewayPayment {
	return model.GatewayPayment{
		ID:                p.ID.String(),
		Status:            p.Status,
		StatusDetail:      p.StatusDetail,
		ExternalReference: p.ExternalReference,
		Amount:            p.TransactionAmount,
	}
}

// FetchPayment loads a payment by id.
func (c *HTTPClient) FetchPayment(ctx context.Context, id string) (*model.GatewayPayment, error) {
	if id == "" {
		return nil, fmt.Errorf("fetch payment: %w: empty id", domainerrors.ErrInvalidInput)
	}
	var data paymentResponse
	if err := c.do(ctx, http.MethodGet, c.endpoint("/v1/payments", id), nil, nil, &data); err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", id, err)
	}
	p := data.toModel()
	return &p, nil
}

// SearchPayments lists payments for an external reference, newest first.
func (c *HTTPClient) SearchPayments(ctx context.Context, externalReference string) ([]model.GatewayPayment, error) {
	q := url.Values{}
	q.Set("external_reference", externalReference)
	q.Set("sort", "date_created")
	q.Set("criteria", "desc")

	var data struct {
		Results []paymentResponse `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint("/v1/payments/search"), q, nil, &data); err != nil {
		return nil, fmt.Errorf("search payments %s: %w", externalReference, err)
	}

	out := make([]model.GatewayPayment, 0, len(data.Results))
	for _, r := range data.Results {
		out = append(out, r.toModel())
	}
	return out, nil
}

type preferencePayload struct {
	Items             []preferenceItem `json:"items"`
	Payer             payer            `json:"payer"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	BackURLs          *backURLs        `json:"back_urls,omitempty"`
	AutoReturn        string           `json:"auto_return,omitempty"`
}

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type payer struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          *phone          `json:"phone,omitempty"`
	Identification *identification `json:"identification,omitempty"`
	Address        *payerAddress   `json:"address,omitempty"`
}

type payerAddress struct {
	ZipCode      string `json:"zip_code"`
	StreetName   string `json:"street_name"`
	StreetNumber string `json:"street_number"`
}

type phone struct {
	AreaCode string `json:"area_code"`
	Number   string `json:"number"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// CreatePreference registers a hosted checkout.
func (c *HTTPClient) CreatePreference(ctx context.Context, req model.PreferenceRequest) (*model.Preference, error) {
	payload := preferencePayload{
		Payer:             payer{Name: req.Payer.Name, Email: req.Payer.Email},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
	}
	for _, it := range req.Items {
		payload.Items = append(payload.Items, preferenceItem{
			ID:         it.ID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.InexactFloat64(),
			CurrencyID: "BRL",
		})
	}
	if len(req.Payer.Phone) > 2 {
		payload.Payer.Phone = &phone{AreaCode: req.Payer.Phone[:2], Number: req.Payer.Phone[2:]}
	}
	if req.Payer.Document != "" {
		payload.Payer.Identification = &identification{Type: "CPF", Number: req.Payer.Document}
	}
	if req.Shipping.PostalCode != "" {
		payload.Payer.Address = &payerAddress{
			ZipCode:      req.Shipping.PostalCode,
			StreetName:   req.Shipping.Street,
			StreetNumber: req.Shipping.Number,
		}
	}
	if req.SuccessURL != "" {
		payload.BackURLs = &backURLs{Success: req.SuccessURL, Failure: req.FailureURL, Pending: req.PendingURL}
		payload.AutoReturn = "approved"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode preference: %w", err)
	}

	var data struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint("/checkout/preferences"), nil, body, &data); err != nil {
		return nil, fmt.Errorf("create preference %s: %w", req.ExternalReference, err)
	}
	return &model.Preference{ID: data.ID, InitPoint: data.InitPoint, SandboxInitPoint: data.SandboxInitPoint}, nil
}

func (c *HTTPClient) endpoint(parts ...string) url.URL {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(append([]string{endpoint.Path}, parts...)...)
	return endpoint
}

// do sends the request with bounded exponential retries. A final 4xx reply is
// reported as ErrGatewayRejected. Every other failure is ErrUpstreamUnavailable
// so callers can ask for redelivery.
func (c *HTTPClient) do(ctx context.Context, method string, endpoint url.URL, query url.Values, body []byte, out any) error {
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}
	idempotencyKey := uuid.NewString()
	attempt := 0

	op := func() error {
		attempt++
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("gateway request failed", slog.String("path", endpoint.Path), slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &statusError{code: resp.StatusCode, body: truncate(string(raw), 256)}
			c.logger.Warn("gateway responded with error",
				slog.String("path", endpoint.Path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt))
			if serr.retryable() {
				return serr
			}
			return backoff.Permanent(serr)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode gateway response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		var serr *statusError
		if errors.As(err, &serr) && !serr.retryable() {
			return fmt.Errorf("%w: %w", domainerrors.ErrGatewayRejected, err)
		}
		return fmt.Errorf("%w: %w", domainerrors.ErrUpstreamUnavailable, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..." + strconv.Itoa(len(s)-n) + " more bytes"
}
