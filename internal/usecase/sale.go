package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/samplestore/internal/adapter/gateway"
	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/domain/repository"
)

const (
	sampleItemID    = "amostra-cafe-canastra"
	referenceAlpha  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultPageSize = 50
	maxPageSize     = 200
	dashboardWindow = 7
)

var (
	phonePattern  = regexp.MustCompile(`^\d{10,11}$`)
	cpfPattern    = regexp.MustCompile(`^\d{11}$`)
	postalPattern = regexp.MustCompile(`^\d{8}$`)
	statePattern  = regexp.MustCompile(`^[A-Z]{2}$`)
)

// SaleUseCase covers the storefront and admin operations on sales.
type SaleUseCase struct {
	sales      repository.SaleRepository
	affiliates repository.AffiliateRepository
	gateway    gateway.Client
	allocator  *CodeAllocator

	title           string
	price           decimal.Decimal
	notificationURL string
	siteURL         string
	location        *time.Location

	logger *slog.Logger
	now    func() time.Time
}

// NewSaleUseCase constructs SaleUseCase.
func NewSaleUseCase(
	cfg *config.Config,
	logger *slog.Logger,
	sales repository.SaleRepository,
	affiliates repository.AffiliateRepository,
	client gateway.Client,
	allocator *CodeAllocator,
) (*SaleUseCase, error) {
	price, err := decimal.NewFromString(cfg.SamplePrice)
	if err != nil {
		return nil, fmt.Errorf("parse sample price %q: %w", cfg.SamplePrice, err)
	}
	return &SaleUseCase{
		sales:           sales,
		affiliates:      affiliates,
		gateway:         client,
		allocator:       allocator,
		title:           cfg.SampleTitle,
		price:           price,
		notificationURL: cfg.NotificationURL,
		siteURL:         strings.TrimRight(cfg.SiteURL, "/"),
		location:        cfg.Location(),
		logger:          logger,
		now:             time.Now,
	}, nil
}

// Checkout validates the order, creates the gateway preference and stores the sale as pending.
func (u *SaleUseCase) Checkout(ctx context.Context, in model.CheckoutInput) (*model.CheckoutResult, error) {
	in = normalizeCheckout(in)
	if err := validateCheckout(in); err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrInvalidInput, err)
	}

	referrer := u.allocator.Normalize(in.ReferrerCode)
	if _, err := u.redeemable(ctx, referrer); err != nil {
		return nil, err
	}

	reference, err := u.newReference()
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}

	pref, err := u.gateway.CreatePreference(ctx, model.PreferenceRequest{
		ExternalReference: reference,
		Items: []model.PreferenceItem{{
			ID:        sampleItemID,
			Title:     u.title,
			Quantity:  1,
			UnitPrice: u.price,
		}},
		Payer:           in.Customer,
		Shipping:        in.Shipping,
		NotificationURL: u.notificationURL,
		SuccessURL:      u.siteURL + "/checkout/sucesso",
		FailureURL:      u.siteURL + "/checkout/falha",
		PendingURL:      u.siteURL + "/checkout/pendente",
	})
	if err != nil {
		return nil, err
	}

	prefID := pref.ID
	sale, err := u.sales.Create(ctx, &model.Sale{
		PreferenceID:      &prefID,
		ExternalReference: reference,
		ReferrerCode:      referrer,
		Customer:          in.Customer,
		Shipping:          in.Shipping,
		Amount:            u.price,
		PaymentStatus:     model.PaymentStatusPending,
		FulfillmentStatus: model.FulfillmentPending,
	})
	if err != nil {
		return nil, fmt.Errorf("store sale %s: %w", reference, err)
	}

	u.logger.Info("checkout created",
		slog.Int64("sale_id", sale.ID),
		slog.String("reference", reference),
		slog.String("preference_id", pref.ID),
		slog.String("referrer", referrer))

	return &model.CheckoutResult{
		SaleID:           sale.ID,
		PreferenceID:     pref.ID,
		Reference:        reference,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

// Status is the customer polling read. The code is only revealed once paid.
func (u *SaleUseCase) Status(ctx context.Context, key model.IdentityKey) (*model.SaleStatusView, error) {
	if key.Empty() {
		return nil, domainErrors.ErrInvalidInput
	}
	sale, err := u.sales.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSaleNotFound) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	view := &model.SaleStatusView{
		IsPaid:            sale.PaymentStatus == model.PaymentStatusPaid,
		FulfillmentStatus: sale.FulfillmentStatus,
		UpdatedAt:         sale.UpdatedAt,
	}
	if view.IsPaid && sale.HasCode() {
		view.RedemptionCode = sale.RedemptionCode
	}
	return view, nil
}

// ValidateCode checks that raw names an affiliate whose code can be redeemed.
func (u *SaleUseCase) ValidateCode(ctx context.Context, raw string) (*model.Affiliate, error) {
	return u.redeemable(ctx, u.allocator.Normalize(raw))
}

func (u *SaleUseCase) redeemable(ctx context.Context, code string) (*model.Affiliate, error) {
	if len(code) != u.allocator.Length() {
		return nil, domainErrors.ErrInvalidInput
	}
	affiliate, err := u.affiliates.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrAffiliateInactive
		}
		return nil, err
	}
	if !affiliate.Redeemable() {
		return nil, domainErrors.ErrAffiliateInactive
	}
	return affiliate, nil
}

// List returns sales newest first.
func (u *SaleUseCase) List(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error) {
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, domainErrors.ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return u.sales.List(ctx, filter)
}

// Get returns one sale.
func (u *SaleUseCase) Get(ctx context.Context, id int64) (*model.Sale, error) {
	return u.sales.GetByID(ctx, id)
}

// PendingBefore returns sales still awaiting payment that were created before the cutoff, oldest first.
func (u *SaleUseCase) PendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Sale, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return u.sales.ListPendingBefore(ctx, before, limit)
}

// AdvanceFulfillment moves a paid sale one shipping stage forward. Asking for the
// current stage again is a no-op.
func (u *SaleUseCase) AdvanceFulfillment(ctx context.Context, id int64, target model.FulfillmentStatus) (*model.Sale, error) {
	sale, err := u.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sale.HasCode() {
		return nil, domainErrors.ErrInvalidTransition
	}
	if sale.FulfillmentStatus == target {
		return sale, nil
	}
	next, ok := sale.FulfillmentStatus.Next()
	if !ok || next != target {
		return nil, fmt.Errorf("%s -> %s: %w", sale.FulfillmentStatus, target, domainErrors.ErrInvalidTransition)
	}
	if err := u.sales.UpdateFulfillment(ctx, id, sale.FulfillmentStatus, target); err != nil {
		return nil, err
	}
	u.logger.Info("fulfillment advanced", slog.Int64("sale_id", id), slog.String("to", string(target)))
	return u.sales.GetByID(ctx, id)
}

// Dashboard counts paid sales today, over the last seven days including today,
// and overall, with day boundaries in the business timezone.
func (u *SaleUseCase) Dashboard(ctx context.Context, now time.Time) (*model.DashboardStats, error) {
	local := now.In(u.location)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, u.location)
	weekStart := todayStart.AddDate(0, 0, -(dashboardWindow - 1))
	return u.sales.PaidStats(ctx, todayStart, weekStart)
}

func (u *SaleUseCase) newReference() (string, error) {
	suffix, err := randomString(referenceAlpha, 6)
	if err != nil {
		return "", err
	}
	return "AMO-" + strconv.FormatInt(u.now().UnixMilli(), 10) + "-" + suffix, nil
}

func normalizeCheckout(in model.CheckoutInput) model.CheckoutInput {
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	in.Customer.Phone = digitsOnly(in.Customer.Phone)
	in.Customer.Document = digitsOnly(in.Customer.Document)
	in.Shipping.PostalCode = digitsOnly(in.Shipping.PostalCode)
	in.Shipping.Street = strings.TrimSpace(in.Shipping.Street)
	in.Shipping.Number = strings.TrimSpace(in.Shipping.Number)
	in.Shipping.Complement = strings.TrimSpace(in.Shipping.Complement)
	in.Shipping.District = strings.TrimSpace(in.Shipping.District)
	in.Shipping.City = strings.TrimSpace(in.Shipping.City)
	in.Shipping.State = strings.ToUpper(strings.TrimSpace(in.Shipping.State))
	in.ReferrerCode = strings.TrimSpace(in.ReferrerCode)
	return in
}

func validateCheckout(in model.CheckoutInput) error {
	return validation.Errors{
		"name":          validation.Validate(in.Customer.Name, validation.Required, validation.RuneLength(3, 120)),
		"email":         validation.Validate(in.Customer.Email, validation.Required, is.EmailFormat),
		"phone":         validation.Validate(in.Customer.Phone, validation.Required, validation.Match(phonePattern)),
		"cpf":           validation.Validate(in.Customer.Document, validation.Required, validation.Match(cpfPattern)),
		"postal_code":   validation.Validate(in.Shipping.PostalCode, validation.Required, validation.Match(postalPattern)),
		"street":        validation.Validate(in.Shipping.Street, validation.Required),
		"number":        validation.Validate(in.Shipping.Number, validation.Required),
		"city":          validation.Validate(in.Shipping.City, validation.Required),
		"state":         validation.Validate(in.Shipping.State, validation.Required, validation.Match(statePattern)),
		"referrer_code": validation.Validate(in.ReferrerCode, validation.Required, validation.RuneLength(6, 9)),
	}.Filter()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
