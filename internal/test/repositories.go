package test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/domain/repository"
)

// MemoryStore is an in-memory Transactor and Factory mirroring the guards of the
// Postgres storage. Transactions are serialized and rolled back on error.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	sales       map[int64]model.Sale
	affiliates  map[int64]model.Affiliate
	withdrawals map[int64]model.Withdrawal
	nextID      int64

	// TakenFn, when set, answers CodeSpace lookups instead of the stored data.
	TakenFn func(code string) (bool, error)
	// AssignCodeFn runs before AssignCode touches state; a non-nil error aborts it.
	AssignCodeFn func(id int64, code string) error
	// UpdateErr makes UpdatePaymentStatus fail.
	UpdateErr error
	// LockErr makes LockByKey fail.
	LockErr error

	Now func() time.Time

	TakenCalls   int
	Writes       int
	Transactions int
	Rollbacks    int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sales:       make(map[int64]model.Sale),
		affiliates:  make(map[int64]model.Affiliate),
		withdrawals: make(map[int64]model.Withdrawal),
		Now:         time.Now,
	}
}

var (
	_ repository.Transactor = (*MemoryStore)(nil)
	_ repository.Factory    = (*MemoryStore)(nil)
)

// WithinTransaction runs fn while holding the store exclusively.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Factory) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.Transactions++
	sales, affiliates, withdrawals, next := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.sales, s.affiliates, s.withdrawals, s.nextID = sales, affiliates, withdrawals, next
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) snapshot() (map[int64]model.Sale, map[int64]model.Affiliate, map[int64]model.Withdrawal, int64) {
	sales := make(map[int64]model.Sale, len(s.sales))
	for k, v := range s.sales {
		sales[k] = v
	}
	affiliates := make(map[int64]model.Affiliate, len(s.affiliates))
	for k, v := range s.affiliates {
		affiliates[k] = v
	}
	withdrawals := make(map[int64]model.Withdrawal, len(s.withdrawals))
	for k, v := range s.withdrawals {
		withdrawals[k] = v
	}
	return sales, affiliates, withdrawals, s.nextID
}

// Sales returns the sale repository.
func (s *MemoryStore) Sales() repository.SaleRepository { return memSales{s} }

// Affiliates returns the affiliate repository.
func (s *MemoryStore) Affiliates() repository.AffiliateRepository { return memAffiliates{s} }

// Withdrawals returns the withdrawal repository.
func (s *MemoryStore) Withdrawals() repository.WithdrawalRepository { return memWithdrawals{s} }

// Codes returns the code namespace spanning sales and affiliates.
func (s *MemoryStore) Codes() repository.CodeSpace { return memCodes{s} }

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// AddSale stores sale as-is, assigning an id and timestamps when missing.
func (s *MemoryStore) AddSale(sale model.Sale) model.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sale.ID == 0 {
		sale.ID = s.id()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = s.Now()
	}
	if sale.UpdatedAt.IsZero() {
		sale.UpdatedAt = sale.CreatedAt
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = model.PaymentStatusPending
	}
	if sale.FulfillmentStatus == "" {
		sale.FulfillmentStatus = model.FulfillmentPending
	}
	s.sales[sale.ID] = sale
	return sale
}

// AddAffiliate stores an affiliate with the given code and status.
func (s *MemoryStore) AddAffiliate(code string, status model.AffiliateStatus, saleID int64) model.Affiliate {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := model.Affiliate{ID: s.id(), Code: code, Status: status, SaleID: saleID, CreatedAt: s.Now()}
	s.affiliates[a.ID] = a
	return a
}

// AddWithdrawal stores a withdrawal for affiliate.
func (s *MemoryStore) AddWithdrawal(affiliateID int64, amount string, status model.WithdrawalStatus) model.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := model.Withdrawal{
		ID:            s.id(),
		AffiliateID:   affiliateID,
		AffiliateCode: s.affiliates[affiliateID].Code,
		Amount:        decimal.RequireFromString(amount),
		Status:        status,
		PayoutKey:     "pix@example.com",
		PayoutKeyType: "email",
		CreatedAt:     s.Now(),
	}
	if status == model.WithdrawalPaid {
		paid := w.CreatedAt
		w.PaidAt = &paid
	}
	s.withdrawals[w.ID] = w
	return w
}

// Sale returns a copy of the stored sale.
func (s *MemoryStore) Sale(id int64) (model.Sale, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	return sale, ok
}

// AffiliateList returns every stored affiliate ordered by id.
func (s *MemoryStore) AffiliateList() []model.Affiliate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Affiliate, 0, len(s.affiliates))
	for _, a := range s.affiliates {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaleCount returns the number of stored sales.
func (s *MemoryStore) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

// WriteCount returns how many mutating calls succeeded.
func (s *MemoryStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Writes
}

type memSales struct{ s *MemoryStore }

func (r memSales) Create(_ context.Context, sale *model.Sale) (*model.Sale, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sales {
		if existing.ExternalReference == sale.ExternalReference {
			return nil, domainErrors.ErrAlreadyExists
		}
		if sale.PreferenceID != nil && existing.PreferenceID != nil && *existing.PreferenceID == *sale.PreferenceID {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	created := *sale
	created.ID = s.id()
	created.CreatedAt = s.Now()
	created.UpdatedAt = created.CreatedAt
	s.sales[created.ID] = created
	s.Writes++
	return &created, nil
}

func (r memSales) GetByID(_ context.Context, id int64) (*model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &sale, nil
}

func (r memSales) GetByKey(_ context.Context, key model.IdentityKey) (*model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.byKey(key)
}

func (r memSales) LockByKey(_ context.Context, key model.IdentityKey) (*model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.LockErr != nil {
		return nil, r.s.LockErr
	}
	return r.byKey(key)
}

func (r memSales) byKey(key model.IdentityKey) (*model.Sale, error) {
	if key.PreferenceID != "" {
		for _, sale := range r.s.sales {
			if sale.PreferenceID != nil && *sale.PreferenceID == key.PreferenceID {
				return &sale, nil
			}
		}
	}
	if key.Reference != "" {
		for _, sale := range r.s.sales {
			if sale.ExternalReference == key.Reference {
				return &sale, nil
			}
		}
	}
	return nil, domainErrors.ErrSaleNotFound
}

func (r memSales) UpdatePaymentStatus(_ context.Context, id int64, status model.PaymentStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	sale, ok := s.sales[id]
	if !ok {
		return domainErrors.ErrSaleNotFound
	}
	sale.PaymentStatus = status
	sale.UpdatedAt = s.Now()
	s.sales[id] = sale
	s.Writes++
	return nil
}

func (r memSales) AssignCode(_ context.Context, id int64, code string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AssignCodeFn != nil {
		if err := s.AssignCodeFn(id, code); err != nil {
			return err
		}
	}
	sale, ok := s.sales[id]
	if !ok || sale.HasCode() {
		return domainErrors.ErrAlreadyProcessed
	}
	for otherID, other := range s.sales {
		if otherID != id && other.HasCode() && *other.RedemptionCode == code {
			return fmt.Errorf("assign code %s: %w", code, domainErrors.ErrCodeConflict)
		}
	}
	assigned := code
	sale.RedemptionCode = &assigned
	sale.PaymentStatus = model.PaymentStatusPaid
	sale.FulfillmentStatus = model.FulfillmentAwaitingPrint
	sale.UpdatedAt = s.Now()
	s.sales[id] = sale
	s.Writes++
	return nil
}

func (r memSales) UpdateFulfillment(_ context.Context, id int64, from, to model.FulfillmentStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok || sale.FulfillmentStatus != from || !sale.HasCode() {
		return domainErrors.ErrInvalidTransition
	}
	sale.FulfillmentStatus = to
	sale.UpdatedAt = s.Now()
	s.sales[id] = sale
	s.Writes++
	return nil
}

func (r memSales) List(_ context.Context, filter model.SaleFilter) ([]model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Sale
	for _, sale := range r.s.sales {
		if filter.PaymentStatus != "" && sale.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, sale)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r memSales) ListPendingBefore(_ context.Context, before time.Time, limit int) ([]model.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Sale
	for _, sale := range r.s.sales {
		if sale.PaymentStatus == model.PaymentStatusPending && sale.CreatedAt.Before(before) {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, 0), nil
}

func (r memSales) PaidStats(_ context.Context, todayStart, weekStart time.Time) (*model.DashboardStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stats model.DashboardStats
	for _, sale := range r.s.sales {
		if sale.PaymentStatus != model.PaymentStatusPaid {
			continue
		}
		stats.Total++
		if !sale.CreatedAt.Before(todayStart) {
			stats.Today++
		}
		if !sale.CreatedAt.Before(weekStart) {
			stats.SevenDays++
		}
	}
	return &stats, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memAffiliates struct{ s *MemoryStore }

func (r memAffiliates) Create(_ context.Context, code string, saleID int64, status model.AffiliateStatus) (*model.Affiliate, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.affiliates {
		if saleID != 0 && a.SaleID == saleID {
			return nil, fmt.Errorf("insert affiliate for sale %d: %w", saleID, domainErrors.ErrAlreadyProcessed)
		}
		if a.Code == code {
			return nil, fmt.Errorf("insert affiliate %s: %w", code, domainErrors.ErrCodeConflict)
		}
	}
	a := model.Affiliate{ID: s.id(), Code: code, Status: status, SaleID: saleID, CreatedAt: s.Now()}
	s.affiliates[a.ID] = a
	s.Writes++
	return &a, nil
}

func (r memAffiliates) GetByCode(_ context.Context, code string) (*model.Affiliate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.affiliates {
		if a.Code == code {
			return &a, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

type memCodes struct{ s *MemoryStore }

func (r memCodes) Taken(_ context.Context, code string) (bool, error) {
	s := r.s
	s.mu.Lock()
	s.TakenCalls++
	fn := s.TakenFn
	s.mu.Unlock()
	if fn != nil {
		return fn(code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sale := range s.sales {
		if sale.HasCode() && *sale.RedemptionCode == code {
			return true, nil
		}
	}
	for _, a := range s.affiliates {
		if a.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type memWithdrawals struct{ s *MemoryStore }

func (r memWithdrawals) GetByID(_ context.Context, id int64) (*model.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &w, nil
}

func (r memWithdrawals) List(_ context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Withdrawal
	for _, w := range r.s.withdrawals {
		if status != "" && w.Status != status {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (r memWithdrawals) MarkPaid(_ context.Context, id int64) (*model.Withdrawal, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, false, domainErrors.ErrNotFound
	}
	if w.Status == model.WithdrawalPaid {
		return &w, false, nil
	}
	paid := s.Now()
	w.Status = model.WithdrawalPaid
	w.PaidAt = &paid
	s.withdrawals[id] = w
	s.Writes++
	return &w, true, nil
}

func (r memWithdrawals) Ledger(_ context.Context, affiliateID int64) (*model.AffiliateLedger, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := model.AffiliateLedger{AffiliateID: affiliateID, TotalPaid: decimal.Zero}
	for _, w := range s.withdrawals {
		if w.AffiliateID == affiliateID && w.Status == model.WithdrawalPaid {
			ledger.TotalPaid = ledger.TotalPaid.Add(w.Amount)
		}
	}
	code := s.affiliates[affiliateID].Code
	for _, sale := range s.sales {
		if code != "" && sale.ReferrerCode == code && sale.PaymentStatus == model.PaymentStatusPaid {
			ledger.SaleCount++
		}
	}
	return &ledger, nil
}
