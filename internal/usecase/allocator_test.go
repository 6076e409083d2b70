package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
	testhelpers "github.com/polkiloo/samplestore/internal/test"
)

func TestCodeAllocatorNumericShape(t *testing.T) {
	a := NewCodeAllocator(testConfig(), discardLogger())
	store := testhelpers.NewMemoryStore()
	pattern := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 50; i++ {
		code, err := a.Allocate(context.Background(), store.Codes())
		if err != nil {
			t.Fatalf("allocate returned error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected code shape %q", code)
		}
	}
}

func TestCodeAllocatorAlphanumericShape(t *testing.T) {
	cfg := testConfig()
	cfg.CodeShape = config.CodeShapeAlphanumeric
	cfg.CodeLength = 8
	a := NewCodeAllocator(cfg, discardLogger())

	code, err := a.Allocate(context.Background(), testhelpers.NewMemoryStore().Codes())
	if err != nil {
		t.Fatalf("allocate returned error: %v", err)
	}
	if !regexp.MustCompile(`^[A-Z0-9]{8}$`).MatchString(code) {
		t.Fatalf("unexpected code shape %q", code)
	}
}

func TestCodeAllocatorSkipsCodesTakenInEitherNamespace(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	taken := "111111"
	sale := testhelpers.FakeSale("AMO-1", "")
	sale.RedemptionCode = &taken
	store.AddSale(sale)
	store.AddAffiliate("222222", model.AffiliateActive, 0)

	a := NewCodeAllocator(testConfig(), discardLogger())
	a.generate = sequence("111111", "222222", "333333")

	code, err := a.Allocate(context.Background(), store.Codes())
	if err != nil {
		t.Fatalf("allocate returned error: %v", err)
	}
	if code != "333333" {
		t.Fatalf("expected first free candidate, got %q", code)
	}
	if store.TakenCalls != 3 {
		t.Fatalf("expected 3 lookups, got %d", store.TakenCalls)
	}
}

func TestCodeAllocatorExhaustsAfterConfiguredAttempts(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	store.TakenFn = func(string) (bool, error) { return true, nil }

	a := NewCodeAllocator(testConfig(), discardLogger())
	_, err := a.Allocate(context.Background(), store.Codes())
	if !errors.Is(err, domainErrors.ErrAllocatorExhausted) {
		t.Fatalf("expected ErrAllocatorExhausted, got %v", err)
	}
	if store.TakenCalls != 10 {
		t.Fatalf("expected exactly 10 candidates, got %d", store.TakenCalls)
	}
	if store.WriteCount() != 0 {
		t.Fatal("allocator must not write")
	}
}

func TestCodeAllocatorPropagatesLookupErrors(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	boom := errors.New("db down")
	store.TakenFn = func(string) (bool, error) { return false, boom }

	a := NewCodeAllocator(testConfig(), discardLogger())
	if _, err := a.Allocate(context.Background(), store.Codes()); !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestCodeAllocatorHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewCodeAllocator(testConfig(), discardLogger())
	if _, err := a.Allocate(ctx, testhelpers.NewMemoryStore().Codes()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestCodeAllocatorNormalize(t *testing.T) {
	numeric := NewCodeAllocator(testConfig(), discardLogger())
	cases := map[string]string{
		"123456":     "123456",
		" 12-34 56 ": "123456",
		"1234567890": "123456",
		"abc12":      "12",
		"":           "",
	}
	for in, want := range cases {
		if got := numeric.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}

	cfg := testConfig()
	cfg.CodeShape = config.CodeShapeAlphanumeric
	cfg.CodeLength = 8
	alpha := NewCodeAllocator(cfg, discardLogger())
	if got := alpha.Normalize("ab-cd 1234xyz"); got != "ABCD1234" {
		t.Fatalf("unexpected alphanumeric normalization %q", got)
	}
}
