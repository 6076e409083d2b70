package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/repository"
)

const (
	numericAlphabet      = "0123456789"
	alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeAllocator draws redemption codes that are free in the shared code space.
type CodeAllocator struct {
	alphabet string
	length   int
	attempts int
	logger   *slog.Logger

	generate func() (string, error)
}

// NewCodeAllocator builds an allocator for the configured code shape.
func NewCodeAllocator(cfg *config.Config, logger *slog.Logger) *CodeAllocator {
	alphabet := numericAlphabet
	if cfg.CodeShape == config.CodeShapeAlphanumeric {
		alphabet = alphanumericAlphabet
	}
	a := &CodeAllocator{
		alphabet: alphabet,
		length:   cfg.CodeLength,
		attempts: cfg.AllocatorAttempts,
		logger:   logger,
	}
	a.generate = a.randomCode
	return a
}

// Allocate returns a candidate not taken by any sale or affiliate. It never writes;
// the caller persists the code and handles a lost race as ErrCodeConflict.
func (a *CodeAllocator) Allocate(ctx context.Context, space repository.CodeSpace) (string, error) {
	for attempt := 1; attempt <= a.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := a.generate()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		taken, err := space.Taken(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
		a.logger.Debug("redemption code collision", slog.Int("attempt", attempt))
	}
	return "", fmt.Errorf("%d candidates collided: %w", a.attempts, domainErrors.ErrAllocatorExhausted)
}

// Normalize reduces raw user input to the configured code shape.
func (a *CodeAllocator) Normalize(raw string) string {
	out := make([]byte, 0, a.length)
	for i := 0; i < len(raw) && len(out) < a.length; i++ {
		c := raw[i]
		if c >= 'a' && c <= 'z' && a.alphabet == alphanumericAlphabet {
			c -= 'a' - 'A'
		}
		if strings.IndexByte(a.alphabet, c) >= 0 {
			out = append(out, c)
		}
	}
	return string(out)
}

// Length returns the configured code length.
func (a *CodeAllocator) Length() int {
	return a.length
}

func (a *CodeAllocator) randomCode() (string, error) {
	return randomString(a.alphabet, a.length)
}

// randomString draws n uniformly distributed characters of alphabet from crypto/rand.
func randomString(alphabet string, n int) (string, error) {
	upper := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, upper)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
