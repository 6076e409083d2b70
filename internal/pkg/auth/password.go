package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch reports a password that does not match the stored hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher hashes and checks the admin password.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
	IsHash(value string) bool
}

// BcryptHasher uses bcrypt to hash passwords.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates BcryptHasher. Costs below bcrypt.MinCost fall back to the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns bcrypt hash for provided password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Compare checks password against stored hash.
func (h *BcryptHasher) Compare(hash string, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// IsHash reports whether value is a well-formed bcrypt hash, as expected in ADMIN_PASSWORD_HASH.
func (h *BcryptHasher) IsHash(value string) bool {
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
