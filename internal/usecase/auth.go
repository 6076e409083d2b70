package usecase

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/polkiloo/samplestore/internal/config"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	pkgAuth "github.com/polkiloo/samplestore/internal/pkg/auth"
)

// AuthUseCase authenticates the single configured admin and manages session tokens.
type AuthUseCase struct {
	user   string
	hash   string
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase. A plain ADMIN_PASSWORD is hashed once here.
func NewAuthUseCase(cfg *config.Config, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) (*AuthUseCase, error) {
	u := &AuthUseCase{
		user:   strings.TrimSpace(cfg.AdminUser),
		hasher: hasher,
		tokens: strategy,
	}
	switch {
	case cfg.AdminPasswordHash != "":
		if !hasher.IsHash(cfg.AdminPasswordHash) {
			return nil, fmt.Errorf("admin password hash is not a valid hash")
		}
		u.hash = cfg.AdminPasswordHash
	case cfg.AdminPassword != "":
		hash, err := hasher.Hash(cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		u.hash = hash
	}
	return u, nil
}

// Enabled reports whether admin credentials are configured.
func (u *AuthUseCase) Enabled() bool {
	return u.user != "" && u.hash != ""
}

// Login checks the admin credentials and returns a session token.
func (u *AuthUseCase) Login(user, password string) (string, error) {
	if !u.Enabled() {
		return "", domainErrors.ErrAdminDisabled
	}
	user = strings.TrimSpace(user)
	if user == "" || password == "" {
		return "", domainErrors.ErrInvalidCredentials
	}
	sameUser := subtle.ConstantTimeCompare([]byte(user), []byte(u.user)) == 1
	// The hash comparison runs even when the user name is wrong.
	if err := u.hasher.Compare(u.hash, password); err != nil || !sameUser {
		return "", domainErrors.ErrInvalidCredentials
	}
	return u.tokens.IssueToken(u.user)
}

// ParseToken returns the admin subject carried by a valid token.
func (u *AuthUseCase) ParseToken(token string) (string, error) {
	if token == "" {
		return "", pkgAuth.ErrInvalidToken
	}
	subject, err := u.tokens.ParseToken(token)
	if err != nil {
		return "", err
	}
	if subject != u.user {
		return "", pkgAuth.ErrInvalidToken
	}
	return subject, nil
}
