package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrSaleNotFound means a notification addressed a sale the store does not know yet.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrUnauthenticated is returned for webhooks whose signature does not verify.
	ErrUnauthenticated = errors.New("webhook signature rejected")
	// ErrCodeConflict signals a redemption code taken by a concurrent allocator.
	ErrCodeConflict = errors.New("redemption code conflict")
	// ErrAllocatorExhausted is returned when no free code was found within the attempt bound.
	ErrAllocatorExhausted = errors.New("code allocator exhausted")
	ErrAlreadyProcessed   = errors.New("already processed")
	// ErrUpstreamUnavailable wraps failures talking to the payment gateway.
	ErrUpstreamUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected is a permanent 4xx from the payment gateway. Retrying will not help.
	ErrGatewayRejected   = errors.New("payment gateway rejected request")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAffiliateInactive = errors.New("affiliate code inactive or expired")
	// ErrAdminDisabled is returned by admin login when no credentials are configured.
	ErrAdminDisabled = errors.New("admin login disabled")
)
