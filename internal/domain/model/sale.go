package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the buyer snapshot captured at checkout.
type Customer struct {
	Name     string
	Email    string
	Phone    string
	Document string
}

// Address is the shipping destination captured at checkout.
type Address struct {
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Sale is the unit of payment reconciliation.
type Sale struct {
	ID                int64
	PreferenceID      *string
	ExternalReference string
	ReferrerCode      string
	Customer          Customer
	Shipping          Address
	Amount            decimal.Decimal
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	RedemptionCode    *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasCode reports whether a redemption code was already allocated.
func (s *Sale) HasCode() bool {
	return s.RedemptionCode != nil && *s.RedemptionCode != ""
}

// IdentityKey correlates a notification with a sale. PreferenceID is tried first.
type IdentityKey struct {
	PreferenceID string
	Reference    string
}

// Empty reports whether neither addressing scheme is set.
func (k IdentityKey) Empty() bool {
	return k.PreferenceID == "" && k.Reference == ""
}

// String renders the key for logs and lock names.
func (k IdentityKey) String() string {
	if k.PreferenceID != "" {
		return "pref:" + k.PreferenceID
	}
	return "ref:" + k.Reference
}

// SaleStatusView is what the customer-facing polling endpoint exposes.
type SaleStatusView struct {
	IsPaid            bool
	FulfillmentStatus FulfillmentStatus
	RedemptionCode    *string
	UpdatedAt         time.Time
}

// SaleFilter narrows admin listings.
type SaleFilter struct {
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

// DashboardStats counts paid sales over the admin reporting windows.
type DashboardStats struct {
	Today     int
	SevenDays int
	Total     int
}

// CheckoutInput is what the storefront collects before redirecting to the gateway.
type CheckoutInput struct {
	Customer     Customer
	Shipping     Address
	ReferrerCode string
}

// CheckoutResult points the buyer to the hosted checkout.
type CheckoutResult struct {
	SaleID           int64
	PreferenceID     string
	Reference        string
	InitPoint        string
	SandboxInitPoint string
}
