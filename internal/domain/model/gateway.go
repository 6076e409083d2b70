package model

import "github.com/shopspring/decimal"

// GatewayPayment is the subset of a gateway payment the store relies on.
type GatewayPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
}

// PreferenceItem is a line item of a checkout preference.
type PreferenceItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PreferenceRequest describes the checkout the gateway should host.
type PreferenceRequest struct {
	ExternalReference string
	Items             []PreferenceItem
	Payer             Customer
	Shipping          Address
	NotificationURL   string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
}

// Preference is a created gateway checkout.
type Preference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}
