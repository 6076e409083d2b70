package dto

import "time"

// AddressRequest is the shipping address entered at checkout.
type AddressRequest struct {
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// CheckoutRequest describes checkout payload.
type CheckoutRequest struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	CPF          string         `json:"cpf"`
	Address      AddressRequest `json:"address"`
	ReferrerCode string         `json:"referrer_code"`
}

// CheckoutResponse points the buyer at the hosted checkout.
type CheckoutResponse struct {
	SaleID           int64  `json:"sale_id"`
	PreferenceID     string `json:"preference_id"`
	Reference        string `json:"external_reference"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

// SaleStatusResponse is returned to the polling storefront.
type SaleStatusResponse struct {
	IsPaid            bool      `json:"is_paid"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	UpdatedAt         time.Time `json:"updated_at"`
	RedemptionCode    *string   `json:"redemption_code,omitempty"`
}

// CodeValidationRequest carries the referrer code typed by the buyer.
type CodeValidationRequest struct {
	Code string `json:"code"`
}

// CodeValidationResponse confirms a redeemable code.
type CodeValidationResponse struct {
	Valid  bool   `json:"valid"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
