package dto

import "time"

// LoginRequest describes admin credentials payload.
type LoginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// DashboardResponse counts paid sales over the reporting windows.
type DashboardResponse struct {
	Today     int `json:"today"`
	SevenDays int `json:"seven_days"`
	Total     int `json:"total"`
}

// CustomerResponse is the buyer snapshot stored with a sale.
type CustomerResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"cpf"`
}

// SaleResponse is the admin view of a sale.
type SaleResponse struct {
	ID                int64            `json:"id"`
	PreferenceID      *string          `json:"preference_id,omitempty"`
	Reference         string           `json:"external_reference"`
	ReferrerCode      string           `json:"referrer_code"`
	Customer          CustomerResponse `json:"customer"`
	Shipping          AddressRequest   `json:"shipping"`
	Amount            string           `json:"amount"`
	PaymentStatus     string           `json:"payment_status"`
	FulfillmentStatus string           `json:"fulfillment_status"`
	RedemptionCode    *string          `json:"redemption_code,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// FulfillmentRequest names the shipping stage to move a sale to.
type FulfillmentRequest struct {
	Status string `json:"status"`
}
