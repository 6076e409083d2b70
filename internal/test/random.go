package test

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

// RandomASCIIString returns a pseudo-random alphanumeric string within the provided bounds.
// When maxLen equals minLen the resulting string always has that exact length.
func RandomASCIIString(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := gofakeit.Number(minLen, maxLen)
	return gofakeit.Password(true, true, true, false, false, length)
}

// FakeCustomer returns a buyer with Brazilian-shaped phone and CPF digits.
func FakeCustomer() model.Customer {
	return model.Customer{
		Name:     gofakeit.Name(),
		Email:    strings.ToLower(gofakeit.Email()),
		Phone:    gofakeit.Numerify("119########"),
		Document: gofakeit.Numerify("###########"),
	}
}

// FakeAddress returns a shipping address that passes checkout validation.
func FakeAddress() model.Address {
	return model.Address{
		PostalCode: gofakeit.Numerify("########"),
		Street:     gofakeit.Street(),
		Number:     gofakeit.Numerify("###"),
		District:   gofakeit.Word(),
		City:       gofakeit.City(),
		State:      strings.ToUpper(gofakeit.StateAbr()),
	}
}

// FakeSale returns a pending sale addressed by reference and, when non-empty, preferenceID.
func FakeSale(reference, preferenceID string) model.Sale {
	sale := model.Sale{
		ExternalReference: reference,
		ReferrerCode:      gofakeit.Numerify("######"),
		Customer:          FakeCustomer(),
		Shipping:          FakeAddress(),
		Amount:            decimal.RequireFromString("19.90"),
		PaymentStatus:     model.PaymentStatusPending,
		FulfillmentStatus: model.FulfillmentPending,
	}
	if preferenceID != "" {
		pref := preferenceID
		sale.PreferenceID = &pref
	}
	return sale
}
