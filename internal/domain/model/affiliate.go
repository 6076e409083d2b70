package model

import "time"

// AffiliateStatus gates whether an affiliate code can be redeemed.
type AffiliateStatus string

const (
	AffiliateActive   AffiliateStatus = "active"
	AffiliateInactive AffiliateStatus = "inactive"
	AffiliateExpired  AffiliateStatus = "expired"
)

// Affiliate is created once per paid sale and reuses the redemption code as identity.
type Affiliate struct {
	ID        int64
	Code      string
	Status    AffiliateStatus
	SaleID    int64
	CreatedAt time.Time
}

// Redeemable reports whether the code may be used at checkout.
func (a *Affiliate) Redeemable() bool {
	return a.Status != AffiliateInactive && a.Status != AffiliateExpired
}
