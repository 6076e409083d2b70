package model

import "time"

// WebhookEvent is the decoded inbound webhook, one of RelayEvent or GatewayEvent.
type WebhookEvent interface {
	webhookEvent()
}

// RelayEvent is the simplified paid/not-paid notification from the automation relay.
type RelayEvent struct {
	PreferenceID string
	Paid         bool
	Token        string
}

// GatewayEvent is the gateway's own callback; it only carries the payment id.
type GatewayEvent struct {
	Type      string
	Action    string
	PaymentID string
	Signature string
	RequestID string
}

func (RelayEvent) webhookEvent()   {}
func (GatewayEvent) webhookEvent() {}

// NotificationSource tells which producer emitted a notification.
type NotificationSource string

const (
	SourceRelay   NotificationSource = "relay"
	SourceGateway NotificationSource = "gateway"
	SourceSweeper NotificationSource = "sweeper"
)

// PaymentNotification is the normalized input of the reconciler.
type PaymentNotification struct {
	Key           IdentityKey
	Status        PaymentStatus
	GatewayStatus string
	PaymentID     string
	Source        NotificationSource
}

// ReconcileOutcome classifies the result of handling a notification.
type ReconcileOutcome string

const (
	OutcomeUpdated             ReconcileOutcome = "updated"
	OutcomeAlreadyProcessed    ReconcileOutcome = "already_processed"
	OutcomeIgnored             ReconcileOutcome = "ignored"
	OutcomeSaleNotFound        ReconcileOutcome = "sale_not_found"
	OutcomeAllocatorExhausted  ReconcileOutcome = "allocator_exhausted"
	OutcomePersistenceError    ReconcileOutcome = "persistence_error"
	OutcomeUpstreamUnavailable ReconcileOutcome = "upstream_unavailable"
	OutcomeUnauthenticated     ReconcileOutcome = "unauthenticated"
)

// ReconcileResult reports what the reconciler did with a notification.
type ReconcileResult struct {
	Outcome        ReconcileOutcome
	SaleID         int64
	Status         PaymentStatus
	RedemptionCode *string
	Reason         string
}

// TransitionEvent is published after every accepted status change.
type TransitionEvent struct {
	SaleID         int64         `json:"sale_id"`
	Key            string        `json:"key"`
	From           PaymentStatus `json:"from"`
	To             PaymentStatus `json:"to"`
	RedemptionCode *string       `json:"redemption_code,omitempty"`
	At             time.Time     `json:"at"`
}
