package dto

import "encoding/json"

// WebhookPayload is the union of the relay and gateway notification bodies.
// The relay posts payment_link_id/payment_link_status, the gateway posts type/action/data.id.
type WebhookPayload struct {
	PaymentLinkID     *string         `json:"payment_link_id"`
	PaymentLinkStatus json.RawMessage `json:"payment_link_status"`

	Type   string       `json:"type"`
	Topic  string       `json:"topic"`
	Action string       `json:"action"`
	Data   *WebhookData `json:"data"`
}

// WebhookData carries the gateway resource id, sent as a number or a string.
type WebhookData struct {
	ID json.RawMessage `json:"id"`
}

// WebhookResponse reports the reconciliation outcome back to the sender.
// It never carries the redemption code.
type WebhookResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
