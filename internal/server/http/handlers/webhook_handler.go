package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/samplestore/internal/domain/model"
	"github.com/polkiloo/samplestore/internal/server/http/dto"
)

const (
	relayTokenHeader = "X-Relay-Token"
	signatureHeader  = "X-Signature"
	requestIDHeader  = "X-Request-Id"
	maxWebhookBody   = 64 << 10
)

var errUnknownShape = errors.New("unrecognised webhook payload")

// WebhookHandler receives payment notifications from the relay and the gateway.
type WebhookHandler struct {
	facade WebhookFacade
}

// NewWebhookHandler creates WebhookHandler instance.
func NewWebhookHandler(facade WebhookFacade) *WebhookHandler {
	return &WebhookHandler{facade: facade}
}

// Receive handles POST /api/webhooks/payments.
func (h *WebhookHandler) Receive(c *gin.Context) {
	event, err := decodeWebhook(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.facade.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		_ = c.Error(err)
	}
	status, body := webhookResponse(res)
	c.JSON(status, body)
}

func decodeWebhook(c *gin.Context) (model.WebhookEvent, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		return nil, errUnknownShape
	}

	var payload dto.WebhookPayload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, errUnknownShape
		}
	}

	if payload.PaymentLinkID != nil && len(payload.PaymentLinkStatus) > 0 && string(payload.PaymentLinkStatus) != "null" {
		return model.RelayEvent{
			PreferenceID: strings.TrimSpace(*payload.PaymentLinkID),
			Paid:         relayPaid(payload.PaymentLinkStatus),
			Token:        c.GetHeader(relayTokenHeader),
		}, nil
	}

	topic := firstNonEmpty(payload.Type, payload.Topic, c.Query("type"), c.Query("topic"))
	var id string
	if payload.Data != nil {
		id = rawID(payload.Data.ID)
	}
	id = firstNonEmpty(id, c.Query("data.id"), c.Query("id"))
	if topic == "" && id == "" {
		return nil, errUnknownShape
	}

	return model.GatewayEvent{
		Type:      topic,
		Action:    payload.Action,
		PaymentID: id,
		Signature: c.GetHeader(signatureHeader),
		RequestID: c.GetHeader(requestIDHeader),
	}, nil
}

// relayPaid accepts both the boolean and the string form of true.
func relayPaid(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func webhookResponse(res model.ReconcileResult) (int, dto.WebhookResponse) {
	body := dto.WebhookResponse{Reason: res.Reason}
	switch res.Outcome {
	case model.OutcomeUpdated:
		body.Status = "ok"
		return http.StatusOK, body
	case model.OutcomeAlreadyProcessed:
		body.Status = "already_processed"
		return http.StatusOK, body
	case model.OutcomeIgnored:
		body.Status = "ignored"
		return http.StatusOK, body
	}

	body.Status = "error"
	if body.Reason == "" {
		body.Reason = "internal error"
	}
	switch res.Outcome {
	case model.OutcomeUnauthenticated:
		return http.StatusUnauthorized, body
	case model.OutcomeSaleNotFound:
		return http.StatusNotFound, body
	case model.OutcomeUpstreamUnavailable:
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}
