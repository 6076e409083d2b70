package usecase

import (
	"log/slog"
	"strings"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

var gatewayStatuses = map[string]model.PaymentStatus{
	"approved":     model.PaymentStatusPaid,
	"pending":      model.PaymentStatusPending,
	"in_process":   model.PaymentStatusPending,
	"authorized":   model.PaymentStatusPending,
	"in_mediation": model.PaymentStatusPending,
	"rejected":     model.PaymentStatusFailed,
	"cancelled":    model.PaymentStatusFailed,
	"refunded":     model.PaymentStatusRefunded,
	"charged_back": model.PaymentStatusChargeback,
}

// MapGatewayStatus translates the gateway vocabulary. Unknown values map to
// pending with known=false so the caller can warn about them.
func MapGatewayStatus(status string) (model.PaymentStatus, bool) {
	mapped, ok := gatewayStatuses[strings.ToLower(strings.TrimSpace(status))]
	if !ok {
		return model.PaymentStatusPending, false
	}
	return mapped, true
}

// RelayGatewayStatus renders the relay's paid flag in gateway vocabulary.
func RelayGatewayStatus(paid bool) string {
	if paid {
		return "approved"
	}
	return "pending"
}

func mapStatusLogged(logger *slog.Logger, status string, key model.IdentityKey) model.PaymentStatus {
	mapped, known := MapGatewayStatus(status)
	if !known {
		logger.Warn("unknown gateway status, treating as pending",
			slog.String("gateway_status", status),
			slog.String("key", key.String()))
	}
	return mapped
}
