package auth

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newTokenStrategy),
	fx.Provide(newVerifier),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.TokenSecret, Options{TTL: p.Config.TokenTTL})
}

type verifierParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newVerifier(p verifierParams) *Verifier {
	if p.Config.AllowUnsignedWebhooks {
		p.Logger.Warn("unsigned webhooks are accepted; never enable this in production",
			slog.String("env", p.Config.Environment),
			slog.Bool("secret_configured", p.Config.WebhookSecret != ""))
	}
	return NewVerifier(p.Config.WebhookSecret).WithRelayToken(p.Config.RelayToken)
}
