package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/samplestore/internal/config"
)

// Module exposes the gateway client to the fx graph. The client is built once
// per process and injected wherever payments are looked up.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	if p.Config.GatewayAccessToken == "" {
		p.Logger.Warn("gateway access token is empty; payment lookups will be rejected upstream")
	}
	return NewHTTPClient(p.Config.GatewayBaseURL, p.Config.GatewayAccessToken, p.Logger)
}
