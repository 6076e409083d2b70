package events

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Module provides the transition Publisher.
var Module = fx.Provide(newPublisher)

type publisherParams struct {
	fx.In

	Redis redis.UniversalClient `optional:"true"`
}

func newPublisher(p publisherParams) Publisher {
	if p.Redis == nil {
		return NopPublisher{}
	}
	return NewRedisPublisher(p.Redis)
}
