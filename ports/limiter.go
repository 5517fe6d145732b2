package ports

import (
	"context"

	"github.com/layer-3/encore/core"
)

// Limiter bounds the number of requests a client key may make per window
type Limiter interface {
	Admit(ctx context.Context, key string) (core.Decision, error)
}
