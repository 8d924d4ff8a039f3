package ports

import (
	"context"
	"time"
)

// Throttle counts hits per key in a fixed window. When allowed is false, retryAfter is the
// remaining block time.
type Throttle interface {
	Hit(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
