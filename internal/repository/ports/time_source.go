package ports

import (
	"context"
	"time"
)

type TimeSource interface {
	ServerTime(ctx context.Context) (time.Time, error)
}
