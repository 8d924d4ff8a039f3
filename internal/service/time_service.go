package service

import (
	"context"
	"time"

	"github.com/plp-eems/eems-api/internal/repository/ports"
)

type TimeService struct {
	source ports.TimeSource
}

func NewTimeService(source ports.TimeSource) *TimeService {
	return &TimeService{source: source}
}

// ServerTime returns the database clock in UTC.
func (s *TimeService) ServerTime(ctx context.Context) (time.Time, error) {
	now, err := s.source.ServerTime(ctx)
	if err != nil {
		return time.Time{}, storeError("read server time", err)
	}
	return now, nil
}
