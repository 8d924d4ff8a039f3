package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type TimeRepository struct {
	db *sqlx.DB
}

func NewTimeRepo(db *sqlx.DB) *TimeRepository {
	return &TimeRepository{db: db}
}

func (r *TimeRepository) ServerTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.GetContext(ctx, &now, `SELECT NOW()`); err != nil {
		return time.Time{}, err
	}
	return now.UTC(), nil
}
