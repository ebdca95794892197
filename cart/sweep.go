package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-bookshop/store"
)

const sweepPageSize = 100

// SweepAbandoned deletes every active cart record created at or before
// cutoff, whatever its session. It returns how many records it deleted.
func SweepAbandoned(ctx context.Context, carts store.CartStore, cutoff time.Time) (int, error) {
	return sweep(ctx, carts, cutoff, nil)
}

// sweep is SweepAbandoned calling onDelete with the session token of every
// record it removes
func sweep(ctx context.Context, carts store.CartStore, cutoff time.Time, onDelete func(token string)) (int, error) {
	deleted := 0
	for {
		records, err := carts.GetList(ctx, 1, sweepPageSize, store.ListOptions{
			Filter: store.CartFilter{Active: store.Bool(true), CreatedBefore: cutoff},
			Sort:   store.SortOldest,
		})
		if err != nil {
			return deleted, err
		}
		for _, rec := range records {
			err := carts.Delete(ctx, rec.ID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return deleted, err
			}
			if err == nil {
				deleted++
				if onDelete != nil {
					onDelete(rec.SessionToken)
				}
			}
		}
		if len(records) < sweepPageSize {
			return deleted, nil
		}
	}
}

// Janitor sweeps abandoned carts and idle sessions on an interval
type Janitor struct {
	Carts     store.CartStore
	Registry  *Registry
	Interval  time.Duration
	Retention time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// RunOnce performs a single sweep
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	retention := j.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	var onDelete func(string)
	if j.Registry != nil {
		j.Registry.Evict(now())
		onDelete = j.Registry.Invalidate
	}
	return sweep(ctx, j.Carts, now().Add(-retention), onDelete)
}

// Run sweeps until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := j.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.RunOnce(ctx)
			if err != nil {
				logger.Warn("Abandoned cart sweep failed", "deleted", n, "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Swept abandoned carts", "deleted", n)
			}
		}
	}
}
