package cart

import (
	"context"
	"testing"
	"time"

	"go-bookshop/models"
	"go-bookshop/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepAbandoned(t *testing.T) {
	ctx := context.Background()
	carts := store.NewMemoryCartStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	abandoned, err := carts.Create(ctx, models.CartRecord{SessionToken: "cart_old", Active: true, Created: now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	recent, err := carts.Create(ctx, models.CartRecord{SessionToken: "cart_new", Active: true, Created: now.Add(-23 * time.Hour)})
	require.NoError(t, err)
	order, err := carts.Create(ctx, models.CartRecord{SessionToken: "cart_order", Active: false, Created: now.Add(-72 * time.Hour)})
	require.NoError(t, err)

	n, err := SweepAbandoned(ctx, carts, now.Add(-DefaultRetention))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = carts.GetOne(ctx, abandoned.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = carts.GetOne(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = carts.GetOne(ctx, order.ID)
	assert.NoError(t, err, "orders are never swept")
}

func TestSweepAbandonedPages(t *testing.T) {
	ctx := context.Background()
	carts := store.NewMemoryCartStore()
	now := time.Now()
	for i := 0; i < sweepPageSize*2+3; i++ {
		_, err := carts.Create(ctx, models.CartRecord{SessionToken: "cart_x", Active: true, Created: now.Add(-48 * time.Hour)})
		require.NoError(t, err)
	}

	n, err := SweepAbandoned(ctx, carts, now.Add(-DefaultRetention))
	require.NoError(t, err)
	assert.Equal(t, sweepPageSize*2+3, n)
}

func TestLoadSweepsBeforeQuerying(t *testing.T) {
	ctx := context.Background()
	carts := store.NewMemoryCartStore()
	clock := newFakeClock()

	_, err := carts.Create(ctx, models.CartRecord{
		SessionToken: "cart_stale",
		Active:       true,
		Created:      clock.Now().Add(-25 * time.Hour),
		Items:        []models.LineItem{{ProductID: "b1", UnitPrice: money("15"), Quantity: 1}},
	})
	require.NoError(t, err)

	s := newTestSynchronizer(t, "cart_stale", carts, clock, nil)
	state, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.Empty(t, sessionRecords(t, carts, "cart_stale"))
}

func TestJanitorRunOnce(t *testing.T) {
	ctx := context.Background()
	carts := store.NewMemoryCartStore()
	clock := newFakeClock()
	registry := NewRegistry(carts, time.Hour, WithLogger(quietLogger()))

	_, err := registry.Get(ctx, "cart_idle")
	require.NoError(t, err)
	_, err = carts.Create(ctx, models.CartRecord{SessionToken: "cart_old", Active: true, Created: clock.Now().Add(-30 * time.Hour)})
	require.NoError(t, err)

	j := &Janitor{Carts: carts, Registry: registry, Now: func() time.Time { return time.Now().Add(2 * time.Hour) }}
	n, err := j.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, registry.Len())
}
