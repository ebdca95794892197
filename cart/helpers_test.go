package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go-bookshop/models"
	"go-bookshop/store"
	"go-bookshop/utils"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errUnavailable = errors.New("store unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyStore wraps a MemoryCartStore and fails the calls switched on
type flakyStore struct {
	*store.MemoryCartStore

	mu         sync.Mutex
	failCreate bool
	failUpdate bool
	failList   bool
	failGet    bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryCartStore: store.NewMemoryCartStore()}
}

func (f *flakyStore) set(fn func(*flakyStore)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *flakyStore) failing(flag *bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *flag
}

func (f *flakyStore) Create(ctx context.Context, rec models.CartRecord) (models.CartRecord, error) {
	if f.failing(&f.failCreate) {
		return models.CartRecord{}, errUnavailable
	}
	return f.MemoryCartStore.Create(ctx, rec)
}

func (f *flakyStore) Update(ctx context.Context, rec models.CartRecord) (models.CartRecord, error) {
	if f.failing(&f.failUpdate) {
		return models.CartRecord{}, errUnavailable
	}
	return f.MemoryCartStore.Update(ctx, rec)
}

func (f *flakyStore) GetList(ctx context.Context, page, perPage int, opts store.ListOptions) ([]models.CartRecord, error) {
	if f.failing(&f.failList) {
		return nil, errUnavailable
	}
	return f.MemoryCartStore.GetList(ctx, page, perPage, opts)
}

func (f *flakyStore) GetOne(ctx context.Context, id primitive.ObjectID) (models.CartRecord, error) {
	if f.failing(&f.failGet) {
		return models.CartRecord{}, errUnavailable
	}
	return f.MemoryCartStore.GetOne(ctx, id)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSynchronizer(t *testing.T, token string, carts store.CartStore, clock *fakeClock, cache *SnapshotCache) *Synchronizer {
	t.Helper()
	if cache == nil {
		cache = NewSnapshotCache(utils.NewMemoryCache())
	}
	s, err := New(token, carts,
		WithClock(clock.Now),
		WithCache(cache),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	return s
}

func sessionRecords(t *testing.T, carts store.CartStore, token string) []models.CartRecord {
	t.Helper()
	recs, err := carts.GetList(context.Background(), 1, 100, store.ListOptions{
		Filter: store.CartFilter{SessionToken: token},
		Sort:   store.SortOldest,
	})
	require.NoError(t, err)
	return recs
}

var (
	dune = Product{ID: "b1", Name: "Dune", Price: "15.00", Author: "Frank Herbert", Category: "Science Fiction"}
	foo  = Product{ID: "b2", Name: "Foo", Price: "10"}
)

func money(s string) models.Money { return models.MustParseMoney(s) }
