package store

import (
	"context"
	"testing"
	"time"

	"go-bookshop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryCartStoreVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStore()

	rec, err := s.Create(ctx, models.CartRecord{SessionToken: "cart_1", Active: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.False(t, rec.ID.IsZero())
	assert.False(t, rec.Created.IsZero())

	stale := rec
	rec.Items = []models.LineItem{{ProductID: "b1", Quantity: 1}}
	updated, err := s.Update(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	stale.Items = []models.LineItem{{ProductID: "b2", Quantity: 9}}
	_, err = s.Update(ctx, stale)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := s.GetOne(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.Items[0].ProductID)

	_, err = s.Update(ctx, models.CartRecord{ID: primitive.NewObjectID(), Version: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCartStoreDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStore()
	items := []models.LineItem{{ProductID: "b1", Quantity: 1}}

	rec, err := s.Create(ctx, models.CartRecord{SessionToken: "cart_1", Items: items})
	require.NoError(t, err)
	items[0].Quantity = 50
	rec.Items[0].Quantity = 60

	got, err := s.GetOne(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestMemoryCartStoreGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		rec, err := s.Create(ctx, models.CartRecord{
			SessionToken: "cart_a",
			Active:       i%2 == 0,
			Created:      base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := s.Create(ctx, models.CartRecord{SessionToken: "cart_b", Active: true, Created: base})
	require.NoError(t, err)

	newest, err := s.GetList(ctx, 1, 1, ListOptions{
		Filter: CartFilter{SessionToken: "cart_a", Active: Bool(true)},
		Sort:   SortNewest,
	})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, ids[4], newest[0].ID)

	page2, err := s.GetList(ctx, 2, 2, ListOptions{Filter: CartFilter{SessionToken: "cart_a"}, Sort: SortOldest})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].ID)
	assert.Equal(t, ids[3], page2[1].ID)

	before, err := s.GetList(ctx, 1, 10, ListOptions{Filter: CartFilter{CreatedBefore: base.Add(time.Hour)}})
	require.NoError(t, err)
	assert.Len(t, before, 3, "CreatedBefore is inclusive")

	empty, err := s.GetList(ctx, 9, 10, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryCartStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStore()
	rec, err := s.Create(ctx, models.CartRecord{SessionToken: "cart_1"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.ID))
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrNotFound)
	_, err = s.GetOne(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBookStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookStore()

	a, err := s.Create(ctx, models.Book{Name: "Dune", Featured: true})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	b, err := s.Create(ctx, models.Book{Name: "Emma"})
	require.NoError(t, err)

	all, err := s.List(ctx, 0, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	featured, err := s.List(ctx, 10, true)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, a.ID, featured[0].ID)

	a.Name = "Dune Messiah"
	_, err = s.Update(ctx, a)
	require.NoError(t, err)
	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Name)

	require.NoError(t, s.Delete(ctx, a.ID))
	_, err = s.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()

	_, err := s.FindByEmail(ctx, "admin@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	saved, err := s.Save(ctx, models.User{Email: "Admin@Example.com", Role: "admin", Password: "x"})
	require.NoError(t, err)
	again, err := s.Save(ctx, models.User{Email: "admin@example.com", Role: "staff", Password: "y"})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	got, err := s.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "staff", got.Role)
}

func TestCartFilterQuery(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := cartFilter(CartFilter{SessionToken: "cart_1", Active: Bool(false), CreatedBefore: cutoff, Status: "pending"})

	assert.Equal(t, bson.M{
		"cart_id": "cart_1",
		"active":  false,
		"created": bson.M{"$lte": cutoff},
		"status":  "pending",
	}, q)
	assert.Empty(t, cartFilter(CartFilter{}))

	assert.Equal(t, bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}, cartSort(SortNewest))
}
