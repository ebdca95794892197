package cart

import (
	"encoding/json"
	"time"

	"go-bookshop/models"
	"go-bookshop/utils"
)

const snapshotKeyPrefix = "cartItems:"

// SnapshotCache is the advisory tier behind the durable store. It keeps the
// last committed items of each session so a cart can still be shown when the
// store is unreachable. Nothing read from it is reconciled with the store.
type SnapshotCache struct {
	cache utils.Cache
}

func NewSnapshotCache(c utils.Cache) *SnapshotCache {
	return &SnapshotCache{cache: c}
}

type snapshot struct {
	Items   []models.LineItem `json:"items"`
	Total   models.Money      `json:"total"`
	SavedAt time.Time         `json:"saved_at"`
}

// Save records items for token. An empty cart removes the snapshot.
func (c *SnapshotCache) Save(token string, items []models.LineItem, total models.Money, now time.Time) error {
	if len(items) == 0 {
		return c.cache.Remove(snapshotKeyPrefix + token)
	}
	data, err := json.Marshal(snapshot{Items: items, Total: total, SavedAt: now})
	if err != nil {
		return err
	}
	return c.cache.Set(snapshotKeyPrefix+token, string(data))
}

// Load returns the snapshot for token, if there is a readable one
func (c *SnapshotCache) Load(token string) ([]models.LineItem, time.Time, bool) {
	raw, ok := c.cache.Get(snapshotKeyPrefix + token)
	if !ok {
		return nil, time.Time{}, false
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil || len(snap.Items) == 0 {
		return nil, time.Time{}, false
	}
	return snap.Items, snap.SavedAt, true
}

// Clear drops the snapshot for token
func (c *SnapshotCache) Clear(token string) error {
	return c.cache.Remove(snapshotKeyPrefix + token)
}
