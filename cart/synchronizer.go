// Package cart keeps a shopper's in-memory cart in step with its durable cart
// record, and falls back to a local snapshot when the store is unreachable.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go-bookshop/models"
	"go-bookshop/store"
	"go-bookshop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultRetention is how long an active cart lives before it counts as abandoned
	DefaultRetention = 24 * time.Hour
	// DefaultNotificationTTL is how long an add-to-cart notification stays visible
	DefaultNotificationTTL = 3 * time.Second

	clearPageSize = 50
)

// Synchronizer owns one session's cart. Its methods are safe to call from
// several goroutines; each operation runs to completion before the next one
// starts. Concurrent writers in other processes are detected through the
// record version and reported as a conflict.
type Synchronizer struct {
	token  string
	carts  store.CartStore
	cache  *SnapshotCache
	now    func() time.Time
	logger *slog.Logger

	retention       time.Duration
	notificationTTL time.Duration
	onSweep         func(token string)

	mu           sync.Mutex
	items        []models.LineItem
	total        models.Money
	stale        bool
	record       *models.CartRecord
	notification *Notification
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithCache sets the advisory snapshot tier
func WithCache(c *SnapshotCache) Option {
	return func(s *Synchronizer) { s.cache = c }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithRetention sets the abandoned-cart window used by Load
func WithRetention(d time.Duration) Option {
	return func(s *Synchronizer) { s.retention = d }
}

// WithNotificationTTL sets how long the add-to-cart notification stays visible
func WithNotificationTTL(d time.Duration) Option {
	return func(s *Synchronizer) { s.notificationTTL = d }
}

// WithLogger sets the logger; lines are tagged with the session token
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// withSweepHook is called with the session token of every cart the sweep in
// Load deletes
func withSweepHook(fn func(token string)) Option {
	return func(s *Synchronizer) { s.onSweep = fn }
}

// New returns a Synchronizer for the session token. The caller owns the
// token: generating it, persisting it and passing it back on every visit.
func New(token string, carts store.CartStore, opts ...Option) (*Synchronizer, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty session token", ErrInvalidInput)
	}
	if carts == nil {
		return nil, errors.New("cart: nil cart store")
	}
	s := &Synchronizer{
		token:           token,
		carts:           carts,
		now:             time.Now,
		logger:          slog.Default(),
		retention:       DefaultRetention,
		notificationTTL: DefaultNotificationTTL,
		items:           []models.LineItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewSnapshotCache(utils.NewMemoryCache())
	}
	s.logger = s.logger.With("cart_id", token)
	return s, nil
}

// Token returns the session token
func (s *Synchronizer) Token() string { return s.token }

// RecordID returns the id of the bound cart record, if any
func (s *Synchronizer) RecordID() (primitive.ObjectID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return primitive.NilObjectID, false
	}
	return s.record.ID, true
}

// State returns a copy of the current cart
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Notification returns the pending notification, or nil once it has expired
func (s *Synchronizer) Notification() *Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notification == nil {
		return nil
	}
	if !s.now().Before(s.notification.ExpiresAt) {
		s.notification = nil
		return nil
	}
	n := *s.notification
	return &n
}

func (s *Synchronizer) DismissNotification() {
	s.mu.Lock()
	s.notification = nil
	s.mu.Unlock()
}

// Load sweeps abandoned carts, then adopts the newest active record of the
// session. With no such record the cart starts empty and unbound.
func (s *Synchronizer) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if n, err := sweep(ctx, s.carts, now.Add(-s.retention), s.onSweep); err != nil {
		s.logger.Warn("Abandoned cart sweep failed", "deleted", n, "error", err)
	} else if n > 0 {
		s.logger.Info("Swept abandoned carts", "deleted", n)
	}

	records, err := s.carts.GetList(ctx, 1, 1, store.ListOptions{
		Filter: store.CartFilter{SessionToken: s.token, Active: store.Bool(true)},
		Sort:   store.SortNewest,
	})
	if err != nil {
		s.logger.Error("Error loading cart", "error", err)
		return s.stateLocked(), &LoadError{Err: err}
	}

	if len(records) == 0 {
		s.record = nil
		s.commit(nil)
		return s.stateLocked(), nil
	}
	s.bind(records[0])
	s.commit(records[0].Items)
	return s.stateLocked(), nil
}

// RecoverFromLocalCache restores the last committed items from the snapshot
// tier and marks the state stale. It reports false when there is nothing to
// restore. The next mutation writes the restored items to the store as-is.
func (s *Synchronizer) RecoverFromLocalCache() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, savedAt, ok := s.cache.Load(s.token)
	if !ok {
		return s.stateLocked(), false
	}
	s.items = items
	s.total = models.CalculateTotal(items)
	s.stale = true
	s.logger.Warn("Using saved cart, a refresh is recommended", "saved_at", savedAt, "items", len(items))
	return s.stateLocked(), true
}

// AddItem adds quantity of product, merging with an existing line for the
// same product. The first add of a session creates the cart record.
func (s *Synchronizer) AddItem(ctx context.Context, p Product, quantity int) (State, error) {
	if strings.TrimSpace(p.ID) == "" {
		return s.State(), fmt.Errorf("%w: missing product id", ErrInvalidInput)
	}
	if quantity <= 0 {
		return s.State(), fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, quantity)
	}
	price, err := models.ParseMoney(strings.TrimSpace(p.Price))
	if err != nil {
		return s.State(), fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if price.IsNegative() {
		return s.State(), fmt.Errorf("%w: negative price %s", ErrInvalidInput, price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := models.CloneItems(s.items)
	merged := false
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, models.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: price,
			Quantity:  quantity,
			ImageURL:  p.ImageURL,
			Author:    p.Author,
			Category:  p.Category,
		})
	}

	if err := s.persist(ctx, items); err != nil {
		s.logger.Error("Error adding to cart", "book_id", p.ID, "error", err)
		return s.stateLocked(), &MutationError{Op: "add item to cart", Err: err}
	}
	s.commit(items)
	s.notification = &Notification{
		Type:      "success",
		Message:   fmt.Sprintf("Added %s to your cart", p.Name),
		ExpiresAt: s.now().Add(s.notificationTTL),
	}
	return s.stateLocked(), nil
}

// RemoveItem drops the line for productID. Without a bound record it does
// nothing.
func (s *Synchronizer) RemoveItem(ctx context.Context, productID string) (State, error) {
	if strings.TrimSpace(productID) == "" {
		return s.State(), fmt.Errorf("%w: missing product id", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, productID)
}

func (s *Synchronizer) removeLocked(ctx context.Context, productID string) (State, error) {
	if s.record == nil {
		return s.stateLocked(), nil
	}
	items := make([]models.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	if err := s.persist(ctx, items); err != nil {
		s.logger.Error("Error removing from cart", "book_id", productID, "error", err)
		return s.stateLocked(), &MutationError{Op: "remove item from cart", Err: err}
	}
	s.commit(items)
	return s.stateLocked(), nil
}

// UpdateQuantity sets the quantity of productID; zero or less removes it.
// The new quantity is shown before the store confirms it. If the write fails
// the bound record is read back once and adopted; if that also fails the
// unconfirmed state stays.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, productID string, newQuantity int) (State, error) {
	if strings.TrimSpace(productID) == "" {
		return s.State(), fmt.Errorf("%w: missing product id", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if newQuantity <= 0 {
		return s.removeLocked(ctx, productID)
	}
	if s.record == nil {
		return s.stateLocked(), ErrNoActiveCart
	}

	idx := -1
	for i, item := range s.items {
		if item.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s.stateLocked(), fmt.Errorf("%w: book %s is not in the cart", ErrInvalidInput, productID)
	}

	items := models.CloneItems(s.items)
	items[idx].Quantity = newQuantity
	s.commit(items)

	if err := s.persist(ctx, items); err != nil {
		s.logger.Error("Error updating quantity", "book_id", productID, "error", err)
		s.reconcile(ctx)
		return s.stateLocked(), &MutationError{Op: "update quantity", Err: err}
	}
	return s.stateLocked(), nil
}

// reconcile reads the bound record back after a failed write
func (s *Synchronizer) reconcile(ctx context.Context) {
	rec, err := s.carts.GetOne(ctx, s.record.ID)
	if errors.Is(err, store.ErrNotFound) {
		// swept or cleared elsewhere
		s.logger.Warn("Cart record is gone, starting an empty cart", "record_id", s.record.ID.Hex())
		s.record = nil
		s.commit(nil)
		return
	}
	if err != nil {
		s.logger.Error("Error reloading cart data", "record_id", s.record.ID.Hex(), "error", err)
		return
	}
	if !rec.Active {
		// checked out elsewhere
		s.record = nil
		s.commit(nil)
		return
	}
	s.bind(rec)
	s.commit(rec.Items)
}

// Checkout turns the bound cart into a pending order and empties the cart.
// Any cart or total fields posted with the customer details are ignored; the
// order is built from the synchronizer's own items.
func (s *Synchronizer) Checkout(ctx context.Context, payload models.CheckoutPayload) (models.OrderReceipt, error) {
	customer := payload.Customer()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return models.OrderReceipt{}, ErrNoActiveCart
	}
	if len(s.items) == 0 {
		return models.OrderReceipt{}, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	now := s.now()
	total := models.CalculateTotal(s.items)
	next := *s.record
	next.Items = models.CloneItems(s.items)
	next.Total = total
	next.LastAccessed = now
	next.Active = false
	next.Status = models.StatusPending
	next.OrderDate = &now
	next.CustomerInfo = &customer
	next.Order = &models.OrderSnapshot{
		Items:   models.CloneItems(s.items),
		Total:   total,
		Updated: now,
	}

	rec, err := s.carts.Update(ctx, next)
	if err != nil {
		s.logger.Error("Error checking out", "record_id", next.ID.Hex(), "error", err)
		return models.OrderReceipt{}, &CheckoutError{Err: err}
	}

	s.record = nil
	s.commit(nil)
	s.notification = nil

	receipt := models.OrderReceipt{
		RecordID:  rec.ID,
		OrderDate: now,
		Total:     total,
		Status:    rec.Status,
	}
	if rec.Order != nil {
		receipt.Total = rec.Order.Total
	}
	s.logger.Info("Order submitted", "record_id", rec.ID.Hex(), "total", receipt.Total.String())
	return receipt, nil
}

// ClearCart deletes every record of the session, active or not, and starts a
// fresh empty active record.
func (s *Synchronizer) ClearCart(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	for {
		records, err := s.carts.GetList(ctx, 1, clearPageSize, store.ListOptions{
			Filter: store.CartFilter{SessionToken: s.token},
			Sort:   store.SortOldest,
		})
		if err != nil {
			s.logger.Error("Error clearing cart", "error", err)
			return s.stateLocked(), &MutationError{Op: "clear cart", Err: err}
		}
		for _, rec := range records {
			if err := s.carts.Delete(ctx, rec.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				s.logger.Error("Error clearing cart", "record_id", rec.ID.Hex(), "error", err)
				return s.stateLocked(), &MutationError{Op: "clear cart", Err: err}
			}
		}
		if len(records) < clearPageSize {
			break
		}
	}

	if err := s.persist(ctx, nil); err != nil {
		s.logger.Error("Error creating empty cart", "error", err)
		return s.stateLocked(), &MutationError{Op: "clear cart", Err: err}
	}
	s.commit(nil)
	return s.stateLocked(), nil
}

// persist writes items to the bound record, creating it if there is none
func (s *Synchronizer) persist(ctx context.Context, items []models.LineItem) error {
	now := s.now()
	if items == nil {
		items = []models.LineItem{}
	}
	total := models.CalculateTotal(items)

	if s.record == nil {
		rec, err := s.carts.Create(ctx, models.CartRecord{
			SessionToken: s.token,
			Items:        models.CloneItems(items),
			Total:        total,
			Active:       true,
			Created:      now,
			LastAccessed: now,
		})
		if err != nil {
			return err
		}
		s.bind(rec)
		return nil
	}

	next := *s.record
	next.Items = models.CloneItems(items)
	next.Total = total
	next.LastAccessed = now
	rec, err := s.carts.Update(ctx, next)
	if err != nil {
		return err
	}
	s.bind(rec)
	return nil
}

func (s *Synchronizer) bind(rec models.CartRecord) {
	s.record = &rec
}

// commit makes items the current state and refreshes the local snapshot
func (s *Synchronizer) commit(items []models.LineItem) {
	s.items = models.CloneItems(items)
	s.total = models.CalculateTotal(s.items)
	s.stale = false
	if err := s.cache.Save(s.token, s.items, s.total, s.now()); err != nil {
		s.logger.Warn("Error saving cart snapshot", "error", err)
	}
}

func (s *Synchronizer) stateLocked() State {
	return State{
		Items: models.CloneItems(s.items),
		Total: s.total,
		Stale: s.stale,
	}
}
