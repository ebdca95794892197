// Package orders is the back office's view of checked-out carts
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-bookshop/models"
	"go-bookshop/store"
	"go-bookshop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const listPageSize = 100

var (
	// ErrInvalidStatus is returned for a status outside pending/confirmed/completed
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrNotAnOrder is returned when the record is still a live cart
	ErrNotAnOrder = errors.New("record is an active cart, not an order")
)

// Service manages orders: cart records that have been checked out
type Service struct {
	Carts  store.CartStore
	Emails *utils.EmailService
	Now    func() time.Time
}

func NewService(carts store.CartStore, emails *utils.EmailService) *Service {
	return &Service{Carts: carts, Emails: emails, Now: time.Now}
}

// List returns every order newest first, optionally only those with status
func (s *Service) List(ctx context.Context, status string) ([]models.CartRecord, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	filter := store.CartFilter{Active: store.Bool(false), Status: status}

	orders := []models.CartRecord{}
	for page := 1; ; page++ {
		records, err := s.Carts.GetList(ctx, page, listPageSize, store.ListOptions{Filter: filter, Sort: store.SortNewest})
		if err != nil {
			return nil, fmt.Errorf("failed to load orders: %w", err)
		}
		orders = append(orders, records...)
		if len(records) < listPageSize {
			return orders, nil
		}
	}
}

// Get returns one order
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.CartRecord, error) {
	rec, err := s.Carts.GetOne(ctx, id)
	if err != nil {
		return models.CartRecord{}, err
	}
	if rec.Active {
		return models.CartRecord{}, ErrNotAnOrder
	}
	return rec, nil
}

// UpdateStatus changes an order's status and tells the customer. The email
// is best effort; a send failure is logged, not returned.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (models.CartRecord, error) {
	if !models.ValidOrderStatus(status) {
		return models.CartRecord{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return models.CartRecord{}, err
	}

	now := s.now()
	rec.Status = status
	rec.Confirmed = status == models.StatusConfirmed
	rec.LastUpdated = &now
	updated, err := s.Carts.Update(ctx, rec)
	if err != nil {
		return models.CartRecord{}, fmt.Errorf("failed to update order status: %w", err)
	}
	slog.Info("Order status updated", "order_id", id.Hex(), "status", status)

	if s.Emails != nil && updated.CustomerInfo != nil {
		if err := s.Emails.SendOrderStatusEmail(*updated.CustomerInfo, id.Hex(), status); err != nil {
			slog.Warn("Failed to send status email", "order_id", id.Hex(), "error", err)
		}
	}
	return updated, nil
}

// Delete removes an order
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Carts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	slog.Info("Order deleted", "order_id", id.Hex())
	return nil
}

// NotifyPlaced sends the confirmation email for a fresh order in the
// background, the way the storefront confirms purchases.
func (s *Service) NotifyPlaced(customer models.CustomerInfo, receipt models.OrderReceipt, items []models.LineItem) {
	if s.Emails == nil {
		return
	}
	go func() {
		if err := s.Emails.SendOrderConfirmationEmail(customer, receipt, items); err != nil {
			slog.Warn("Failed to send confirmation email", "order_id", receipt.RecordID.Hex(), "to", customer.Email, "error", err)
		}
	}()
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
