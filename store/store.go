// Package store holds the durable record stores behind the storefront: cart
// records (which become orders at checkout), the book catalog and back-office
// users, plus customer print orders with their uploaded PDFs. Each store has a
// MongoDB and an in-memory implementation.
package store

import (
	"context"
	"errors"
	"io"
	"time"

	"go-bookshop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned by a versioned update when the stored record has
	// moved past the version the caller read
	ErrConflict = errors.New("store: record was modified concurrently")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("store: duplicate record")
)

// Sort orders for GetList
const (
	SortNewest = "-created"
	SortOldest = "created"
)

// CartFilter selects cart records. Zero fields do not constrain.
type CartFilter struct {
	SessionToken string
	Active       *bool
	// CreatedBefore matches records created at or before this instant
	CreatedBefore time.Time
	Status        string
}

// ListOptions mirrors the list call of a document BaaS: a filter and a sort key
type ListOptions struct {
	Filter CartFilter
	Sort   string
}

// CartStore is the capability set the cart synchronizer and the order back
// office need from a durable document store.
type CartStore interface {
	// Create inserts rec with version 1 and returns it with its new id
	Create(ctx context.Context, rec models.CartRecord) (models.CartRecord, error)
	// Update replaces the record with rec.ID if its stored version still equals
	// rec.Version, and returns the stored result with the version incremented.
	Update(ctx context.Context, rec models.CartRecord) (models.CartRecord, error)
	GetOne(ctx context.Context, id primitive.ObjectID) (models.CartRecord, error)
	// GetList returns one page (1-based) of matching records
	GetList(ctx context.Context, page, perPage int, opts ListOptions) ([]models.CartRecord, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// BookStore persists the catalog
type BookStore interface {
	Create(ctx context.Context, b models.Book) (models.Book, error)
	Update(ctx context.Context, b models.Book) (models.Book, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Book, error)
	// List returns up to limit books newest first; limit <= 0 means all
	List(ctx context.Context, limit int, featuredOnly bool) ([]models.Book, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserStore persists back-office accounts
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Save inserts the user or replaces the one with the same email
	Save(ctx context.Context, u models.User) (models.User, error)
}

// PrintOrderStore persists print orders and the PDF attached to each
type PrintOrderStore interface {
	// Create stores the file read from file under fileName, then the order
	// pointing at it. On failure nothing is left behind.
	Create(ctx context.Context, order models.PrintOrder, fileName string, file io.Reader) (models.PrintOrder, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.PrintOrder, error)
	// List returns orders newest first; an empty status matches all
	List(ctx context.Context, status string) ([]models.PrintOrder, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (models.PrintOrder, error)
	// Delete removes the order and its file
	Delete(ctx context.Context, id primitive.ObjectID) error
	// OpenFile streams the order's file; the caller closes it
	OpenFile(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, error)
}

// Bool returns a pointer to b, for filter fields
func Bool(b bool) *bool { return &b }

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}
	return page, perPage
}
