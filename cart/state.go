package cart

import (
	"time"

	"go-bookshop/models"
)

// State is the cart as the shopper sees it
type State struct {
	Items []models.LineItem `json:"items"`
	Total models.Money      `json:"total"`
	// Stale is set when the state was restored from the local snapshot
	// instead of the durable store; a refresh is recommended.
	Stale bool `json:"stale,omitempty"`
}

// Notification is a transient message shown after a cart change
type Notification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"-"`
}

// Product is what the catalog hands to AddItem. Price is the catalog's
// textual price and is parsed when the item is added.
type Product struct {
	ID       string
	Name     string
	Price    string
	ImageURL string
	Author   string
	Category string
}

// ProductFromBook adapts a catalog book
func ProductFromBook(b models.Book) Product {
	return Product{
		ID:       b.ID.Hex(),
		Name:     b.Name,
		Price:    b.Price.Decimal().String(),
		ImageURL: b.ImageURL,
		Author:   b.Author,
		Category: b.Genre,
	}
}
