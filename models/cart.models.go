package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem is one book in a cart, with the price captured when it was added
type LineItem struct {
	ProductID string `bson:"book_id" json:"book_id"`
	Name      string `bson:"name" json:"name"`
	UnitPrice Money  `bson:"price" json:"price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	ImageURL  string `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Author    string `bson:"author,omitempty" json:"author,omitempty"`
	Category  string `bson:"genre,omitempty" json:"genre,omitempty"`
}

// Subtotal is unit price times quantity
func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Times(li.Quantity)
}

// CartRecord is the durable record of one session's cart. Once checked out it
// becomes inactive and carries the customer details and the submitted order.
type CartRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SessionToken string             `bson:"cart_id" json:"cart_id"`
	Items        []LineItem         `bson:"items" json:"items"`
	Total        Money              `bson:"total" json:"total"`
	Active       bool               `bson:"active" json:"active"`
	Version      int64              `bson:"version" json:"version"`
	Created      time.Time          `bson:"created" json:"created"`
	LastAccessed time.Time          `bson:"last_accessed" json:"last_accessed"`

	// Set at checkout
	Status       string         `bson:"status,omitempty" json:"status,omitempty"` // "pending", "confirmed", "completed"
	Confirmed    bool           `bson:"confirmed,omitempty" json:"confirmed,omitempty"`
	CustomerInfo *CustomerInfo  `bson:"customer_info,omitempty" json:"customer_info,omitempty"`
	OrderDate    *time.Time     `bson:"order_date,omitempty" json:"order_date,omitempty"`
	Order        *OrderSnapshot `bson:"order,omitempty" json:"order,omitempty"`
	LastUpdated  *time.Time     `bson:"last_updated,omitempty" json:"last_updated,omitempty"`
}

// CalculateTotal sums unit price times quantity over items
func CalculateTotal(items []LineItem) Money {
	total := Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CloneItems copies a line item slice so records never share backing arrays
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
