package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses an administrator can set on a checked-out cart
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
)

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

// CustomerInfo is what the checkout form collects
type CustomerInfo struct {
	FullName string `bson:"full_name" json:"fullName"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone" json:"phone"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	ZipCode  string `bson:"zip_code,omitempty" json:"zipCode,omitempty"`
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CheckoutPayload is the checkout request body. Clients sometimes post the
// cart and total alongside the customer fields; those are accepted and dropped.
type CheckoutPayload struct {
	CustomerInfo
	Cart  json.RawMessage `json:"cart,omitempty"`
	Total json.RawMessage `json:"total,omitempty"`
}

// Customer returns only the customer fields of the payload
func (p CheckoutPayload) Customer() CustomerInfo {
	return p.CustomerInfo
}

// OrderSnapshot is the cart as it was submitted
type OrderSnapshot struct {
	Items   []LineItem `bson:"items" json:"items"`
	Total   Money      `bson:"total" json:"total"`
	Updated time.Time  `bson:"updated" json:"updated"`
}

// OrderReceipt is returned to the shopper after checkout
type OrderReceipt struct {
	RecordID  primitive.ObjectID `json:"id"`
	OrderDate time.Time          `json:"order_date"`
	Total     Money              `json:"total"`
	Status    string             `json:"status"`
}
