package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Print order statuses. A print order moves through more steps than a cart
// order because the book has to be printed first.
const (
	PrintStatusPending    = "pending"
	PrintStatusConfirmed  = "confirmed"
	PrintStatusProcessing = "processing"
	PrintStatusCompleted  = "completed"
	PrintStatusCancelled  = "cancelled"
)

// ValidPrintOrderStatus reports whether s is a known print order status
func ValidPrintOrderStatus(s string) bool {
	switch s {
	case PrintStatusPending, PrintStatusConfirmed, PrintStatusProcessing, PrintStatusCompleted, PrintStatusCancelled:
		return true
	}
	return false
}

// PrintOrder is a customer's request to have their own PDF printed. The PDF
// itself lives in file storage under FileID.
type PrintOrder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Surname     string             `bson:"surname" json:"surname"`
	Phone       string             `bson:"phone" json:"phone"`
	Address     string             `bson:"address" json:"address"`
	Email       string             `bson:"email" json:"email"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	FileID      primitive.ObjectID `bson:"file_id" json:"-"`
	FileName    string             `bson:"file_name" json:"bookFile"`
	FileSize    int64              `bson:"file_size" json:"fileSize"`
	Status      string             `bson:"status" json:"status"`
	Created     time.Time          `bson:"created" json:"created"`
	Updated     *time.Time         `bson:"updated,omitempty" json:"updated,omitempty"`
}
