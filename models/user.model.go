package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a back-office account
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"`
	Role     string             `bson:"role" json:"role"` // "admin" or "staff"
}
