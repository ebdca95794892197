package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is a catalog entry
type Book struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty" yaml:"-"`
	Name        string             `bson:"name" json:"name" yaml:"name"`
	Author      string             `bson:"author" json:"author" yaml:"author"`
	Description string             `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	Genre       string             `bson:"genre,omitempty" json:"genre,omitempty" yaml:"genre"`
	Price       Money              `bson:"price" json:"price" yaml:"-"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty" yaml:"image_url"`
	Featured    bool               `bson:"featured" json:"featured" yaml:"featured"`
	Created     time.Time          `bson:"created" json:"created" yaml:"-"`
}
