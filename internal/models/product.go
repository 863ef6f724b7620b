package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Images      []string           `bson:"images" json:"images"`
	Category    string             `bson:"category" json:"category"`
	Subcategory string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Rating      float64            `bson:"rating" json:"rating"`
	SellerID    primitive.ObjectID `bson:"sellerId,omitempty" json:"sellerId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
