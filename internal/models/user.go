package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles. Admin accounts are seeded out of band and can never be
// self-assigned at registration.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User represents any account: shopper, seller or admin. Seller accounts carry
// the additional store fields. Users are never hard-deleted.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Email          string               `bson:"email" json:"email"`
	PasswordHash   string               `bson:"passwordHash" json:"-"`
	Role           string               `bson:"role" json:"role"`
	Phone          string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Address        string               `bson:"address,omitempty" json:"address,omitempty"`
	ProfilePicture string               `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	StoreName      string               `bson:"storeName,omitempty" json:"storeName,omitempty"`
	StoreDesc      string               `bson:"storeDescription,omitempty" json:"storeDescription,omitempty"`
	Wishlist       []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}
