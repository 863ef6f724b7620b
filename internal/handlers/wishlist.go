package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type wishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// wishlistAddUpdate builds the add mutation. $addToSet never creates a
// duplicate entry, so re-adding a present product leaves the set unchanged.
func wishlistAddUpdate(productID primitive.ObjectID) bson.M {
	return bson.M{
		"$addToSet": bson.M{"wishlist": productID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
}

// wishlistRemoveUpdate builds the remove mutation. $pull of an absent product
// is a no-op, so removal is safely retriable.
func wishlistRemoveUpdate(productID primitive.ObjectID) bson.M {
	return bson.M{
		"$pull": bson.M{"wishlist": productID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
}

// GetWishlist returns the wishlisted products in the order they were added.
func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/wishlist"

		userID := c.MustGet("userId").(primitive.ObjectID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[WISHLIST] [ERROR] user lookup failed:", err)
			respondWithError(c, KindNotFound, route, "user not found")
			return
		}

		if len(user.Wishlist) == 0 {
			c.JSON(http.StatusOK, gin.H{"success": true, "wishlist": []models.Product{}})
			return
		}

		cursor, err := db.Collection("products").Find(ctx, bson.M{"_id": bson.M{"$in": user.Wishlist}})
		if err != nil {
			log.Println("[WISHLIST] [ERROR] product fetch failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var products []models.Product
		if err := cursor.All(ctx, &products); err != nil {
			log.Println("[WISHLIST] [ERROR] decode failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		productByID := make(map[primitive.ObjectID]models.Product, len(products))
		for _, product := range products {
			productByID[product.ID] = product
		}

		ordered := make([]models.Product, 0, len(products))
		for _, wishlistID := range user.Wishlist {
			if product, exists := productByID[wishlistID]; exists {
				ordered = append(ordered, product)
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "wishlist": ordered})
	}
}

// AddToWishlist is idempotent: $addToSet never creates a duplicate entry, so
// re-adding a present product leaves the set size unchanged.
func AddToWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/wishlist/add"

		userID := c.MustGet("userId").(primitive.ObjectID)

		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, KindValidation, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, KindValidation, route, "invalid productId")
				return
			}
			log.Println("[WISHLIST] [ERROR] product lookup failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		_, err = db.Collection("users").UpdateByID(ctx, userID, wishlistAddUpdate(productID))
		if err != nil {
			log.Println("[WISHLIST] [ERROR] add failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "added to wishlist"})
	}
}

// RemoveFromWishlist is safely retriable: $pull of an absent product is a
// no-op and still reports success.
func RemoveFromWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/wishlist/remove"

		userID := c.MustGet("userId").(primitive.ObjectID)

		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, KindValidation, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		_, err = db.Collection("users").UpdateByID(ctx, userID, wishlistRemoveUpdate(productID))
		if err != nil {
			log.Println("[WISHLIST] [ERROR] remove failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "removed from wishlist"})
	}
}
