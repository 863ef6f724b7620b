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
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type cartAddRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type cartUpdateRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type cartRemoveRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type cartLineResponse struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// GetCart returns the user's cart lines joined with their products, plus the
// server-computed price breakdown.
func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/cart"
		defer handlePanic(c, route)

		userID := c.MustGet("userId").(primitive.ObjectID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		priced, err := loadPricedCart(ctx, db, userID)
		if err != nil {
			log.Println("[CART] [ERROR] load cart failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		cart := make([]cartLineResponse, 0, len(priced))
		for _, line := range priced {
			cart = append(cart, cartLineResponse{Product: line.Product, Quantity: line.Line.Quantity})
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"cart":    cart,
			"totals":  ComputeCartTotals(priced),
		})
	}
}

// AddToCart upserts the (user, product) line. Re-adding a product replaces the
// stored quantity, it never accumulates.
func AddToCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/cart/add"

		userID := c.MustGet("userId").(primitive.ObjectID)

		var req cartAddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 1 {
			respondWithError(c, KindValidation, route, "quantity must be at least 1")
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
			log.Println("[CART] [ERROR] product lookup failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		filter := bson.M{"userId": userID, "productId": productID}
		update := bson.M{
			"$set": bson.M{
				"quantity":  quantity,
				"updatedAt": time.Now(),
			},
			"$setOnInsert": bson.M{
				"userId":    userID,
				"productId": productID,
			},
		}

		_, err = db.Collection("carts").UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			log.Println("[CART] [ERROR] add to cart failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		log.Println("[CART] [INFO] line upserted for user:", userID.Hex())
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "added to cart"})
	}
}

// UpdateCartQuantity replaces the stored quantity for an existing line. The
// client coalesces rapid edits; whatever arrives here is authoritative.
func UpdateCartQuantity(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/cart/update"

		userID := c.MustGet("userId").(primitive.ObjectID)

		var req cartUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.Quantity < 1 {
			respondWithError(c, KindValidation, route, "quantity must be at least 1")
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, KindValidation, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("carts").UpdateOne(ctx,
			bson.M{"userId": userID, "productId": productID},
			bson.M{"$set": bson.M{"quantity": req.Quantity, "updatedAt": time.Now()}},
		)
		if err != nil {
			log.Println("[CART] [ERROR] quantity update failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, KindNotFound, route, "cart line not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "quantity updated"})
	}
}

// RemoveFromCart deletes the line outright. Removal is immediate and
// authoritative; there is no coalescing on this path.
func RemoveFromCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/cart/remove"

		userID := c.MustGet("userId").(primitive.ObjectID)

		var req cartRemoveRequest
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

		res, err := db.Collection("carts").DeleteOne(ctx, bson.M{"userId": userID, "productId": productID})
		if err != nil {
			log.Println("[CART] [ERROR] remove failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, KindNotFound, route, "cart line not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "removed from cart"})
	}
}

// loadPricedCart fetches the user's lines and joins them with their products.
// Lines whose product has disappeared are skipped rather than failing the cart.
func loadPricedCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]PricedLine, error) {
	cursor, err := db.Collection("carts").Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lines []models.CartLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []PricedLine{}, nil
	}

	productIDs := make([]primitive.ObjectID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}

	productCursor, err := db.Collection("products").Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, err
	}
	defer productCursor.Close(ctx)

	var products []models.Product
	if err := productCursor.All(ctx, &products); err != nil {
		return nil, err
	}

	productByID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, product := range products {
		productByID[product.ID] = product
	}

	priced := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		product, exists := productByID[line.ProductID]
		if !exists {
			continue
		}
		priced = append(priced, PricedLine{Line: line, Product: product})
	}

	return priced, nil
}

// clearCart drops every line for the user, used after a confirmed payment.
func clearCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) error {
	_, err := db.Collection("carts").DeleteMany(ctx, bson.M{"userId": userID})
	return err
}
