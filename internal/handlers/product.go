package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

/*
GET /api/products
Filters are all optional and combine:
  - category, subcategory: exact match
  - minPrice, maxPrice: inclusive band
  - rating: products whose rounded rating equals the value
  - search: case-insensitive substring on title
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, KindUnavailable, route, "database unavailable")
			return
		}

		filter := bson.M{}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}
		if subcategory := strings.TrimSpace(c.Query("subcategory")); subcategory != "" {
			filter["subcategory"] = subcategory
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["title"] = bson.M{"$regex": search, "$options": "i"}
		}

		priceBand := bson.M{}
		if minStr := strings.TrimSpace(c.Query("minPrice")); minStr != "" {
			min, err := strconv.ParseFloat(minStr, 64)
			if err != nil {
				respondWithError(c, KindValidation, route, "invalid minPrice")
				return
			}
			priceBand["$gte"] = min
		}
		if maxStr := strings.TrimSpace(c.Query("maxPrice")); maxStr != "" {
			max, err := strconv.ParseFloat(maxStr, 64)
			if err != nil {
				respondWithError(c, KindValidation, route, "invalid maxPrice")
				return
			}
			priceBand["$lte"] = max
		}
		if len(priceBand) > 0 {
			filter["price"] = priceBand
		}

		if ratingStr := strings.TrimSpace(c.Query("rating")); ratingStr != "" {
			rating, err := strconv.Atoi(ratingStr)
			if err != nil || rating < 1 || rating > 5 {
				respondWithError(c, KindValidation, route, "invalid rating")
				return
			}
			// matches ratings that round to the requested star value
			filter["rating"] = bson.M{
				"$gte": float64(rating) - 0.5,
				"$lt":  float64(rating) + 0.5,
			}
		}

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, KindServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, KindServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondWithError(c, KindValidation, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, KindNotFound, route, "product not found")
				return
			}
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}
