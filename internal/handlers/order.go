package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

const maxWebhookPayload = 1 << 20

type paymentIntentRequest struct {
	CustomerAddress addressPayload `json:"customerAddress" binding:"required"`
	PaymentMethod   string         `json:"paymentMethod"`
}

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// validateShippingAddress enforces completeness before anything touches the
// payment processor: street, city, state and zip must all be non-empty.
func validateShippingAddress(addr addressPayload) (models.ShippingAddress, error) {
	shipping := models.ShippingAddress{
		Street:  strings.TrimSpace(addr.Street),
		City:    strings.TrimSpace(addr.City),
		State:   strings.TrimSpace(addr.State),
		Zip:     strings.TrimSpace(addr.Zip),
		Country: strings.TrimSpace(addr.Country),
	}
	if shipping.Country == "" {
		shipping.Country = "IN"
	}

	if shipping.Street == "" || shipping.City == "" || shipping.State == "" || shipping.Zip == "" {
		return models.ShippingAddress{}, errors.New("street, city, state and zip are required")
	}

	return shipping, nil
}

// buildPendingOrder snapshots the priced cart into an order document. Line
// prices and totals are frozen here; later product edits never touch them.
func buildPendingOrder(userID primitive.ObjectID, priced []PricedLine, shipping models.ShippingAddress, paymentMethod string) (models.Order, error) {
	if len(priced) == 0 {
		return models.Order{}, errors.New("cart is empty")
	}

	items := make([]models.OrderItem, 0, len(priced))
	for _, line := range priced {
		if line.Line.Quantity < 1 {
			return models.Order{}, errors.New("quantity must be at least 1")
		}
		items = append(items, models.OrderItem{
			ProductID: line.Product.ID,
			Title:     line.Product.Title,
			Price:     line.Product.Price,
			Quantity:  line.Line.Quantity,
		})
	}

	if paymentMethod == "" {
		paymentMethod = "card"
	}

	totals := ComputeCartTotals(priced)
	return models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: shipping,
		PaymentMethod:   paymentMethod,
		Status:          models.OrderStatusPending,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		DeliveryFee:     totals.DeliveryFee,
		TotalAmount:     totals.Total,
		CreatedAt:       time.Now(),
	}, nil
}

/*
POST /api/orders/create-payment-intent

The amount is recomputed server-side from the stored cart, never trusted from
the client. The pending order is inserted in the same handler that creates the
intent, keyed by the intent ID, so a confirmed charge always has an order row
waiting for it.
*/
func CreatePaymentIntent(db *mongo.Database, stripeSecretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/create-payment-intent"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, KindUnavailable, route, "database unavailable")
			return
		}

		userID := c.MustGet("userId").(primitive.ObjectID)

		var req paymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		shipping, err := validateShippingAddress(req.CustomerAddress)
		if err != nil {
			respondWithError(c, KindValidation, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		priced, err := loadPricedCart(ctx, db, userID)
		if err != nil {
			log.Println("[ORDER] [ERROR] cart load failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		order, err := buildPendingOrder(userID, priced, shipping, req.PaymentMethod)
		if err != nil {
			respondWithError(c, KindValidation, route, err.Error())
			return
		}

		stripe.Key = stripeSecretKey
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(stripeAmount(order.TotalAmount)),
			Currency: stripe.String(string(stripe.CurrencyINR)),
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
			Metadata: map[string]string{
				"userId": userID.Hex(),
			},
		}

		intent, err := paymentintent.New(params)
		if err != nil {
			log.Println("[ORDER] [ERROR] payment intent creation failed:", err)
			respondWithError(c, KindServerError, route, "payment intent creation failed")
			return
		}

		order.PaymentIntentID = intent.ID
		res, err := db.Collection("orders").InsertOne(ctx, order)
		if err != nil {
			log.Println("[ORDER] [ERROR] pending order insert failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		orderID, _ := res.InsertedID.(primitive.ObjectID)
		log.Println("[ORDER] [INFO] payment intent created for order:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"clientSecret": intent.ClientSecret,
			"orderId":      orderID.Hex(),
			"amount":       order.TotalAmount,
		})
	}
}

/*
POST /api/orders/webhook

Stripe calls back here after the hosted payment form completes. The signature
is verified before anything else; payment_intent.succeeded moves the matching
pending order to paid and clears the buyer's cart.
*/
func StripeWebhook(db *mongo.Database, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/webhook"
		defer handlePanic(c, route)

		// oversized events must fail loudly, not truncate into a signature
		// mismatch that Stripe would retry forever
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookPayload))
		if err != nil {
			respondWithError(c, KindValidation, route, "invalid payload")
			return
		}

		event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), webhookSecret)
		if err != nil {
			log.Println("[ORDER] [ERROR] webhook signature verification failed:", err)
			respondWithError(c, KindUnauthorized, route, "invalid signature")
			return
		}

		if event.Type != "payment_intent.succeeded" {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Println("[ORDER] [ERROR] webhook payload decode failed:", err)
			respondWithError(c, KindValidation, route, "invalid event payload")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"paymentIntentId": intent.ID, "status": models.OrderStatusPending},
			bson.M{"$set": bson.M{"status": models.OrderStatusPaid}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&order)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				// already processed or unknown intent; ack so Stripe stops retrying
				log.Println("[ORDER] [INFO] webhook for unknown or settled intent:", intent.ID)
				c.JSON(http.StatusOK, gin.H{"received": true})
				return
			}
			log.Println("[ORDER] [ERROR] order update failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		if err := clearCart(ctx, db, order.UserID); err != nil {
			// the order is already paid; cart cleanup failing is not fatal
			log.Println("[ORDER] [ERROR] cart clear failed:", err)
		}

		log.Println("[ORDER] [INFO] order paid:", order.ID.Hex())
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// GetUserOrders lists the authenticated user's orders, newest first.
func GetUserOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/orders"

		userID := c.MustGet("userId").(primitive.ObjectID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := db.Collection("orders").Find(ctx, bson.M{"userId": userID}, findOptions)
		if err != nil {
			log.Println("[ORDER] [ERROR] order fetch failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			log.Println("[ORDER] [ERROR] order decode failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
	}
}
