package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/metrics"
	"backend/internal/middleware"
	"backend/internal/models"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("⚠️ user index warning:", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Println("⚠️ product index warning:", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Println("⚠️ cart index warning:", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Println("⚠️ order index warning:", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AppEnv.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(metrics.Middleware())

	r.Static("/uploads", config.AppEnv.UploadDir)
	r.GET("/metrics", metrics.Handler())

	r.POST("/api/users/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/api/users/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	r.GET("/api/products", handlers.GetProducts(db))
	r.GET("/api/products/:id", handlers.GetProduct(db))
	r.POST("/api/contact", handlers.SubmitContact(db))

	r.POST("/api/orders/webhook", handlers.StripeWebhook(db, config.AppEnv.StripeWebhookSecret))

	user := r.Group("/api/users")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/profile", handlers.GetProfile(db))
		user.PUT("/editprofile", handlers.EditProfile(db, config.AppEnv.UploadDir))

		user.GET("/cart", handlers.GetCart(db))
		user.POST("/cart/add", handlers.AddToCart(db))
		user.POST("/cart/update", handlers.UpdateCartQuantity(db))
		user.DELETE("/cart/remove", handlers.RemoveFromCart(db))

		user.GET("/wishlist", handlers.GetWishlist(db))
		user.POST("/wishlist/add", handlers.AddToWishlist(db))
		user.POST("/wishlist/remove", handlers.RemoveFromWishlist(db))

		user.GET("/orders", handlers.GetUserOrders(db))
	}

	r.POST(
		"/api/orders/create-payment-intent",
		middleware.UserAuth(config.AppEnv.JWTSecret),
		handlers.CreatePaymentIntent(db, config.AppEnv.StripeSecretKey),
	)

	seller := r.Group("/api/seller")
	seller.Use(middleware.RequireRole(config.AppEnv.JWTSecret, models.RoleSeller, models.RoleAdmin))
	{
		seller.GET("/report", handlers.SellerReport(db))
		seller.GET("/report/export", handlers.ExportSellerReport(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
