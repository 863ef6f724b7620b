package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact persists a contact-form message.
func SubmitContact(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/contact"

		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		message := models.ContactMessage{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Message:   strings.TrimSpace(req.Message),
			CreatedAt: time.Now(),
		}

		if _, err := db.Collection("contacts").InsertOne(ctx, message); err != nil {
			log.Println("[CONTACT] [ERROR] insert failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		log.Println("[CONTACT] [INFO] message received from:", message.Email)
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "message received"})
	}
}
