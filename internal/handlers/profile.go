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

func GetProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := c.Get("userId")
		if !ok {
			log.Println("[PROFILE] [ERROR] userId missing in context")
			respondWithError(c, KindUnauthorized, "GET /api/users/profile", "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[PROFILE] [ERROR] get profile failed:", err)
			respondWithError(c, KindNotFound, "GET /api/users/profile", "user not found")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

type multipartProfileInput struct {
	Name         string
	NameSet      bool
	Phone        string
	PhoneSet     bool
	Address      string
	AddressSet   bool
	StoreName    string
	StoreNameSet bool
	StoreDesc    string
	StoreDescSet bool
	PicturePath  string
	PictureSet   bool
}

func parseMultipartProfileRequest(c *gin.Context, uploadDir string) (multipartProfileInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return multipartProfileInput{}, err
	}

	input := multipartProfileInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := c.GetPostForm("phone"); ok {
		input.Phone = strings.TrimSpace(value)
		input.PhoneSet = true
	}
	if value, ok := c.GetPostForm("address"); ok {
		input.Address = strings.TrimSpace(value)
		input.AddressSet = true
	}
	if value, ok := c.GetPostForm("storeName"); ok {
		input.StoreName = strings.TrimSpace(value)
		input.StoreNameSet = true
	}
	if value, ok := c.GetPostForm("storeDescription"); ok {
		input.StoreDesc = strings.TrimSpace(value)
		input.StoreDescSet = true
	}

	file, err := c.FormFile("profilePicture")
	if err == nil {
		picturePath, err := saveImage(file, uploadDir, "profiles")
		if err != nil {
			return multipartProfileInput{}, err
		}
		input.PicturePath = picturePath
		input.PictureSet = true
	} else if err != http.ErrMissingFile && !strings.Contains(err.Error(), "no such file") {
		return multipartProfileInput{}, err
	}

	return input, nil
}

// EditProfile updates the authenticated user's profile from a multipart form.
// Only submitted fields are touched; a new picture replaces the old file.
func EditProfile(db *mongo.Database, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/editprofile"
		defer handlePanic(c, route)

		userIDValue, ok := c.Get("userId")
		if !ok {
			respondWithError(c, KindUnauthorized, route, "unauthorized")
			return
		}
		userID := userIDValue.(primitive.ObjectID)

		input, err := parseMultipartProfileRequest(c, uploadDir)
		if err != nil {
			log.Println("[PROFILE] [ERROR] multipart parse failed:", err)
			respondWithError(c, KindValidation, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Println("[PROFILE] [ERROR] user not found:", err)
			respondWithError(c, KindNotFound, route, "user not found")
			return
		}

		set := bson.M{"updatedAt": time.Now()}
		if input.NameSet {
			if input.Name == "" {
				respondWithError(c, KindValidation, route, "name cannot be empty")
				return
			}
			set["name"] = input.Name
		}
		if input.PhoneSet {
			set["phone"] = input.Phone
		}
		if input.AddressSet {
			set["address"] = input.Address
		}
		if input.StoreNameSet || input.StoreDescSet {
			if user.Role != models.RoleSeller && user.Role != models.RoleAdmin {
				respondWithError(c, KindForbidden, route, "store fields require a seller account")
				return
			}
			if input.StoreNameSet {
				set["storeName"] = input.StoreName
			}
			if input.StoreDescSet {
				set["storeDescription"] = input.StoreDesc
			}
		}
		if input.PictureSet {
			set["profilePicture"] = input.PicturePath
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": set}); err != nil {
			log.Println("[PROFILE] [ERROR] update failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		if input.PictureSet && user.ProfilePicture != "" {
			if err := safeDeleteUpload(uploadDir, user.ProfilePicture); err != nil {
				log.Println("[PROFILE] [ERROR] old picture cleanup failed:", err)
			}
		}

		var updated models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&updated); err != nil {
			log.Println("[PROFILE] [ERROR] reload failed:", err)
			respondWithError(c, KindServerError, route, "db error")
			return
		}

		log.Println("[PROFILE] [INFO] profile updated:", updated.Email)
		c.JSON(http.StatusOK, updated)
	}
}
