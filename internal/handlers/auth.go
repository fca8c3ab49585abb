package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/config"
	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/store"
)

const passwordHashCost = 12

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	// bcrypt rejects inputs longer than 72 bytes, so bound it here instead
	// of surfacing a hashing error.
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleAuthRequest struct {
	GoogleID string `json:"googleId" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

func issueToken(userID primitive.ObjectID, email, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"email":  email,
		"exp":    time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Register(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	users := store.NewUsers(db)

	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := store.NormalizeEmail(req.Email)
		name := strings.TrimSpace(req.Name)
		if name == "" {
			// Fall back to the local part of the email.
			name = strings.SplitN(email, "@", 2)[0]
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user := models.User{
			Name:     name,
			Email:    email,
			Password: string(hash),
			Role:     models.RoleUser,
			IsActive: true,
		}

		if err := users.Insert(ctx, &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				log.Println("[AUTH] [ERROR] register email exists:", email)
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "field": "email"})
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		token, err := issueToken(user.ID, user.Email, cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		log.Println("[AUTH] [INFO] user registered:", email)
		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  user.PublicProfile(),
		})
	}
}

func Login(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	users := store.NewUsers(db)

	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.FindByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Same generic message as a wrong password so the response
				// does not leak which field was wrong; the field identifier
				// stays distinguishable for clients that need it.
				log.Println("[AUTH] [ERROR] login unknown email")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "field": "email"})
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		if !user.IsActive {
			log.Println("[AUTH] [ERROR] login inactive account:", user.Email)
			c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login wrong password for:", user.Email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "field": "password"})
			return
		}

		if err := users.TouchLastLogin(ctx, user.ID); err != nil {
			log.Println("[AUTH] [WARN] last-login update failed:", err)
		}

		token, err := issueToken(user.ID, user.Email, cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", user.Email)
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user.PublicProfile(),
		})
	}
}

// GoogleRegister and GoogleLogin are distinct endpoints for the two client
// flows, but both find-or-create by email.
func GoogleRegister(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return googleAuth(db, cfg, "POST /api/auth/google-register")
}

func GoogleLogin(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return googleAuth(db, cfg, "POST /api/auth/google-login")
}

func googleAuth(db *mongo.Database, cfg config.Config, route string) gin.HandlerFunc {
	users := store.NewUsers(db)

	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req GoogleAuthRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.FindByEmail(ctx, req.Email)
		switch {
		case err == nil:
			if !user.IsActive {
				log.Println("[AUTH] [ERROR] google auth inactive account:", user.Email)
				c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
				return
			}
			if user.GoogleID == "" {
				if err := users.LinkGoogle(ctx, user.ID, req.GoogleID, req.Picture); err != nil {
					respondServerError(c, route, err, cfg.IsProduction())
					return
				}
				user.GoogleID = req.GoogleID
				if req.Picture != "" {
					user.Picture = req.Picture
				}
			}
			if err := users.TouchLastLogin(ctx, user.ID); err != nil {
				log.Println("[AUTH] [WARN] last-login update failed:", err)
			}
			respondWithToken(c, cfg, user, http.StatusOK, route)

		case errors.Is(err, store.ErrNotFound):
			name := strings.TrimSpace(req.Name)
			if name == "" {
				name = strings.SplitN(store.NormalizeEmail(req.Email), "@", 2)[0]
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(generatedPassword(req.GoogleID)), passwordHashCost)
			if err != nil {
				respondServerError(c, route, err, cfg.IsProduction())
				return
			}

			created := models.User{
				Name:     name,
				Email:    req.Email,
				Password: string(hash),
				Role:     models.RoleUser,
				GoogleID: req.GoogleID,
				Picture:  req.Picture,
				IsActive: true,
			}
			if err := users.Insert(ctx, &created); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "field": "email"})
					return
				}
				respondServerError(c, route, err, cfg.IsProduction())
				return
			}

			log.Println("[AUTH] [INFO] google account created:", created.Email)
			respondWithToken(c, cfg, &created, http.StatusCreated, route)

		default:
			respondServerError(c, route, err, cfg.IsProduction())
		}
	}
}

// generatedPassword seeds an unusable local password for accounts created
// through the external-identity flow. The account can only log in via that
// identity until a password reset.
func generatedPassword(googleID string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	seed := fmt.Sprintf("%s:%d:%s", googleID, time.Now().UnixNano(), hex.EncodeToString(buf))
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

func respondWithToken(c *gin.Context, cfg config.Config, user *models.User, status int, route string) {
	token, err := issueToken(user.ID, user.Email, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		respondServerError(c, route, err, cfg.IsProduction())
		return
	}
	c.JSON(status, gin.H{
		"token": token,
		"user":  user.PublicProfile(),
	})
}

// Refresh re-issues a token with the same claim derivation. The old token
// stays valid until natural expiry; there is no revocation list.
func Refresh(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/refresh"

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		respondWithToken(c, cfg, user, http.StatusOK, route)
	}
}

func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.PublicProfile()})
	}
}

func VerifyAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "admin access verified",
			"user":    user.PublicProfile(),
		})
	}
}

func AuthTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "auth service is up"})
	}
}
