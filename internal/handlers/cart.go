package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/config"
	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/store"
)

type AddCartItemRequest struct {
	ProductID string   `json:"productId" binding:"required"`
	Quantity  *int     `json:"quantity" binding:"omitempty,gte=1"`
	Price     *float64 `json:"price" binding:"required,gte=0"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type ApplyCouponRequest struct {
	Code     string   `json:"code" binding:"required"`
	Discount *float64 `json:"discount" binding:"required,gte=0"`
}

func cartResponse(cart *models.Cart, items []store.ResolvedCartItem) gin.H {
	return gin.H{
		"id":           cart.ID.Hex(),
		"items":        items,
		"subtotal":     cart.Subtotal,
		"tax":          cart.Tax,
		"shipping":     cart.Shipping,
		"discount":     cart.Discount,
		"total":        cart.Total,
		"totalItems":   cart.TotalItems,
		"couponCode":   cart.CouponCode,
		"lastModified": cart.LastModified,
	}
}

func requireIdentity(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

// GetCart lazily creates the cart on first access, then resolves item
// product references; inactive products drop out of the resolved view.
func GetCart(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.GetOrCreate(ctx, user.ID)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		items, err := carts.ResolveProducts(ctx, cart)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart, items))
	}
}

func GetCartSummary(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "GET /api/cart/summary"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.GetOrCreate(ctx, user.ID)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, cart.Summary())
	}
}

func AddCartItem(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "POST /api/cart/items"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id", "field": "productId"})
			return
		}

		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.AddItem(ctx, user.ID, productID, quantity, *req.Price)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		log.Printf("[%s] cart now holds %d items", route, cart.TotalItems)
		items, err := carts.ResolveProducts(ctx, cart)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart, items))
	}
}

// UpdateCartItem sets an item's quantity; zero or less removes the item.
// Updating an item that is not in the cart is a 404.
func UpdateCartItem(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "PUT /api/cart/items/:productId"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id", "field": "productId"})
			return
		}

		var req UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.UpdateItemQuantity(ctx, user.ID, productID, *req.Quantity)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "item not found in cart")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		items, err := carts.ResolveProducts(ctx, cart)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart, items))
	}
}

func RemoveCartItem(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "DELETE /api/cart/items/:productId"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id", "field": "productId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.RemoveItem(ctx, user.ID, productID)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		items, err := carts.ResolveProducts(ctx, cart)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		c.JSON(http.StatusOK, cartResponse(cart, items))
	}
}

func ClearCart(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "DELETE /api/cart"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.Clear(ctx, user.ID)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart, []store.ResolvedCartItem{}))
	}
}

// ApplyCoupon stores the code and discount as supplied; validating coupon
// legitimacy is the caller's responsibility.
func ApplyCoupon(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "POST /api/cart/coupon"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		var req ApplyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.ApplyCoupon(ctx, user.ID, req.Code, *req.Discount)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, cart.Summary())
	}
}

func RemoveCoupon(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	carts := store.NewCarts(db)

	return func(c *gin.Context) {
		const route = "DELETE /api/cart/coupon"
		defer handlePanic(c, route)

		user, ok := requireIdentity(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := carts.RemoveCoupon(ctx, user.ID)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, cart.Summary())
	}
}
