package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/config"
	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/store"
)

type CreateProductRequest struct {
	Name              string                `json:"name" binding:"required"`
	Description       string                `json:"description"`
	Price             *float64              `json:"price" binding:"required,gte=0"`
	ComparePrice      float64               `json:"comparePrice" binding:"gte=0"`
	Category          string                `json:"category"`
	Subcategory       string                `json:"subcategory"`
	Brand             string                `json:"brand"`
	SKU               string                `json:"sku"`
	Images            []models.ProductImage `json:"images"`
	Image             string                `json:"image"`
	Stock             int                   `json:"stock" binding:"gte=0"`
	LowStockThreshold int                   `json:"lowStockThreshold" binding:"gte=0"`
	Tags              []string              `json:"tags"`
	Specifications    map[string]string     `json:"specifications"`
	Dimensions        models.Dimensions     `json:"dimensions"`
	IsFeatured        bool                  `json:"isFeatured"`
	MetaTitle         string                `json:"metaTitle"`
	MetaDescription   string                `json:"metaDescription"`
}

type UpdateProductRequest struct {
	Name              *string                `json:"name"`
	Description       *string                `json:"description"`
	Price             *float64               `json:"price" binding:"omitempty,gte=0"`
	ComparePrice      *float64               `json:"comparePrice" binding:"omitempty,gte=0"`
	Category          *string                `json:"category"`
	Subcategory       *string                `json:"subcategory"`
	Brand             *string                `json:"brand"`
	SKU               *string                `json:"sku"`
	Images            *[]models.ProductImage `json:"images"`
	Image             *string                `json:"image"`
	Stock             *int                   `json:"stock" binding:"omitempty,gte=0"`
	LowStockThreshold *int                   `json:"lowStockThreshold" binding:"omitempty,gte=0"`
	Tags              *[]string              `json:"tags"`
	Specifications    *map[string]string     `json:"specifications"`
	Dimensions        *models.Dimensions     `json:"dimensions"`
	IsActive          *bool                  `json:"isActive"`
	IsFeatured        *bool                  `json:"isFeatured"`
	MetaTitle         *string                `json:"metaTitle"`
	MetaDescription   *string                `json:"metaDescription"`
}

type AddReviewRequest struct {
	Rating  *int   `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"max=500"`
}

func parseSearchFilters(c *gin.Context) (string, store.SearchFilters, error) {
	filters := store.SearchFilters{
		Category:    strings.TrimSpace(c.Query("category")),
		Subcategory: strings.TrimSpace(c.Query("subcategory")),
		SortBy:      strings.TrimSpace(c.Query("sortBy")),
	}

	if raw := strings.TrimSpace(c.Query("minPrice")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", filters, errors.New("invalid minPrice")
		}
		filters.MinPrice = &value
	}
	if raw := strings.TrimSpace(c.Query("maxPrice")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", filters, errors.New("invalid maxPrice")
		}
		filters.MaxPrice = &value
	}
	if raw := strings.TrimSpace(c.Query("inStock")); raw != "" {
		filters.InStock = raw == "true" || raw == "1"
	}

	return strings.TrimSpace(c.Query("search")), filters, nil
}

/*
GET /api/products
- search + filters + optional pagination
- pagination applies only when page + limit are both present
*/
func GetProducts(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		query, filters, err := parseSearchFilters(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := products.Search(ctx, query, filters)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		defer cursor.Close(ctx)

		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		paged := pageStr != "" && limitStr != ""

		var page, limit int64
		if paged {
			page, limit, err = parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
		}

		// The search cursor stays lazy until this loop drains it; paging
		// skips by walking rather than re-querying so the relevance sort
		// stays intact.
		results := make([]models.PublicProduct, 0)
		var seen int64
		for cursor.Next(ctx) {
			seen++
			if paged && seen <= (page-1)*limit {
				continue
			}
			if paged && int64(len(results)) >= limit {
				break
			}

			var product models.Product
			if err := cursor.Decode(&product); err != nil {
				respondServerError(c, route, err, cfg.IsProduction())
				return
			}
			results = append(results, product.PublicData())
		}
		if err := cursor.Err(); err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		log.Printf("[%s] returning %d products", route, len(results))
		if paged {
			c.JSON(http.StatusOK, gin.H{
				"data": results,
				"pagination": gin.H{
					"page":  page,
					"limit": limit,
				},
			})
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func GetFeaturedProducts(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "GET /api/products/featured"
		defer handlePanic(c, route)

		limit := int64(store.DefaultFeaturedLimit)
		if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 1 {
				respondWithError(c, http.StatusBadRequest, route, "invalid limit")
				return
			}
			limit = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		featured, err := products.Featured(ctx, limit)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		results := make([]models.PublicProduct, 0, len(featured))
		for i := range featured {
			results = append(results, featured[i].PublicData())
		}
		c.JSON(http.StatusOK, results)
	}
}

func GetProduct(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := products.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		if !product.IsActive {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.JSON(http.StatusOK, product.PublicData())
	}
}

// AddProductReview replaces any prior review by the same user; the persist
// recomputes rating and review count.
func AddProductReview(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "POST /api/products/:id/reviews"
		defer handlePanic(c, route)

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req AddReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := products.AddReview(ctx, id, user.ID, *req.Rating, strings.TrimSpace(req.Comment))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		log.Printf("[%s] review recorded, product rating now %.1f", route, product.Rating)
		c.JSON(http.StatusCreated, product.PublicData())
	}
}

func CreateProduct(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		product := models.Product{
			Name:              strings.TrimSpace(req.Name),
			Description:       req.Description,
			Price:             *req.Price,
			ComparePrice:      req.ComparePrice,
			Category:          req.Category,
			Subcategory:       req.Subcategory,
			Brand:             req.Brand,
			SKU:               strings.TrimSpace(req.SKU),
			Images:            req.Images,
			Image:             req.Image,
			Stock:             req.Stock,
			LowStockThreshold: req.LowStockThreshold,
			Tags:              req.Tags,
			Specifications:    req.Specifications,
			Dimensions:        req.Dimensions,
			IsActive:          true,
			IsFeatured:        req.IsFeatured,
			MetaTitle:         req.MetaTitle,
			MetaDescription:   req.MetaDescription,
			CreatedBy:         user.ID,
			UpdatedBy:         user.ID,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := products.Insert(ctx, &product); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, http.StatusConflict, route, "sku already in use")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		log.Printf("[%s] product created: %s", route, product.Name)
		c.JSON(http.StatusCreated, product.PublicData())
	}
}

func UpdateProduct(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := products.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		applyProductUpdate(product, req)
		product.UpdatedBy = user.ID

		if err := products.Save(ctx, product); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				respondWithError(c, http.StatusConflict, route, "sku already in use")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, product.PublicData())
	}
}

func applyProductUpdate(product *models.Product, req UpdateProductRequest) {
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.ComparePrice != nil {
		product.ComparePrice = *req.ComparePrice
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Subcategory != nil {
		product.Subcategory = *req.Subcategory
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.SKU != nil {
		product.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Images != nil {
		product.Images = *req.Images
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.Tags != nil {
		product.Tags = *req.Tags
	}
	if req.Specifications != nil {
		product.Specifications = *req.Specifications
	}
	if req.Dimensions != nil {
		product.Dimensions = *req.Dimensions
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.MetaTitle != nil {
		product.MetaTitle = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		product.MetaDescription = *req.MetaDescription
	}
}

// DeleteProduct deactivates rather than removes so existing cart rows keep a
// resolvable reference.
func DeleteProduct(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := products.Deactivate(ctx, id, user.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deactivated"})
	}
}
