package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
)

func main() {
	cfg := config.Load()

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)
	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	authRequired := middleware.Authenticate(db, cfg.JWTSecret)
	adminRequired := middleware.RequireAdmin()

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register(db, cfg))
		auth.POST("/login", handlers.Login(db, cfg))
		auth.POST("/google-register", handlers.GoogleRegister(db, cfg))
		auth.POST("/google-login", handlers.GoogleLogin(db, cfg))
		auth.POST("/refresh", authRequired, handlers.Refresh(cfg))
		auth.GET("/me", authRequired, handlers.Me())
		auth.GET("/verify-admin", authRequired, adminRequired, handlers.VerifyAdmin())
		auth.GET("/test", handlers.AuthTest())
	}

	products := api.Group("/products")
	{
		products.GET("", handlers.GetProducts(db, cfg))
		products.GET("/featured", handlers.GetFeaturedProducts(db, cfg))
		products.GET("/:id", handlers.GetProduct(db, cfg))
		products.POST("/:id/reviews", authRequired, handlers.AddProductReview(db, cfg))

		products.POST("", authRequired, adminRequired, handlers.CreateProduct(db, cfg))
		products.PUT("/:id", authRequired, adminRequired, handlers.UpdateProduct(db, cfg))
		products.DELETE("/:id", authRequired, adminRequired, handlers.DeleteProduct(db, cfg))
	}

	cart := api.Group("/cart")
	cart.Use(authRequired)
	{
		cart.GET("", handlers.GetCart(db, cfg))
		cart.GET("/summary", handlers.GetCartSummary(db, cfg))
		cart.POST("/items", handlers.AddCartItem(db, cfg))
		cart.PUT("/items/:productId", handlers.UpdateCartItem(db, cfg))
		cart.DELETE("/items/:productId", handlers.RemoveCartItem(db, cfg))
		cart.DELETE("", handlers.ClearCart(db, cfg))
		cart.POST("/coupon", handlers.ApplyCoupon(db, cfg))
		cart.DELETE("/coupon", handlers.RemoveCoupon(db, cfg))
	}

	dashboard := api.Group("/dashboard")
	dashboard.Use(authRequired, adminRequired)
	{
		dashboard.GET("/stats", handlers.GetDashboardStats(db, cfg))
		dashboard.GET("/recent-users", handlers.GetRecentUsers(db, cfg))
		dashboard.GET("/recent-activity", handlers.GetRecentActivity(db, cfg))
		dashboard.GET("/user-analytics", handlers.GetUserAnalytics(db, cfg))
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
