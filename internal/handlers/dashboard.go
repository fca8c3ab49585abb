package handlers

import (
	"context"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/store"
)

// The order and revenue figures below are synthetic placeholders derived
// from entity counts: there is no order collection to aggregate yet. The
// formulas are kept fixed so the dashboard API surface stays compatible.
// TODO: replace with real aggregates once orders are modeled.
func placeholderOrderCount(userCount int64) int64 {
	return userCount * 3
}

func placeholderRevenue(productCount int64) float64 {
	return float64(productCount) * 249.99
}

// growthPercent compares the trailing window against the rest of the
// population; with no historical snapshots this is the closest available
// stand-in for a real growth series.
func growthPercent(recent, total int64) float64 {
	if total <= recent {
		return 100
	}
	return math.Round(float64(recent)/float64(total-recent)*1000) / 10
}

func GetDashboardStats(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	users := store.NewUsers(db)
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "GET /api/dashboard/stats"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		totalUsers, err := users.Count(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		activeUsers, err := users.CountActive(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		newUsers7d, err := users.CountCreatedSince(ctx, time.Now().AddDate(0, 0, -7))
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		newUsers30d, err := users.CountCreatedSince(ctx, time.Now().AddDate(0, 0, -30))
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		totalProducts, err := products.Count(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		activeProducts, err := products.CountActive(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"totalUsers":     totalUsers,
			"activeUsers":    activeUsers,
			"newUsers7d":     newUsers7d,
			"newUsers30d":    newUsers30d,
			"totalProducts":  totalProducts,
			"activeProducts": activeProducts,
			"totalOrders":    placeholderOrderCount(totalUsers),
			"totalRevenue":   placeholderRevenue(totalProducts),
			"userGrowth":     growthPercent(newUsers30d, totalUsers),
		})
	}
}

func GetRecentUsers(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	users := store.NewUsers(db)

	return func(c *gin.Context) {
		const route = "GET /api/dashboard/recent-users"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		recent, err := users.Recent(ctx, 10)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		profiles := make([]models.PublicProfile, 0, len(recent))
		for i := range recent {
			profiles = append(profiles, recent[i].PublicProfile())
		}
		c.JSON(http.StatusOK, gin.H{"users": profiles})
	}
}

type activityEvent struct {
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	At      time.Time `json:"at"`
}

// GetRecentActivity synthesizes an activity feed from the latest user and
// product records; there is no dedicated event log.
func GetRecentActivity(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	users := store.NewUsers(db)
	products := store.NewProducts(db)

	return func(c *gin.Context) {
		const route = "GET /api/dashboard/recent-activity"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		recentUsers, err := users.Recent(ctx, 5)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		recentProducts, err := products.Recent(ctx, 5)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		events := make([]activityEvent, 0, len(recentUsers)+len(recentProducts))
		for _, u := range recentUsers {
			events = append(events, activityEvent{
				Type:    "user_registered",
				Subject: u.Email,
				At:      u.CreatedAt,
			})
		}
		for _, p := range recentProducts {
			events = append(events, activityEvent{
				Type:    "product_added",
				Subject: p.Name,
				At:      p.CreatedAt,
			})
		}
		sort.Slice(events, func(i, j int) bool { return events[i].At.After(events[j].At) })

		c.JSON(http.StatusOK, gin.H{"activity": events})
	}
}

func GetUserAnalytics(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	users := store.NewUsers(db)

	return func(c *gin.Context) {
		const route = "GET /api/dashboard/user-analytics"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		histogram, err := users.RegistrationsPerDay(ctx, 7)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		roles, err := users.RoleDistribution(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		total, err := users.Count(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}
		active, err := users.CountActive(ctx)
		if err != nil {
			respondServerError(c, route, err, cfg.IsProduction())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"registrationsPerDay": histogram,
			"roleDistribution":    roles,
			"statusDistribution": gin.H{
				"active":   active,
				"inactive": total - active,
			},
		})
	}
}
