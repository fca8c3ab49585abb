package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

const DefaultFeaturedLimit = 10

// Products wraps every mongo operation on the products collection. All
// persisting writes run RecomputeDerived first, so the stored rating and
// review count always reflect the embedded reviews.
type Products struct {
	col *mongo.Collection
}

func NewProducts(db *mongo.Database) *Products {
	return &Products{col: db.Collection("products")}
}

// SearchFilters narrows a catalog search. Price bounds are independently
// optional, a nil pointer means unbounded on that side.
type SearchFilters struct {
	Category    string
	Subcategory string
	MinPrice    *float64
	MaxPrice    *float64
	InStock     bool
	SortBy      string
}

// BuildSearch constructs the filter and options for a catalog search without
// touching the database. Base filter restricts to active products; sort
// selection falls back to text relevance when a query is present and no
// explicit sortBy was given, else newest first.
func BuildSearch(query string, f SearchFilters) (bson.M, *options.FindOptions) {
	filter := bson.M{"isActive": true}

	query = strings.TrimSpace(query)
	if query != "" {
		filter["$text"] = bson.M{"$search": query}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Subcategory != "" {
		filter["subcategory"] = f.Subcategory
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}

	opts := options.Find()
	switch f.SortBy {
	case "price-low":
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case "price-high":
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	case "rating":
		opts.SetSort(bson.D{{Key: "rating", Value: -1}})
	case "newest":
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	default:
		if query != "" {
			opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
			opts.SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}})
		} else {
			opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
		}
	}

	return filter, opts
}

// Search returns the lazy cursor so callers can page or chain before
// materializing.
func (s *Products) Search(ctx context.Context, query string, f SearchFilters) (*mongo.Cursor, error) {
	filter, opts := BuildSearch(query, f)
	return s.col.Find(ctx, filter, opts)
}

// Featured returns active featured products, newest first.
func (s *Products) Featured(ctx context.Context, limit int64) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, bson.M{"isActive": true, "isFeatured": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Products) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Insert persists a new product. A duplicate SKU surfaces as ErrDuplicate.
func (s *Products) Insert(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.LowStockThreshold <= 0 {
		product.LowStockThreshold = models.DefaultLowStockThreshold
	}
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	product.RecomputeDerived()

	res, err := s.col.InsertOne(ctx, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

// Save replaces the whole document. Single-document read-modify-write,
// last write wins under concurrent saves.
func (s *Products) Save(ctx context.Context, product *models.Product) error {
	product.RecomputeDerived()
	product.UpdatedAt = time.Now()

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview loads the product, replaces any prior review by the user, and
// persists, which recomputes rating and review count.
func (s *Products) AddReview(ctx context.Context, productID, userID primitive.ObjectID, rating int, comment string) (*models.Product, error) {
	product, err := s.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.SetReview(userID, rating, comment)
	if err := s.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Deactivate is the delete operation of the catalog: products are soft
// deleted so cart item rows referencing them stay decodable.
func (s *Products) Deactivate(ctx context.Context, id primitive.ObjectID, actor primitive.ObjectID) error {
	res, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"isActive": false, "updatedBy": actor, "updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Products) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

func (s *Products) CountActive(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"isActive": true})
}

// Recent returns the latest catalog entries, newest first.
func (s *Products) Recent(ctx context.Context, limit int64) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
