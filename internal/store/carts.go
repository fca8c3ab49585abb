package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// Carts wraps every mongo operation on the carts collection. Each mutation is
// a single-document read-modify-write, last write wins under concurrency; the
// only guarded race is first-time creation, where the unique userId index
// rejects the loser and one fresh lookup resolves it.
type Carts struct {
	col      *mongo.Collection
	products *mongo.Collection
}

func NewCarts(db *mongo.Database) *Carts {
	return &Carts{
		col:      db.Collection("carts"),
		products: db.Collection("products"),
	}
}

// ResolvedCartItem is a cart item joined with its product's public
// projection.
type ResolvedCartItem struct {
	ProductID primitive.ObjectID   `json:"productId"`
	Quantity  int                  `json:"quantity"`
	Price     float64              `json:"price"`
	LineTotal float64              `json:"lineTotal"`
	Product   models.PublicProduct `json:"product"`
}

func (s *Carts) find(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.col.FindOne(ctx, bson.M{"userId": userID, "isActive": true}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (s *Carts) save(ctx context.Context, cart *models.Cart) error {
	cart.RecomputeTotals()
	now := time.Now()
	cart.LastModified = now
	cart.UpdatedAt = now

	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrCreate lazily creates the user's cart on first access. When two first
// calls race, the unique index rejects one insert and that caller retries
// with a fresh lookup.
func (s *Carts) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.find(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	fresh := &models.Cart{
		UserID:       userID,
		Items:        []models.CartItem{},
		IsActive:     true,
		LastModified: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	fresh.RecomputeTotals()

	res, err := s.col.InsertOne(ctx, fresh)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return s.find(ctx, userID)
		}
		return nil, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		fresh.ID = id
	}
	return fresh, nil
}

func (s *Carts) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int, price float64) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(productID, quantity, price)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItemQuantity sets or removes (quantity <= 0) an item. A missing item
// is ErrNotFound.
func (s *Carts) UpdateItemQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.SetItemQuantity(productID, quantity) {
		return nil, ErrNotFound
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Carts) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(productID)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Carts) Clear(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Clear()
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Carts) ApplyCoupon(ctx context.Context, userID primitive.ObjectID, code string, discount float64) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.ApplyCoupon(code, discount)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Carts) RemoveCoupon(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.RemoveCoupon()
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ResolveProducts joins cart items with the currently active products they
// reference. Items whose product went missing or inactive are left out of
// the resolved view; the stored rows remain untouched.
func (s *Carts) ResolveProducts(ctx context.Context, cart *models.Cart) ([]ResolvedCartItem, error) {
	resolved := make([]ResolvedCartItem, 0, len(cart.Items))
	if len(cart.Items) == 0 {
		return resolved, nil
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	cursor, err := s.products.Find(ctx, bson.M{
		"_id":      bson.M{"$in": ids},
		"isActive": true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range cart.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		resolved = append(resolved, ResolvedCartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal,
			Product:   product.PublicData(),
		})
	}
	return resolved, nil
}
