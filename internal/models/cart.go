package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem keeps a price snapshot from the moment the item was added. Prices
// are caller-supplied and never re-derived from the catalog.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	LineTotal float64            `bson:"lineTotal" json:"lineTotal"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

type Cart struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"` // unique: one active cart per user
	Items        []CartItem         `bson:"items" json:"items"`
	Subtotal     float64            `bson:"subtotal" json:"subtotal"`
	Tax          float64            `bson:"tax" json:"tax"`
	Shipping     float64            `bson:"shipping" json:"shipping"`
	Discount     float64            `bson:"discount" json:"discount"`
	Total        float64            `bson:"total" json:"total"`
	TotalItems   int                `bson:"totalItems" json:"totalItems"`
	CouponCode   string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	LastModified time.Time          `bson:"lastModified" json:"lastModified"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CartSummary carries the derived totals without item detail.
type CartSummary struct {
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	Shipping   float64 `json:"shipping"`
	Discount   float64 `json:"discount"`
	Total      float64 `json:"total"`
	TotalItems int     `json:"totalItems"`
	CouponCode string  `json:"couponCode,omitempty"`
}

// RecomputeTotals overwrites every derived figure from the item list. All
// persisting writes run this first; caller-set totals never survive a save.
// Total is floored at zero so an oversized discount cannot go negative.
func (c *Cart) RecomputeTotals() {
	subtotal := 0.0
	items := 0
	for i := range c.Items {
		c.Items[i].LineTotal = c.Items[i].Price * float64(c.Items[i].Quantity)
		subtotal += c.Items[i].LineTotal
		items += c.Items[i].Quantity
	}

	c.Subtotal = subtotal
	c.TotalItems = items

	total := subtotal + c.Tax + c.Shipping - c.Discount
	if total < 0 {
		total = 0
	}
	c.Total = total
}

// AddItem increments quantity and overwrites the price snapshot when the
// product is already in the cart, otherwise appends a new item.
func (c *Cart) AddItem(productID primitive.ObjectID, quantity int, price float64) {
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].Price = price
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		AddedAt:   time.Now(),
	})
}

// SetItemQuantity sets the quantity for an existing item, removing it when
// quantity drops to zero or below. Returns false when no item matches.
func (c *Cart) SetItemQuantity(productID primitive.ObjectID, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return true
	}
	return false
}

// RemoveItem filters out the matching item. Absent items are a no-op, not an
// error.
func (c *Cart) RemoveItem(productID primitive.ObjectID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// Clear empties the cart and drops any applied coupon. The cart itself stays:
// cleared is its terminal working state, not deletion.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.CouponCode = ""
	c.Discount = 0
}

func (c *Cart) ApplyCoupon(code string, discount float64) {
	c.CouponCode = code
	c.Discount = discount
}

func (c *Cart) RemoveCoupon() {
	c.CouponCode = ""
	c.Discount = 0
}

func (c *Cart) Summary() CartSummary {
	return CartSummary{
		Subtotal:   c.Subtotal,
		Tax:        c.Tax,
		Shipping:   c.Shipping,
		Discount:   c.Discount,
		Total:      c.Total,
		TotalItems: c.TotalItems,
		CouponCode: c.CouponCode,
	}
}
