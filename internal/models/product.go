package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StockStatusOut = "out-of-stock"
	StockStatusLow = "low-stock"
	StockStatusIn  = "in-stock"
)

const DefaultLowStockThreshold = 10

// ProductImage is one entry of the ordered image list. The legacy single
// Image field on Product stays alongside it for older documents.
type ProductImage struct {
	URL       string `bson:"url" json:"url"`
	Alt       string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

type Dimensions struct {
	Length float64 `bson:"length,omitempty" json:"length,omitempty"`
	Width  float64 `bson:"width,omitempty" json:"width,omitempty"`
	Height float64 `bson:"height,omitempty" json:"height,omitempty"`
	Weight float64 `bson:"weight,omitempty" json:"weight,omitempty"`
}

// Review lives embedded in its product document and has no identity of its
// own. One review per user per product: setting a second one replaces the
// first.
type Review struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	Helpful   int                `bson:"helpful" json:"helpful"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Product struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Price             float64            `bson:"price" json:"price"`
	ComparePrice      float64            `bson:"comparePrice,omitempty" json:"comparePrice,omitempty"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty"`
	Subcategory       string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Brand             string             `bson:"brand,omitempty" json:"brand,omitempty"`
	SKU               string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Images            []ProductImage     `bson:"images,omitempty" json:"images,omitempty"`
	Image             string             `bson:"image,omitempty" json:"image,omitempty"`
	Stock             int                `bson:"stock" json:"stock"`
	LowStockThreshold int                `bson:"lowStockThreshold" json:"lowStockThreshold"`
	Rating            float64            `bson:"rating" json:"rating"`
	ReviewCount       int                `bson:"reviewCount" json:"reviewCount"`
	Reviews           []Review           `bson:"reviews" json:"reviews"`
	Tags              []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Specifications    map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Dimensions        Dimensions         `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	IsFeatured        bool               `bson:"isFeatured" json:"isFeatured"`
	MetaTitle         string             `bson:"metaTitle,omitempty" json:"metaTitle,omitempty"`
	MetaDescription   string             `bson:"metaDescription,omitempty" json:"metaDescription,omitempty"`
	CreatedBy         primitive.ObjectID `bson:"createdBy,omitempty" json:"-"`
	UpdatedBy         primitive.ObjectID `bson:"updatedBy,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecomputeDerived overwrites rating and reviewCount from the embedded
// reviews. Every persisting write runs this first, so caller-supplied values
// for the two fields never survive a save.
func (p *Product) RecomputeDerived() {
	p.ReviewCount = len(p.Reviews)
	if len(p.Reviews) == 0 {
		p.Rating = 0
		return
	}

	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(p.Reviews))
	p.Rating = math.Round(mean*10) / 10
}

// StockStatus is computed on read and never persisted.
func (p *Product) StockStatus() string {
	threshold := p.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	switch {
	case p.Stock <= 0:
		return StockStatusOut
	case p.Stock <= threshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// DiscountPercentage is computed on read and never persisted.
func (p *Product) DiscountPercentage() int {
	if p.ComparePrice > p.Price {
		return int(math.Round(100 * (p.ComparePrice - p.Price) / p.ComparePrice))
	}
	return 0
}

// SetReview replaces any existing review by the same user before appending,
// keeping the one-review-per-user invariant.
func (p *Product) SetReview(userID primitive.ObjectID, rating int, comment string) {
	now := time.Now()

	kept := make([]Review, 0, len(p.Reviews)+1)
	for _, r := range p.Reviews {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	kept = append(kept, Review{
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	})
	p.Reviews = kept
}

// PublicProduct is the projection for external consumption. Audit references
// (createdBy/updatedBy) are excluded, the read-time derived fields included.
type PublicProduct struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	Price              float64           `json:"price"`
	ComparePrice       float64           `json:"comparePrice,omitempty"`
	DiscountPercentage int               `json:"discountPercentage"`
	Category           string            `json:"category,omitempty"`
	Subcategory        string            `json:"subcategory,omitempty"`
	Brand              string            `json:"brand,omitempty"`
	SKU                string            `json:"sku,omitempty"`
	Images             []ProductImage    `json:"images,omitempty"`
	Image              string            `json:"image,omitempty"`
	Stock              int               `json:"stock"`
	StockStatus        string            `json:"stockStatus"`
	Rating             float64           `json:"rating"`
	ReviewCount        int               `json:"reviewCount"`
	Reviews            []Review          `json:"reviews,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
	Specifications     map[string]string `json:"specifications,omitempty"`
	Dimensions         Dimensions        `json:"dimensions,omitempty"`
	IsFeatured         bool              `json:"isFeatured"`
	CreatedAt          time.Time         `json:"createdAt"`
}

func (p *Product) PublicData() PublicProduct {
	return PublicProduct{
		ID:                 p.ID.Hex(),
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		ComparePrice:       p.ComparePrice,
		DiscountPercentage: p.DiscountPercentage(),
		Category:           p.Category,
		Subcategory:        p.Subcategory,
		Brand:              p.Brand,
		SKU:                p.SKU,
		Images:             p.Images,
		Image:              p.Image,
		Stock:              p.Stock,
		StockStatus:        p.StockStatus(),
		Rating:             p.Rating,
		ReviewCount:        p.ReviewCount,
		Reviews:            p.Reviews,
		Tags:               p.Tags,
		Specifications:     p.Specifications,
		Dimensions:         p.Dimensions,
		IsFeatured:         p.IsFeatured,
		CreatedAt:          p.CreatedAt,
	}
}
