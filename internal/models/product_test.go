package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecomputeDerivedEmptyReviews(t *testing.T) {
	p := Product{Rating: 4.2, ReviewCount: 7}
	p.RecomputeDerived()
	if p.Rating != 0 {
		t.Fatalf("expected rating 0 with no reviews, got %v", p.Rating)
	}
	if p.ReviewCount != 0 {
		t.Fatalf("expected reviewCount 0 with no reviews, got %d", p.ReviewCount)
	}
}

func TestRecomputeDerivedRoundsToOneDecimal(t *testing.T) {
	tests := []struct {
		ratings []int
		want    float64
	}{
		{[]int{4, 5}, 4.5},
		{[]int{1, 2}, 1.5},
		{[]int{2, 3, 3}, 2.7},
		{[]int{5}, 5},
		{[]int{1, 1, 2}, 1.3},
	}

	for _, tt := range tests {
		p := Product{}
		for _, r := range tt.ratings {
			p.Reviews = append(p.Reviews, Review{UserID: primitive.NewObjectID(), Rating: r})
		}
		p.RecomputeDerived()
		if p.Rating != tt.want {
			t.Fatalf("ratings %v: expected %v, got %v", tt.ratings, tt.want, p.Rating)
		}
		if p.ReviewCount != len(tt.ratings) {
			t.Fatalf("ratings %v: expected count %d, got %d", tt.ratings, len(tt.ratings), p.ReviewCount)
		}
	}
}

func TestSetReviewReplacesPriorReviewBySameUser(t *testing.T) {
	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	p := Product{}
	p.SetReview(other, 5, "great")
	p.SetReview(userID, 2, "meh")
	p.SetReview(userID, 4, "better on second thought")

	if len(p.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(p.Reviews))
	}

	var mine *Review
	for i := range p.Reviews {
		if p.Reviews[i].UserID == userID {
			if mine != nil {
				t.Fatal("found two reviews for the same user")
			}
			mine = &p.Reviews[i]
		}
	}
	if mine == nil {
		t.Fatal("review for user missing")
	}
	if mine.Rating != 4 || mine.Comment != "better on second thought" {
		t.Fatalf("expected latest review to win, got rating=%d comment=%q", mine.Rating, mine.Comment)
	}
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		stock     int
		threshold int
		want      string
	}{
		{0, 10, StockStatusOut},
		{1, 10, StockStatusLow},
		{10, 10, StockStatusLow},
		{11, 10, StockStatusIn},
		{50, 10, StockStatusIn},
		{5, 0, StockStatusLow}, // zero threshold falls back to the default
	}

	for _, tt := range tests {
		p := Product{Stock: tt.stock, LowStockThreshold: tt.threshold}
		if got := p.StockStatus(); got != tt.want {
			t.Fatalf("stock=%d threshold=%d: expected %s, got %s", tt.stock, tt.threshold, tt.want, got)
		}
	}
}

func TestDiscountPercentage(t *testing.T) {
	tests := []struct {
		price   float64
		compare float64
		want    int
	}{
		{80, 100, 20},
		{75, 100, 25},
		{100, 0, 0},
		{100, 100, 0},
		{100, 90, 0},
		{66.5, 99.99, 33},
	}

	for _, tt := range tests {
		p := Product{Price: tt.price, ComparePrice: tt.compare}
		if got := p.DiscountPercentage(); got != tt.want {
			t.Fatalf("price=%v compare=%v: expected %d, got %d", tt.price, tt.compare, tt.want, got)
		}
	}
}

func TestPublicDataExcludesAuditFields(t *testing.T) {
	p := Product{
		ID:        primitive.NewObjectID(),
		Name:      "Widget",
		Price:     9.99,
		Stock:     50,
		CreatedBy: primitive.NewObjectID(),
	}
	p.LowStockThreshold = 10

	pub := p.PublicData()
	if pub.Name != "Widget" || pub.Price != 9.99 {
		t.Fatalf("unexpected projection: %+v", pub)
	}
	if pub.StockStatus != StockStatusIn {
		t.Fatalf("expected in-stock, got %s", pub.StockStatus)
	}
}
