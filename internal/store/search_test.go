package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildSearchDefaultsToActiveNewest(t *testing.T) {
	filter, opts := BuildSearch("", SearchFilters{})

	assert.Equal(t, bson.M{"isActive": true}, filter)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
	assert.Nil(t, opts.Projection)
}

func TestBuildSearchTextQueryUsesRelevanceSort(t *testing.T) {
	filter, opts := BuildSearch("wireless headphones", SearchFilters{})

	assert.Equal(t, bson.M{"$search": "wireless headphones"}, filter["$text"])
	assert.Equal(t, bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}, opts.Sort)
	assert.Equal(t, bson.M{"score": bson.M{"$meta": "textScore"}}, opts.Projection)
}

func TestBuildSearchExplicitSortBeatsRelevance(t *testing.T) {
	_, opts := BuildSearch("headphones", SearchFilters{SortBy: "price-low"})

	assert.Equal(t, bson.D{{Key: "price", Value: 1}}, opts.Sort)
	assert.Nil(t, opts.Projection)
}

func TestBuildSearchSortSelection(t *testing.T) {
	tests := map[string]bson.D{
		"price-low":  {{Key: "price", Value: 1}},
		"price-high": {{Key: "price", Value: -1}},
		"rating":     {{Key: "rating", Value: -1}},
		"newest":     {{Key: "createdAt", Value: -1}},
	}

	for sortBy, want := range tests {
		_, opts := BuildSearch("", SearchFilters{SortBy: sortBy})
		assert.Equal(t, want, opts.Sort, "sortBy=%s", sortBy)
	}
}

func TestBuildSearchFilters(t *testing.T) {
	min := 10.0
	max := 50.0
	filter, _ := BuildSearch("", SearchFilters{
		Category:    "audio",
		Subcategory: "headphones",
		MinPrice:    &min,
		MaxPrice:    &max,
		InStock:     true,
	})

	assert.Equal(t, true, filter["isActive"])
	assert.Equal(t, "audio", filter["category"])
	assert.Equal(t, "headphones", filter["subcategory"])
	assert.Equal(t, bson.M{"$gte": 10.0, "$lte": 50.0}, filter["price"])
	assert.Equal(t, bson.M{"$gt": 0}, filter["stock"])
}

func TestBuildSearchIndependentPriceBounds(t *testing.T) {
	min := 25.0
	filter, _ := BuildSearch("", SearchFilters{MinPrice: &min})
	assert.Equal(t, bson.M{"$gte": 25.0}, filter["price"])

	max := 99.0
	filter, _ = BuildSearch("", SearchFilters{MaxPrice: &max})
	assert.Equal(t, bson.M{"$lte": 99.0}, filter["price"])

	filter, _ = BuildSearch("", SearchFilters{})
	_, hasPrice := filter["price"]
	assert.False(t, hasPrice)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.COM "))
	assert.Equal(t, "user@example.com", NormalizeEmail("User@Example.Com"))
}
