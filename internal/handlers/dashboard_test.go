package handlers

import (
	"math"
	"testing"
)

func TestPlaceholderOrderCount(t *testing.T) {
	tests := []struct {
		users int64
		want  int64
	}{
		{0, 0},
		{1, 3},
		{100, 300},
	}
	for _, tt := range tests {
		if got := placeholderOrderCount(tt.users); got != tt.want {
			t.Fatalf("users=%d: expected %d, got %d", tt.users, tt.want, got)
		}
	}
}

func TestPlaceholderRevenue(t *testing.T) {
	if got := placeholderRevenue(0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := placeholderRevenue(4); math.Abs(got-999.96) > 1e-9 {
		t.Fatalf("expected 999.96, got %v", got)
	}
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		recent, total int64
		want          float64
	}{
		{10, 110, 10},
		{0, 100, 0},
		{50, 50, 100},  // everything is recent
		{10, 5, 100},   // degenerate input clamps
		{25, 125, 25},
	}
	for _, tt := range tests {
		if got := growthPercent(tt.recent, tt.total); got != tt.want {
			t.Fatalf("recent=%d total=%d: expected %v, got %v", tt.recent, tt.total, tt.want, got)
		}
	}
}
