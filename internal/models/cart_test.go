package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecomputeTotals(t *testing.T) {
	productID := primitive.NewObjectID()

	c := Cart{
		Items:    []CartItem{{ProductID: productID, Quantity: 3, Price: 10}},
		Tax:      2,
		Shipping: 5,
		Discount: 4,
	}
	c.RecomputeTotals()

	if c.Subtotal != 30 {
		t.Fatalf("expected subtotal 30, got %v", c.Subtotal)
	}
	if c.TotalItems != 3 {
		t.Fatalf("expected totalItems 3, got %d", c.TotalItems)
	}
	if c.Items[0].LineTotal != 30 {
		t.Fatalf("expected lineTotal 30, got %v", c.Items[0].LineTotal)
	}
	if c.Total != 33 {
		t.Fatalf("expected total 33, got %v", c.Total)
	}
}

func TestRecomputeTotalsFlooredAtZero(t *testing.T) {
	c := Cart{
		Items:    []CartItem{{ProductID: primitive.NewObjectID(), Quantity: 3, Price: 10}},
		Tax:      2,
		Shipping: 5,
		Discount: 40,
	}
	c.RecomputeTotals()

	if c.Subtotal != 30 {
		t.Fatalf("expected subtotal 30, got %v", c.Subtotal)
	}
	if c.Total != 0 {
		t.Fatalf("expected total floored at 0, got %v", c.Total)
	}
}

func TestRecomputeTotalsOverwritesCallerValues(t *testing.T) {
	c := Cart{
		Items:      []CartItem{{ProductID: primitive.NewObjectID(), Quantity: 2, Price: 5, LineTotal: 999}},
		Subtotal:   999,
		Total:      999,
		TotalItems: 999,
	}
	c.RecomputeTotals()

	if c.Subtotal != 10 || c.Total != 10 || c.TotalItems != 2 || c.Items[0].LineTotal != 10 {
		t.Fatalf("caller-set totals survived: %+v", c)
	}
}

func TestAddItemIncrementsAndOverwritesPrice(t *testing.T) {
	productID := primitive.NewObjectID()

	c := Cart{}
	c.AddItem(productID, 1, 10)
	c.AddItem(productID, 2, 8)

	if len(c.Items) != 1 {
		t.Fatalf("expected single item, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", c.Items[0].Quantity)
	}
	if c.Items[0].Price != 8 {
		t.Fatalf("expected price overwritten to 8, got %v", c.Items[0].Price)
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	c := Cart{}
	c.AddItem(primitive.NewObjectID(), 0, 5)
	if c.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", c.Items[0].Quantity)
	}
}

func TestSetItemQuantityZeroRemoves(t *testing.T) {
	productID := primitive.NewObjectID()

	c := Cart{}
	c.AddItem(productID, 2, 10)

	if !c.SetItemQuantity(productID, 0) {
		t.Fatal("expected item to be found")
	}
	if len(c.Items) != 0 {
		t.Fatalf("expected item removed, %d remain", len(c.Items))
	}
}

func TestSetItemQuantityMissingItem(t *testing.T) {
	c := Cart{}
	c.AddItem(primitive.NewObjectID(), 1, 10)

	if c.SetItemQuantity(primitive.NewObjectID(), 5) {
		t.Fatal("expected false for a product not in the cart")
	}
	if len(c.Items) != 1 {
		t.Fatalf("cart mutated unexpectedly: %d items", len(c.Items))
	}
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	productID := primitive.NewObjectID()

	c := Cart{}
	c.AddItem(productID, 1, 10)
	c.RemoveItem(primitive.NewObjectID())

	if len(c.Items) != 1 {
		t.Fatalf("expected untouched cart, got %d items", len(c.Items))
	}

	c.RemoveItem(productID)
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(c.Items))
	}
}

func TestClearDropsItemsAndCoupon(t *testing.T) {
	c := Cart{}
	c.AddItem(primitive.NewObjectID(), 2, 10)
	c.ApplyCoupon("SAVE10", 10)
	c.RecomputeTotals()

	c.Clear()
	c.RecomputeTotals()

	if len(c.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(c.Items))
	}
	if c.CouponCode != "" || c.Discount != 0 {
		t.Fatalf("expected coupon cleared, got code=%q discount=%v", c.CouponCode, c.Discount)
	}
	if c.Total != 0 || c.Subtotal != 0 {
		t.Fatalf("expected zero totals, got subtotal=%v total=%v", c.Subtotal, c.Total)
	}
}

func TestSummaryCarriesDerivedTotals(t *testing.T) {
	c := Cart{
		Items:    []CartItem{{ProductID: primitive.NewObjectID(), Quantity: 2, Price: 15}},
		Tax:      3,
		Shipping: 7,
	}
	c.ApplyCoupon("SAVE5", 5)
	c.RecomputeTotals()

	s := c.Summary()
	if s.Subtotal != 30 || s.Total != 35 || s.TotalItems != 2 || s.CouponCode != "SAVE5" {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
