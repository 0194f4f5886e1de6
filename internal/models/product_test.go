package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func int64Ptr(n int64) *int64 { return &n }

func TestCurrentPrice(t *testing.T) {
	now := time.Date(2025, 8, 17, 12, 0, 0, 0, time.UTC)

	t.Run("list price", func(t *testing.T) {
		p := &Product{Price: 10_000_00}
		assert.Equal(t, int64(10_000_00), p.CurrentPrice(now))
	})

	t.Run("percentage discount", func(t *testing.T) {
		p := &Product{Price: 10_000_00, DiscountPct: 25}
		assert.Equal(t, int64(7_500_00), p.CurrentPrice(now))
	})

	t.Run("sale price wins inside window", func(t *testing.T) {
		p := &Product{
			Price:        10_000_00,
			DiscountPct:  10,
			SalePrice:    int64Ptr(6_000_00),
			SaleStartsAt: timePtr(now.Add(-time.Hour)),
			SaleEndsAt:   timePtr(now.Add(time.Hour)),
		}
		assert.Equal(t, int64(6_000_00), p.CurrentPrice(now))
		assert.Equal(t, int64(4_000_00), p.SavingsAmount(now))
	})

	t.Run("sale price ignored outside window", func(t *testing.T) {
		p := &Product{
			Price:        10_000_00,
			SalePrice:    int64Ptr(6_000_00),
			SaleStartsAt: timePtr(now.Add(time.Hour)),
			SaleEndsAt:   timePtr(now.Add(2 * time.Hour)),
		}
		assert.Equal(t, int64(10_000_00), p.CurrentPrice(now))
	})

	t.Run("sale with no window is always active", func(t *testing.T) {
		p := &Product{Price: 10_000_00, SalePrice: int64Ptr(8_000_00)}
		assert.Equal(t, int64(8_000_00), p.CurrentPrice(now))
	})
}

func TestStockStatus(t *testing.T) {
	cases := []struct {
		name    string
		product Product
		want    string
	}{
		{"in stock", Product{StockQuantity: 20, LowStockThreshold: 5}, StockInStock},
		{"low stock", Product{StockQuantity: 3, LowStockThreshold: 5}, StockLowStock},
		{"preorder", Product{PreorderAvailable: true}, StockPreorder},
		{"backorder", Product{BackorderAllowed: true}, StockBackorder},
		{"restock scheduled", Product{RestockDate: timePtr(time.Now().Add(48 * time.Hour))}, StockOutRestockSoon},
		{"out of stock", Product{}, StockOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.product.StockStatus())
		})
	}
}

func TestCanPurchase(t *testing.T) {
	assert.True(t, (&Product{StockQuantity: 1}).CanPurchase())
	assert.True(t, (&Product{PreorderAvailable: true}).CanPurchase())
	assert.True(t, (&Product{BackorderAllowed: true}).CanPurchase())
	assert.False(t, (&Product{}).CanPurchase())
}

func TestIsPublished(t *testing.T) {
	now := time.Date(2025, 8, 17, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&Product{IsActive: true}).IsPublished(now))
	assert.False(t, (&Product{IsActive: false}).IsPublished(now))
	assert.False(t, (&Product{IsActive: true, PublishDate: timePtr(now.Add(time.Hour))}).IsPublished(now))
	assert.True(t, (&Product{IsActive: true, PublishDate: timePtr(now.Add(-time.Hour))}).IsPublished(now))
}

func TestProductPrepare(t *testing.T) {
	p := &Product{Name: "Studio Monitor", SKU: "SM-100"}
	p.Prepare()

	assert.NotEqual(t, "", p.ID.String())
	assert.Equal(t, "studio-monitor-sm-100", p.Slug)
	assert.Equal(t, ConditionNew, p.Condition)
	assert.Equal(t, VisibilityPublic, p.Visibility)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Studio Monitor SM-100":    "studio-monitor-sm-100",
		"  Wireless Earbuds!  ":    "wireless-earbuds",
		"DJ / Club Headphones":     "dj-club-headphones",
		"100% Vinyl":               "100-vinyl",
		"---":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}
