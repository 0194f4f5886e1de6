package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Monetary amounts are stored as integer cents of KSh throughout.

// Product condition values.
const (
	ConditionNew         = "new"
	ConditionRefurbished = "refurbished"
	ConditionUsed        = "used"
)

// Product visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityHidden  = "hidden"
	VisibilityCatalog = "catalog"
)

// Stock status values returned by Product.StockStatus.
const (
	StockInStock          = "in_stock"
	StockLowStock         = "low_stock"
	StockPreorder         = "preorder"
	StockBackorder        = "backorder"
	StockOutRestockSoon   = "out_of_stock_restock_scheduled"
	StockOutOfStock       = "out_of_stock"
)

type Category struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description,omitempty"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	DisplayOrder int        `json:"display_order"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (c *Category) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
}

type Brand struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Website      string    `json:"website,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsFeatured   bool      `json:"is_featured"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (b *Brand) Prepare() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Slug == "" {
		b.Slug = Slugify(b.Name)
	}
}

type Product struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	SKU              string    `json:"sku"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description,omitempty"`
	CategoryID       uuid.UUID `json:"category_id"`
	BrandID          uuid.UUID `json:"brand_id"`

	// Pricing, in cents. SalePrice overrides DiscountPct inside the sale
	// window.
	Price       int64      `json:"price"`
	CostPrice   *int64     `json:"cost_price,omitempty"`
	DiscountPct float64    `json:"discount_percentage"`
	SalePrice   *int64     `json:"sale_price,omitempty"`
	SaleStartsAt *time.Time `json:"sale_starts_at,omitempty"`
	SaleEndsAt   *time.Time `json:"sale_ends_at,omitempty"`

	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	Condition         string `json:"condition"`
	IsActive          bool   `json:"is_active"`
	IsFeatured        bool   `json:"is_featured"`

	IsNewArrival    bool       `json:"is_new_arrival"`
	NewArrivalUntil *time.Time `json:"new_arrival_until,omitempty"`
	IsBestseller    bool       `json:"is_bestseller"`
	IsOnSale        bool       `json:"is_on_sale"`

	PreorderAvailable bool       `json:"preorder_available"`
	BackorderAllowed  bool       `json:"backorder_allowed"`
	RestockDate       *time.Time `json:"restock_date,omitempty"`

	MaxQuantityPerOrder *int `json:"max_quantity_per_order,omitempty"`

	Visibility  string     `json:"visibility"`
	PublishDate *time.Time `json:"publish_date,omitempty"`

	DisplayOrder    int     `json:"display_order"`
	ViewCount       int     `json:"view_count"`
	PopularityScore float64 `json:"popularity_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Product) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name + "-" + p.SKU)
	}
	if p.Condition == "" {
		p.Condition = ConditionNew
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
}

// IsSaleActive reports whether the sale window is open. A sale with no
// window is always active.
func (p *Product) IsSaleActive(now time.Time) bool {
	if p.SaleStartsAt == nil || p.SaleEndsAt == nil {
		return true
	}
	return !now.Before(*p.SaleStartsAt) && !now.After(*p.SaleEndsAt)
}

// CurrentPrice is the effective selling price: active sale price first, then
// percentage discount, then list price.
func (p *Product) CurrentPrice(now time.Time) int64 {
	if p.SalePrice != nil && p.IsSaleActive(now) {
		return *p.SalePrice
	}
	return p.FinalPrice()
}

// FinalPrice is the list price after the percentage discount.
func (p *Product) FinalPrice() int64 {
	if p.DiscountPct > 0 {
		return p.Price - int64(float64(p.Price)*p.DiscountPct/100)
	}
	return p.Price
}

// SavingsAmount is how much the buyer saves versus the list price.
func (p *Product) SavingsAmount(now time.Time) int64 {
	return p.Price - p.CurrentPrice(now)
}

func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

func (p *Product) IsLowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.LowStockThreshold
}

// CanPurchase reports whether an order line may be placed for this product.
func (p *Product) CanPurchase() bool {
	return p.IsInStock() || p.PreorderAvailable || p.BackorderAllowed
}

// IsPublished checks the active flag and a scheduled publish date.
func (p *Product) IsPublished(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.PublishDate != nil {
		return !now.Before(*p.PublishDate)
	}
	return true
}

// StockStatus returns the customer-facing availability label.
func (p *Product) StockStatus() string {
	if p.IsInStock() {
		if p.IsLowStock() {
			return StockLowStock
		}
		return StockInStock
	}
	if p.PreorderAvailable {
		return StockPreorder
	}
	if p.BackorderAllowed {
		return StockBackorder
	}
	if p.RestockDate != nil {
		return StockOutRestockSoon
	}
	return StockOutOfStock
}

type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a customer product review. One review per product per customer;
// reviews only show publicly once approved.
type Review struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	IsApproved         bool      `json:"is_approved"`
	HelpfulCount       int       `json:"helpful_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (r *Review) Prepare() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases and replaces runs of non-alphanumerics with hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
