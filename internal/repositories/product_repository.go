package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopbackend/internal/models"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, slug, sku, description, short_description,
	category_id, brand_id,
	price, cost_price, discount_percentage, sale_price, sale_starts_at, sale_ends_at,
	stock_quantity, low_stock_threshold, condition, is_active, is_featured,
	is_new_arrival, new_arrival_until, is_bestseller, is_on_sale,
	preorder_available, backorder_allowed, restock_date,
	max_quantity_per_order, visibility, publish_date,
	display_order, view_count, popularity_score,
	created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description, &p.ShortDescription,
		&p.CategoryID, &p.BrandID,
		&p.Price, &p.CostPrice, &p.DiscountPct, &p.SalePrice, &p.SaleStartsAt, &p.SaleEndsAt,
		&p.StockQuantity, &p.LowStockThreshold, &p.Condition, &p.IsActive, &p.IsFeatured,
		&p.IsNewArrival, &p.NewArrivalUntil, &p.IsBestseller, &p.IsOnSale,
		&p.PreorderAvailable, &p.BackorderAllowed, &p.RestockDate,
		&p.MaxQuantityPerOrder, &p.Visibility, &p.PublishDate,
		&p.DisplayOrder, &p.ViewCount, &p.PopularityScore,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	p.Prepare()

	query := `
		INSERT INTO products (id, name, slug, sku, description, short_description,
			category_id, brand_id,
			price, cost_price, discount_percentage, sale_price, sale_starts_at, sale_ends_at,
			stock_quantity, low_stock_threshold, condition, is_active, is_featured,
			is_new_arrival, new_arrival_until, is_bestseller, is_on_sale,
			preorder_available, backorder_allowed, restock_date,
			max_quantity_per_order, visibility, publish_date,
			display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
			$27, $28, $29, $30, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.SKU, p.Description, p.ShortDescription,
		p.CategoryID, p.BrandID,
		p.Price, p.CostPrice, p.DiscountPct, p.SalePrice, p.SaleStartsAt, p.SaleEndsAt,
		p.StockQuantity, p.LowStockThreshold, p.Condition, p.IsActive, p.IsFeatured,
		p.IsNewArrival, p.NewArrivalUntil, p.IsBestseller, p.IsOnSale,
		p.PreorderAvailable, p.BackorderAllowed, p.RestockDate,
		p.MaxQuantityPerOrder, p.Visibility, p.PublishDate,
		p.DisplayOrder,
	)
	return err
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	return scanProduct(r.pool.QueryRow(ctx, query, slug))
}

func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = TRUE AND visibility = 'public'`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategoryID != nil {
		query += ` AND category_id = ` + arg(*filter.CategoryID)
	}
	if filter.BrandID != nil {
		query += ` AND brand_id = ` + arg(*filter.BrandID)
	}
	if filter.Search != "" {
		n := arg("%" + filter.Search + "%")
		query += ` AND (name ILIKE ` + n + ` OR description ILIKE ` + n + `)`
	}
	if filter.MinPrice != nil {
		query += ` AND price >= ` + arg(*filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query += ` AND price <= ` + arg(*filter.MaxPrice)
	}
	if filter.InStockOnly {
		query += ` AND stock_quantity > 0`
	}

	query += ` ORDER BY display_order, popularity_score DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE products SET view_count = view_count + 1 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// AdjustStock changes stock by delta, clamping at zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := `UPDATE products
		SET stock_quantity = GREATEST(stock_quantity + $2, 0), updated_at = NOW()
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, delta)
	return err
}

func (r *ProductRepository) SetStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `UPDATE products SET stock_quantity = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, quantity)
	return err
}

func (r *ProductRepository) FindLowStock(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_active = TRUE AND stock_quantity > 0 AND stock_quantity <= low_stock_threshold
		ORDER BY stock_quantity`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) FindOutOfStock(ctx context.Context) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_active = TRUE AND stock_quantity = 0
		ORDER BY updated_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// DeactivateOutOfStockBefore hides products that have been out of stock since
// before the cutoff and allow neither preorder nor backorder.
func (r *ProductRepository) DeactivateOutOfStockBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE products
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE
		  AND stock_quantity = 0
		  AND preorder_available = FALSE
		  AND backorder_allowed = FALSE
		  AND updated_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FindPricingAnomalies returns products whose price fields contradict each
// other: a sale price at or above list, a cost above list, or a discount
// beyond the allowed maximum.
func (r *ProductRepository) FindPricingAnomalies(ctx context.Context, maxDiscountPct float64) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_active = TRUE AND (
			(sale_price IS NOT NULL AND sale_price >= price)
			OR (cost_price IS NOT NULL AND cost_price > price)
			OR discount_percentage > $1
		)
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, maxDiscountPct)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// ExpireFlashSales clears the sale flag and price on products whose sale
// window has closed.
func (r *ProductRepository) ExpireFlashSales(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE products
		SET is_on_sale = FALSE, sale_price = NULL, sale_starts_at = NULL, sale_ends_at = NULL, updated_at = NOW()
		WHERE is_on_sale = TRUE AND sale_ends_at IS NOT NULL AND sale_ends_at < $1`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ProductRepository) PopularityInputs(ctx context.Context, salesSince time.Time) ([]PopularityInput, error) {
	query := `
		SELECT p.id,
		       p.view_count,
		       COALESCE(SUM(oi.quantity) FILTER (WHERE o.created_at >= $1 AND o.status <> 'cancelled'), 0),
		       COALESCE(AVG(r.rating) FILTER (WHERE r.is_approved), 0)
		FROM products p
		LEFT JOIN order_items oi ON oi.product_id = p.id
		LEFT JOIN orders o ON o.id = oi.order_id
		LEFT JOIN reviews r ON r.product_id = p.id
		WHERE p.is_active = TRUE
		GROUP BY p.id, p.view_count
	`
	rows, err := r.pool.Query(ctx, query, salesSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inputs []PopularityInput
	for rows.Next() {
		var in PopularityInput
		if err := rows.Scan(&in.ProductID, &in.ViewCount, &in.UnitsSold, &in.AvgRating); err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

func (r *ProductRepository) UpdatePopularityScore(ctx context.Context, id uuid.UUID, score float64) error {
	query := `UPDATE products SET popularity_score = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, score)
	return err
}

func (r *ProductRepository) CatalogSummary(ctx context.Context) (*CatalogSummary, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE is_active AND stock_quantity = 0),
		       COUNT(*) FILTER (WHERE is_active AND is_on_sale),
		       COUNT(*) FILTER (WHERE is_active AND stock_quantity > 0 AND stock_quantity <= low_stock_threshold)
		FROM products
	`
	var summary CatalogSummary
	err := r.pool.QueryRow(ctx, query).Scan(
		&summary.Active,
		&summary.OutOfStock,
		&summary.OnSale,
		&summary.LowStock,
	)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
