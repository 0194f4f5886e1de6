package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopbackend/internal/models"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, order_number, customer_id, guest_email,
	status, payment_status, payment_method,
	subtotal, shipping_cost, total,
	shipping_address, shipping_city, shipping_phone,
	carrier, tracking_number,
	created_at, updated_at, shipped_date, delivered_date, cancelled_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.GuestEmail,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Subtotal, &o.ShippingCost, &o.Total,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingPhone,
		&o.Carrier, &o.TrackingNumber,
		&o.CreatedAt, &o.UpdatedAt, &o.ShippedDate, &o.DeliveredDate, &o.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()
	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// Create inserts the order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	o.Prepare()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, order_number, customer_id, guest_email,
			status, payment_status, payment_method,
			subtotal, shipping_cost, total,
			shipping_address, shipping_city, shipping_phone,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, query,
		o.ID, o.OrderNumber, o.CustomerID, o.GuestEmail,
		o.Status, o.PaymentStatus, o.PaymentMethod,
		o.Subtotal, o.ShippingCost, o.Total,
		o.ShippingAddress, o.ShippingCity, o.ShippingPhone,
	)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = o.ID
		if _, err := tx.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil || o == nil {
		return o, err
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) itemsFor(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	query := `SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items WHERE order_id = $1`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + orderColumns + `
		FROM orders WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// UpdateStatus moves the order to newStatus and records the transition in the
// history table, in one transaction. The shipped, delivered and cancelled
// timestamps are stamped when the matching status is entered.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, oldStatus, newStatus string, changedBy *uuid.UUID, notes string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders SET
			status = $2,
			updated_at = NOW(),
			shipped_date = CASE WHEN $2 = 'shipped' THEN NOW() ELSE shipped_date END,
			delivered_date = CASE WHEN $2 = 'delivered' THEN NOW() ELSE delivered_date END,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $1 AND status = $3
	`
	tag, err := tx.Exec(ctx, query, orderID, newStatus, oldStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	historyQuery := `
		INSERT INTO order_status_history (id, order_id, old_status, new_status, changed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	if _, err := tx.Exec(ctx, historyQuery, uuid.New(), orderID, oldStatus, newStatus, changedBy, notes); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ErrStatusConflict means the order was not in the expected status, typically
// because a concurrent update moved it first.
var ErrStatusConflict = errors.New("order status changed concurrently")

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	query := `UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, orderID, status)
	return err
}

func (r *OrderRepository) SetTracking(ctx context.Context, orderID uuid.UUID, carrier, trackingNumber string) error {
	query := `UPDATE orders SET carrier = $2, tracking_number = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, orderID, carrier, trackingNumber)
	return err
}

func (r *OrderRepository) FindPendingPaid(ctx context.Context) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders WHERE status = 'pending' AND payment_status = 'paid'
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *OrderRepository) FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'pending'
		  AND payment_status IN ('pending', 'failed')
		  AND created_at < $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// FindShippedBefore returns orders shipped before the cutoff that have not
// been delivered, the delayed-delivery check.
func (r *OrderRepository) FindShippedBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ('shipped', 'out_for_delivery')
		  AND shipped_date IS NOT NULL
		  AND shipped_date < $1
		ORDER BY shipped_date`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *OrderRepository) FindHighValuePending(ctx context.Context, minTotal int64) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'pending' AND total >= $1
		ORDER BY total DESC`

	rows, err := r.pool.Query(ctx, query, minTotal)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *OrderRepository) FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'processing' AND updated_at < $1
		ORDER BY updated_at`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (r *OrderRepository) FindWithActiveTracking(ctx context.Context) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ('shipped', 'out_for_delivery') AND tracking_number <> ''
		ORDER BY shipped_date`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// CustomerPurchasedProduct reports whether the customer has a delivered order
// containing the product. Backs verified-purchase review marking.
func (r *OrderRepository) CustomerPurchasedProduct(ctx context.Context, customerID, productID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.customer_id = $1 AND oi.product_id = $2 AND o.status = 'delivered'
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, customerID, productID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// DailyReport aggregates the orders created on the given calendar day (UTC).
func (r *OrderRepository) DailyReport(ctx context.Context, day time.Time) (*models.DailyOrderReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	report := &models.DailyOrderReport{
		Date:            start.Format("2006-01-02"),
		ByStatus:        map[string]int{},
		ByPaymentMethod: map[string]int{},
	}

	summary := `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM orders WHERE created_at >= $1 AND created_at < $2
	`
	if err := r.pool.QueryRow(ctx, summary, start, end).Scan(&report.TotalOrders, &report.TotalRevenue); err != nil {
		return nil, err
	}
	if report.TotalOrders > 0 {
		report.AverageValue = report.TotalRevenue / int64(report.TotalOrders)
	}

	byStatus := `
		SELECT status, COUNT(*) FROM orders
		WHERE created_at >= $1 AND created_at < $2 GROUP BY status
	`
	rows, err := r.pool.Query(ctx, byStatus, start, end)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		report.ByStatus[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byMethod := `
		SELECT payment_method, COUNT(*) FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND payment_method <> '' GROUP BY payment_method
	`
	rows, err = r.pool.Query(ctx, byMethod, start, end)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var method string
		var count int
		if err := rows.Scan(&method, &count); err != nil {
			rows.Close()
			return nil, err
		}
		report.ByPaymentMethod[method] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	topProducts := `
		SELECT oi.product_name, SUM(oi.quantity), SUM(oi.quantity * oi.price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 10
	`
	rows, err = r.pool.Query(ctx, topProducts, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line models.TopProductLine
		if err := rows.Scan(&line.ProductName, &line.Quantity, &line.Revenue); err != nil {
			return nil, err
		}
		report.TopProducts = append(report.TopProducts, line)
	}
	return report, rows.Err()
}

// SumPaidOn totals orders marked paid that were created on the given day.
// Used by payment reconciliation against completed M-Pesa transactions.
func (r *OrderRepository) SumPaidOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE payment_status = 'paid' AND created_at >= $1 AND created_at < $2`

	var total int64
	if err := r.pool.QueryRow(ctx, query, start, end).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *OrderRepository) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM order_status_history WHERE created_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
