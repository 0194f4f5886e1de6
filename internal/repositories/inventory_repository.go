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

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) ActiveWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	query := `SELECT id, code, name, address, capacity, manager_id, is_active, created_at
		FROM warehouses WHERE is_active = TRUE ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warehouses []models.Warehouse
	for rows.Next() {
		var w models.Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.Capacity, &w.ManagerID, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

const stockColumns = `id, warehouse_id, product_id, quantity, reserved_quantity,
	damaged_quantity, reorder_point, reorder_quantity, updated_at`

func scanStock(rows pgx.Rows) (models.WarehouseStock, error) {
	var s models.WarehouseStock
	err := rows.Scan(&s.ID, &s.WarehouseID, &s.ProductID, &s.Quantity, &s.ReservedQty,
		&s.DamagedQty, &s.ReorderPoint, &s.ReorderQuantity, &s.UpdatedAt)
	return s, err
}

func (r *InventoryRepository) StocksByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.WarehouseStock, error) {
	query := `SELECT ` + stockColumns + ` FROM warehouse_stock WHERE warehouse_id = $1`

	rows, err := r.pool.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []models.WarehouseStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (r *InventoryRepository) DamagedStocks(ctx context.Context) ([]models.WarehouseStock, error) {
	query := `SELECT ` + stockColumns + ` FROM warehouse_stock WHERE damaged_quantity > 0`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []models.WarehouseStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (r *InventoryRepository) WarehouseUsedCapacity(ctx context.Context, warehouseID uuid.UUID) (int, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM warehouse_stock WHERE warehouse_id = $1`

	var used int
	if err := r.pool.QueryRow(ctx, query, warehouseID).Scan(&used); err != nil {
		return 0, err
	}
	return used, nil
}

// TotalStockByProduct sums on-hand quantity per product across all active
// warehouses. The stock sync task writes these totals back to the catalog.
func (r *InventoryRepository) TotalStockByProduct(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `
		SELECT ws.product_id, COALESCE(SUM(ws.quantity - ws.reserved_quantity - ws.damaged_quantity), 0)
		FROM warehouse_stock ws
		JOIN warehouses w ON w.id = ws.warehouse_id
		WHERE w.is_active = TRUE
		GROUP BY ws.product_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]int)
	for rows.Next() {
		var productID uuid.UUID
		var total int
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, err
		}
		if total < 0 {
			total = 0
		}
		totals[productID] = total
	}
	return totals, rows.Err()
}

// UpsertAlert creates the alert unless an unresolved one of the same type
// already exists for the warehouse/product pair. Returns whether a row was
// created.
func (r *InventoryRepository) UpsertAlert(ctx context.Context, alert *models.StockAlert) (bool, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}

	query := `
		INSERT INTO stock_alerts (id, alert_type, warehouse_id, product_id, priority, message,
			current_quantity, threshold_quantity, is_resolved, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, FALSE, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM stock_alerts
			WHERE alert_type = $2
			  AND warehouse_id = $3
			  AND product_id IS NOT DISTINCT FROM $4
			  AND is_resolved = FALSE
		)
	`
	tag, err := r.pool.Exec(ctx, query,
		alert.ID, alert.Type, alert.WarehouseID, alert.ProductID, alert.Priority, alert.Message,
		alert.CurrentQuantity, alert.ThresholdQuantity,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ResolveAlerts closes open alerts of the given types for a warehouse/product
// pair, typically after replenishment.
func (r *InventoryRepository) ResolveAlerts(ctx context.Context, warehouseID uuid.UUID, productID uuid.UUID, types []string, notes string) (int64, error) {
	query := `
		UPDATE stock_alerts
		SET is_resolved = TRUE, resolution_notes = $4, updated_at = NOW()
		WHERE warehouse_id = $1
		  AND product_id IS NOT DISTINCT FROM $2
		  AND alert_type = ANY($3)
		  AND is_resolved = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, warehouseID, productID, types, notes)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *InventoryRepository) OpenAlertsByPriority(ctx context.Context, priorities []string) ([]models.StockAlert, error) {
	query := `
		SELECT id, alert_type, warehouse_id, product_id, priority, message,
		       current_quantity, threshold_quantity, is_resolved, resolution_notes,
		       created_at, updated_at
		FROM stock_alerts
		WHERE is_resolved = FALSE AND priority = ANY($1)
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, priorities)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.StockAlert
	for rows.Next() {
		var a models.StockAlert
		err := rows.Scan(&a.ID, &a.Type, &a.WarehouseID, &a.ProductID, &a.Priority, &a.Message,
			&a.CurrentQuantity, &a.ThresholdQuantity, &a.IsResolved, &a.ResolutionNotes,
			&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *InventoryRepository) DeleteResolvedAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM stock_alerts WHERE is_resolved = TRUE AND updated_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const transferColumns = `id, from_warehouse_id, to_warehouse_id, product_id, quantity,
	status, requested_at, approved_at, shipped_at, received_at, expected_delivery`

func collectTransfers(rows pgx.Rows) ([]models.InventoryTransfer, error) {
	defer rows.Close()
	var transfers []models.InventoryTransfer
	for rows.Next() {
		var t models.InventoryTransfer
		err := rows.Scan(&t.ID, &t.FromWarehouseID, &t.ToWarehouseID, &t.ProductID, &t.Quantity,
			&t.Status, &t.RequestedAt, &t.ApprovedAt, &t.ShippedAt, &t.ReceivedAt, &t.ExpectedDelivery)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func (r *InventoryRepository) TransfersDelayedApproval(ctx context.Context, cutoff time.Time) ([]models.InventoryTransfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM inventory_transfers
		WHERE status = 'requested' AND requested_at < $1
		ORDER BY requested_at`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

func (r *InventoryRepository) TransfersOverdueDelivery(ctx context.Context, now time.Time) ([]models.InventoryTransfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM inventory_transfers
		WHERE status = 'in_transit'
		  AND expected_delivery IS NOT NULL
		  AND expected_delivery < $1
		ORDER BY expected_delivery`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

const countColumns = `id, warehouse_id, status, scheduled_for, assigned_to, notes,
	created_at, completed_at, discrepancy_units, discrepancy_value`

func (r *InventoryRepository) LastStockCount(ctx context.Context, warehouseID uuid.UUID) (*models.StockCount, error) {
	query := `SELECT ` + countColumns + `
		FROM stock_counts WHERE warehouse_id = $1
		ORDER BY created_at DESC LIMIT 1`

	var c models.StockCount
	err := r.pool.QueryRow(ctx, query, warehouseID).Scan(
		&c.ID, &c.WarehouseID, &c.Status, &c.ScheduledFor, &c.AssignedTo, &c.Notes,
		&c.CreatedAt, &c.CompletedAt, &c.DiscrepancyUnits, &c.DiscrepancyValue,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *InventoryRepository) CreateStockCount(ctx context.Context, count *models.StockCount) error {
	if count.ID == uuid.Nil {
		count.ID = uuid.New()
	}
	if count.Status == "" {
		count.Status = models.CountScheduled
	}
	query := `
		INSERT INTO stock_counts (id, warehouse_id, status, scheduled_for, assigned_to, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		count.ID, count.WarehouseID, count.Status, count.ScheduledFor, count.AssignedTo, count.Notes,
	)
	return err
}

func (r *InventoryRepository) CompletedCountsSince(ctx context.Context, since time.Time) ([]models.StockCount, error) {
	query := `SELECT ` + countColumns + `
		FROM stock_counts
		WHERE status = 'completed' AND completed_at >= $1
		ORDER BY completed_at`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.StockCount
	for rows.Next() {
		var c models.StockCount
		err := rows.Scan(&c.ID, &c.WarehouseID, &c.Status, &c.ScheduledFor, &c.AssignedTo, &c.Notes,
			&c.CreatedAt, &c.CompletedAt, &c.DiscrepancyUnits, &c.DiscrepancyValue)
		if err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Valuation prices on-hand stock at product cost, falling back to list price
// where no cost is recorded.
func (r *InventoryRepository) Valuation(ctx context.Context) ([]models.WarehouseValuation, error) {
	query := `
		SELECT w.id, w.name,
		       COALESCE(SUM(ws.quantity), 0),
		       COALESCE(SUM(ws.quantity * COALESCE(p.cost_price, p.price)), 0)
		FROM warehouses w
		LEFT JOIN warehouse_stock ws ON ws.warehouse_id = w.id
		LEFT JOIN products p ON p.id = ws.product_id
		WHERE w.is_active = TRUE
		GROUP BY w.id, w.name
		ORDER BY w.name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.WarehouseValuation
	for rows.Next() {
		var v models.WarehouseValuation
		if err := rows.Scan(&v.WarehouseID, &v.WarehouseName, &v.TotalUnits, &v.TotalValue); err != nil {
			return nil, err
		}
		lines = append(lines, v)
	}
	return lines, rows.Err()
}

func (r *InventoryRepository) ReorderCandidates(ctx context.Context) ([]models.ReorderRecommendation, error) {
	query := `
		SELECT w.id, w.name, p.id, p.name,
		       ws.quantity - ws.reserved_quantity - ws.damaged_quantity,
		       ws.reorder_point,
		       ws.reorder_quantity
		FROM warehouse_stock ws
		JOIN warehouses w ON w.id = ws.warehouse_id
		JOIN products p ON p.id = ws.product_id
		WHERE w.is_active = TRUE
		  AND ws.reorder_point > 0
		  AND ws.quantity - ws.reserved_quantity - ws.damaged_quantity <= ws.reorder_point
		ORDER BY w.name, p.name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.ReorderRecommendation
	for rows.Next() {
		var rec models.ReorderRecommendation
		err := rows.Scan(&rec.WarehouseID, &rec.WarehouseName, &rec.ProductID, &rec.ProductName,
			&rec.Available, &rec.ReorderPoint, &rec.SuggestedQty)
		if err != nil {
			return nil, err
		}
		if rec.SuggestedQty <= 0 {
			rec.SuggestedQty = rec.ReorderPoint * 2
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *InventoryRepository) MovementsSince(ctx context.Context, since time.Time) ([]models.StockMovement, error) {
	query := `
		SELECT id, warehouse_id, product_id, movement_type, quantity, reference, performed_by, created_at
		FROM stock_movements
		WHERE created_at >= $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []models.StockMovement
	for rows.Next() {
		var m models.StockMovement
		err := rows.Scan(&m.ID, &m.WarehouseID, &m.ProductID, &m.Type, &m.Quantity, &m.Reference, &m.PerformedBy, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *InventoryRepository) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO stock_movements (id, warehouse_id, product_id, movement_type, quantity, reference, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.pool.Exec(ctx, query, m.ID, m.WarehouseID, m.ProductID, m.Type, m.Quantity, m.Reference, m.PerformedBy)
	return err
}
