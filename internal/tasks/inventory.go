package tasks

import (
	"context"

	"shopbackend/internal/queue"
	"shopbackend/internal/services"
)

func registerInventoryTasks(reg *queue.Registry, s *services.InventoryService) {
	reg.Register("inventory.tasks.monitor_stock_levels", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.MonitorStockLevels(ctx)
	})

	reg.Register("inventory.tasks.monitor_warehouse_capacity", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckWarehouseCapacity(ctx)
	})

	reg.Register("inventory.tasks.check_damaged_stock", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckDamagedStock(ctx)
	})

	reg.Register("inventory.tasks.monitor_pending_transfers", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckTransfers(ctx)
	})

	reg.Register("inventory.tasks.schedule_automatic_stock_counts", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.ScheduleStockCounts(ctx)
	})

	reg.Register("inventory.tasks.analyze_stock_count_discrepancies", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.AnalyzeCountDiscrepancies(ctx)
	})

	reg.Register("inventory.tasks.generate_inventory_valuation_report", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.ValuationReport(ctx)
	})

	reg.Register("inventory.tasks.generate_reorder_recommendations", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.ReorderRecommendations(ctx)
	})

	reg.Register("inventory.tasks.sync_product_stock_from_warehouses", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.SyncProductStock(ctx)
	})

	reg.Register("inventory.tasks.escalate_critical_alerts", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.EscalateCriticalAlerts(ctx)
	})

	reg.Register("inventory.tasks.cleanup_old_resolved_alerts", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CleanupResolvedAlerts(ctx)
	})

	reg.Register("inventory.tasks.detect_suspicious_movements", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.DetectSuspiciousMovements(ctx)
	})

	reg.Register("inventory.tasks.generate_movement_audit_report", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.MovementAuditReport(ctx)
	})

	reg.Register("inventory.tasks.analyze_stock_turnover", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.AnalyzeStockTurnover(ctx)
	})
}
