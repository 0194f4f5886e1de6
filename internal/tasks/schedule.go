package tasks

import "shopbackend/internal/queue"

// Schedule is the production beat schedule. Specs are standard 5-field cron
// expressions evaluated in UTC; entry names and cadences follow the upstream
// deployment, with escalate-critical-alerts and auto-expire-flash-sales as
// local additions.
func Schedule() []queue.ScheduleEntry {
	return []queue.ScheduleEntry{
		// Customers.
		{Name: "cleanup-expired-reset-codes", Task: "customers.tasks.cleanup_expired_reset_codes", Spec: "0 0 * * *"},
		{Name: "generate-customer-report", Task: "customers.tasks.generate_customer_report", Spec: "0 9 * * 1"},
		{Name: "check-inactive-customers", Task: "customers.tasks.check_inactive_customers", Spec: "0 10 * * 0"},
		{Name: "analyze-customer-engagement", Task: "customers.tasks.analyze_customer_engagement", Spec: "0 8 1 * *"},

		// Inventory.
		{Name: "monitor-stock-levels", Task: "inventory.tasks.monitor_stock_levels", Spec: "*/30 * * * *"},
		{Name: "check-damaged-stock", Task: "inventory.tasks.check_damaged_stock", Spec: "0 9 * * *"},
		{Name: "monitor-warehouse-capacity", Task: "inventory.tasks.monitor_warehouse_capacity", Spec: "0 */6 * * *"},
		{Name: "monitor-pending-transfers", Task: "inventory.tasks.monitor_pending_transfers", Spec: "0 */2 * * *"},
		{Name: "schedule-automatic-stock-counts", Task: "inventory.tasks.schedule_automatic_stock_counts", Spec: "0 8 * * 1"},
		{Name: "analyze-stock-count-discrepancies", Task: "inventory.tasks.analyze_stock_count_discrepancies", Spec: "0 10 * * 0"},
		{Name: "generate-inventory-valuation-report", Task: "inventory.tasks.generate_inventory_valuation_report", Spec: "0 23 * * *"},
		{Name: "generate-reorder-recommendations", Task: "inventory.tasks.generate_reorder_recommendations", Spec: "0 9 * * *"},
		{Name: "analyze-stock-turnover", Task: "inventory.tasks.analyze_stock_turnover", Spec: "0 11 * * 0"},
		{Name: "detect-suspicious-movements", Task: "inventory.tasks.detect_suspicious_movements", Spec: "0 8 * * *"},
		{Name: "generate-movement-audit-report", Task: "inventory.tasks.generate_movement_audit_report", Spec: "0 10 * * 1"},
		{Name: "cleanup-old-resolved-alerts", Task: "inventory.tasks.cleanup_old_resolved_alerts", Spec: "0 3 1 * *"},
		{Name: "sync-product-stock-from-warehouses", Task: "inventory.tasks.sync_product_stock_from_warehouses", Spec: "0 */6 * * *"},
		{Name: "escalate-critical-alerts", Task: "inventory.tasks.escalate_critical_alerts", Spec: "0 */2 * * *"},

		// Orders.
		{Name: "auto-confirm-paid-orders", Task: "orders.tasks.auto_confirm_paid_orders", Spec: "*/5 * * * *"},
		{Name: "auto-cancel-unpaid-orders", Task: "orders.tasks.auto_cancel_unpaid_orders", Spec: "0 2 * * *"},
		{Name: "check-delayed-orders", Task: "orders.tasks.check_delayed_orders", Spec: "0 9 * * *"},
		{Name: "check-pending-orders", Task: "orders.tasks.check_pending_orders", Spec: "0 * * * *"},
		{Name: "sync-tracking-updates", Task: "orders.tasks.sync_tracking_updates", Spec: "0 */6 * * *"},
		{Name: "generate-daily-order-report", Task: "orders.tasks.generate_daily_order_report", Spec: "0 23 * * *"},
		{Name: "cleanup-old-order-data", Task: "orders.tasks.cleanup_old_order_data", Spec: "0 3 * * 0"},

		// Payments.
		{Name: "check-pending-mpesa-transactions", Task: "payments.tasks.check_pending_transactions", Spec: "*/5 * * * *"},
		{Name: "auto-timeout-stuck-transactions", Task: "payments.tasks.auto_timeout_stuck_transactions", Spec: "0 * * * *"},
		{Name: "monitor-failed-payments", Task: "payments.tasks.monitor_failed_payments", Spec: "30 * * * *"},
		{Name: "reconcile-daily-mpesa-transactions", Task: "payments.tasks.reconcile_daily_transactions", Spec: "30 23 * * *"},
		{Name: "cleanup-old-mpesa-callbacks", Task: "payments.tasks.cleanup_old_callbacks", Spec: "0 2 * * 0"},
		{Name: "refresh-mpesa-access-tokens", Task: "payments.tasks.refresh_mpesa_access_tokens", Spec: "*/50 * * * *"},

		// Products.
		{Name: "check-low-stock-products", Task: "products.tasks.check_low_stock_products", Spec: "0 * * * *"},
		{Name: "check-out-of-stock-products", Task: "products.tasks.check_out_of_stock_products", Spec: "0 */2 * * *"},
		{Name: "auto-deactivate-out-of-stock", Task: "products.tasks.auto_deactivate_out_of_stock_products", Spec: "0 3 * * 1"},
		{Name: "auto-approve-verified-reviews", Task: "products.tasks.auto_approve_verified_reviews", Spec: "0 2 * * *"},
		{Name: "cleanup-spam-reviews", Task: "products.tasks.cleanup_spam_reviews", Spec: "0 3 * * 0"},
		{Name: "generate-product-performance-report", Task: "products.tasks.generate_product_performance_report", Spec: "0 23 * * *"},
		{Name: "update-product-popularity-scores", Task: "products.tasks.update_product_popularity_scores", Spec: "0 4 * * *"},
		{Name: "check-pricing-anomalies", Task: "products.tasks.check_pricing_anomalies", Spec: "0 9 * * *"},
		{Name: "auto-expire-flash-sales", Task: "products.tasks.auto_expire_flash_sales", Spec: "*/10 * * * *"},
	}
}
