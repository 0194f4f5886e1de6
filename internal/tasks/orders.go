package tasks

import (
	"context"

	"shopbackend/internal/queue"
	"shopbackend/internal/services"
)

func registerOrderTasks(reg *queue.Registry, s *services.OrderService) {
	reg.Register("orders.tasks.send_order_confirmation_email", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.SendConfirmation(ctx, id)
	})

	reg.Register("orders.tasks.update_order_status_task", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		status, err := t.ArgString(1)
		if err != nil {
			return nil, err
		}
		return nil, s.SendStatusUpdate(ctx, id, status)
	})

	reg.Register("orders.tasks.award_order_loyalty_points", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return s.AwardLoyaltyPoints(ctx, id)
	})

	reg.Register("orders.tasks.auto_confirm_paid_orders", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.AutoConfirmPaidOrders(ctx)
	})

	reg.Register("orders.tasks.auto_cancel_unpaid_orders", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.AutoCancelUnpaidOrders(ctx)
	})

	reg.Register("orders.tasks.check_delayed_orders", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckDelayedShipments(ctx)
	})

	reg.Register("orders.tasks.check_pending_orders", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		highValue, err := s.FlagHighValuePending(ctx)
		if err != nil {
			return nil, err
		}
		stuck, err := s.CheckStuckProcessing(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"high_value_pending": highValue, "stuck_processing": stuck}, nil
	})

	reg.Register("orders.tasks.sync_tracking_updates", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.SyncTrackingStatuses(ctx)
	})

	reg.Register("orders.tasks.generate_daily_order_report", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.DailyReport(ctx)
	})

	reg.Register("orders.tasks.cleanup_old_order_data", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CleanupStatusHistory(ctx)
	})
}
