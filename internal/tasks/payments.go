package tasks

import (
	"context"

	"shopbackend/internal/queue"
	"shopbackend/internal/services"
)

func registerPaymentTasks(reg *queue.Registry, s *services.PaymentService) {
	reg.Register("payments.tasks.process_mpesa_callback_task", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		callbackID, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		checkoutID, err := t.ArgString(1)
		if err != nil {
			return nil, err
		}
		resultCode, err := t.ArgInt(2)
		if err != nil {
			return nil, err
		}
		resultDesc, err := t.ArgString(3)
		if err != nil {
			return nil, err
		}
		receipt, err := t.ArgString(4)
		if err != nil {
			return nil, err
		}
		return nil, s.ProcessCallback(ctx, callbackID, checkoutID, resultCode, resultDesc, receipt)
	})

	reg.Register("payments.tasks.send_payment_confirmation_email", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.SendReceipt(ctx, id)
	})

	reg.Register("payments.tasks.send_payment_failed_notification", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.SendPaymentFailed(ctx, id)
	})

	reg.Register("payments.tasks.send_refund_notification", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.SendRefundNotification(ctx, id)
	})

	reg.Register("payments.tasks.check_pending_transactions", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckPendingTransactions(ctx)
	})

	reg.Register("payments.tasks.auto_timeout_stuck_transactions", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.TimeoutStuckTransactions(ctx)
	})

	reg.Register("payments.tasks.monitor_failed_payments", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.MonitorFailureRate(ctx)
	})

	reg.Register("payments.tasks.reconcile_daily_transactions", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return nil, s.ReconcileDaily(ctx)
	})

	reg.Register("payments.tasks.refresh_mpesa_access_tokens", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return nil, s.RefreshApiToken(ctx)
	})

	reg.Register("payments.tasks.cleanup_old_callbacks", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CleanupCallbacks(ctx)
	})
}
