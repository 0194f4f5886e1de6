package tasks

import (
	"context"

	"shopbackend/internal/queue"
	"shopbackend/internal/services"
)

func registerCustomerTasks(reg *queue.Registry, s *services.CustomerService) {
	reg.Register("customers.tasks.send_welcome_email", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.SendWelcomeEmail(ctx, id)
	})

	reg.Register("customers.tasks.record_login", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.RecordLogin(ctx, id)
	})

	reg.Register("customers.tasks.send_password_reset_email_async", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		code, err := t.ArgString(1)
		if err != nil {
			return nil, err
		}
		return nil, s.SendPasswordResetEmail(ctx, id, code)
	})

	reg.Register("customers.tasks.send_loyalty_points_notification", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		points, err := t.ArgInt(1)
		if err != nil {
			return nil, err
		}
		orderNumber, err := t.ArgString(2)
		if err != nil {
			return nil, err
		}
		return nil, s.NotifyLoyaltyPoints(ctx, id, points, orderNumber)
	})

	reg.Register("customers.tasks.send_bulk_promotional_email", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		subject, err := t.ArgString(0)
		if err != nil {
			return nil, err
		}
		body, err := t.ArgString(1)
		if err != nil {
			return nil, err
		}
		return s.SendBulkPromotion(ctx, subject, body)
	})

	reg.Register("customers.tasks.check_inactive_customers", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.ReengageInactiveCustomers(ctx)
	})

	reg.Register("customers.tasks.cleanup_expired_reset_codes", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CleanupResetCodes(ctx)
	})

	reg.Register("customers.tasks.generate_customer_report", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.WeeklyReport(ctx)
	})

	reg.Register("customers.tasks.analyze_customer_engagement", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.AnalyzeEngagement(ctx)
	})
}
