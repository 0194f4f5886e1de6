package tasks

import (
	"context"

	"shopbackend/internal/queue"
	"shopbackend/internal/services"
)

func registerProductTasks(reg *queue.Registry, s *services.ProductService) {
	reg.Register("products.tasks.record_view", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		id, err := argUUID(t, 0)
		if err != nil {
			return nil, err
		}
		return nil, s.RecordView(ctx, id)
	})

	reg.Register("products.tasks.check_low_stock_products", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckLowStock(ctx)
	})

	reg.Register("products.tasks.check_out_of_stock_products", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckOutOfStock(ctx)
	})

	reg.Register("products.tasks.auto_deactivate_out_of_stock_products", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.DeactivateStaleOutOfStock(ctx)
	})

	reg.Register("products.tasks.auto_approve_verified_reviews", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.AutoApproveReviews(ctx)
	})

	reg.Register("products.tasks.cleanup_spam_reviews", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CleanupSpamReviews(ctx)
	})

	reg.Register("products.tasks.update_product_popularity_scores", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.RecalculatePopularity(ctx)
	})

	reg.Register("products.tasks.check_pricing_anomalies", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CheckPricingAnomalies(ctx)
	})

	reg.Register("products.tasks.auto_expire_flash_sales", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.ExpireFlashSales(ctx)
	})

	reg.Register("products.tasks.generate_product_performance_report", func(ctx context.Context, t *queue.Task) (interface{}, error) {
		return s.CatalogReport(ctx)
	})
}
