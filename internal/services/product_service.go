package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shopbackend/internal/mailer"
	"shopbackend/internal/models"
	"shopbackend/internal/queue"
	"shopbackend/internal/repositories"
)

const (
	// Out-of-stock products untouched this long get deactivated.
	staleOutOfStockAfter = 30 * 24 * time.Hour
	// Verified reviews rated at least this are auto-approved after the wait.
	reviewAutoApproveMinRating = 3
	reviewAutoApproveAfter     = 48 * time.Hour
	// Unapproved, unverified reviews older than this are treated as spam.
	spamReviewAfter = 30 * 24 * time.Hour
	// Discounts above this percentage are flagged as pricing anomalies.
	maxSaneDiscountPct = 70
	// Popularity scoring weights.
	popularityViewWeight   = 0.1
	popularitySalesWeight  = 2.0
	popularityRatingWeight = 10.0
	popularitySalesWindow  = 90 * 24 * time.Hour
)

type ProductService struct {
	products    repositories.ProductStore
	reviews     repositories.ReviewStore
	orders      repositories.OrderStore
	tasks       queue.Enqueuer
	mail        mailer.Mailer
	log         *logrus.Logger
	adminEmails []string
}

func NewProductService(
	products repositories.ProductStore,
	reviews repositories.ReviewStore,
	orders repositories.OrderStore,
	tasks queue.Enqueuer,
	mail mailer.Mailer,
	adminEmails []string,
	log *logrus.Logger,
) *ProductService {
	return &ProductService{
		products:    products,
		reviews:     reviews,
		orders:      orders,
		tasks:       tasks,
		mail:        mail,
		log:         log,
		adminEmails: adminEmails,
	}
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}

// GetBySlug also counts the view, asynchronously.
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil || product == nil {
		return product, err
	}
	if _, err := s.tasks.Delay(ctx, "products.tasks.record_view", product.ID.String()); err != nil {
		s.log.WithError(err).Debug("failed to enqueue view count")
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	return s.products.List(ctx, filter)
}

func (s *ProductService) RecordView(ctx context.Context, productID uuid.UUID) error {
	return s.products.IncrementViewCount(ctx, productID)
}

// SubmitReview creates a review, marking it verified when the customer has a
// delivered order containing the product.
func (s *ProductService) SubmitReview(ctx context.Context, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	purchased, err := s.orders.CustomerPurchasedProduct(ctx, review.CustomerID, review.ProductID)
	if err != nil {
		return err
	}
	review.IsVerifiedPurchase = purchased
	review.IsApproved = false
	return s.reviews.Create(ctx, review)
}

// CheckLowStock mails admins the catalog lines running low.
func (s *ProductService) CheckLowStock(ctx context.Context) (int, error) {
	products, err := s.products.FindLowStock(ctx)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 || len(s.adminEmails) == 0 {
		return len(products), nil
	}

	var lines strings.Builder
	for _, p := range products {
		fmt.Fprintf(&lines, "  %s (%s): %d left, threshold %d\n", p.Name, p.SKU, p.StockQuantity, p.LowStockThreshold)
	}
	body := fmt.Sprintf("%d products are low on stock:\n\n%s", len(products), lines.String())
	if err := s.mail.Send(ctx, s.adminEmails, "Low stock products", body); err != nil {
		return len(products), queue.Retry(err)
	}
	return len(products), nil
}

// CheckOutOfStock mails admins the products with zero stock.
func (s *ProductService) CheckOutOfStock(ctx context.Context) (int, error) {
	products, err := s.products.FindOutOfStock(ctx)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 || len(s.adminEmails) == 0 {
		return len(products), nil
	}

	var lines strings.Builder
	for _, p := range products {
		fmt.Fprintf(&lines, "  %s (%s), last movement %s\n", p.Name, p.SKU, p.UpdatedAt.Format("2006-01-02"))
	}
	body := fmt.Sprintf("%d products are out of stock:\n\n%s", len(products), lines.String())
	if err := s.mail.Send(ctx, s.adminEmails, "Out of stock products", body); err != nil {
		return len(products), queue.Retry(err)
	}
	return len(products), nil
}

// DeactivateStaleOutOfStock hides products out of stock for over 30 days
// that allow neither preorder nor backorder.
func (s *ProductService) DeactivateStaleOutOfStock(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-staleOutOfStockAfter)
	n, err := s.products.DeactivateOutOfStockBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("deactivated %d stale out-of-stock products", n)
	}
	return n, nil
}

// AutoApproveReviews approves verified-purchase reviews rated 3+ that have
// waited 48 hours without moderation.
func (s *ProductService) AutoApproveReviews(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-reviewAutoApproveAfter)
	n, err := s.reviews.ApproveVerifiedBefore(ctx, cutoff, reviewAutoApproveMinRating)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("auto-approved %d reviews", n)
	}
	return n, nil
}

// CleanupSpamReviews drops unapproved, unverified reviews older than 30 days.
func (s *ProductService) CleanupSpamReviews(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-spamReviewAfter)
	return s.reviews.DeleteUnapprovedBefore(ctx, cutoff)
}

// RecalculatePopularity rescores every active product from views, 90-day
// sales, and average approved rating.
func (s *ProductService) RecalculatePopularity(ctx context.Context) (int, error) {
	inputs, err := s.products.PopularityInputs(ctx, time.Now().UTC().Add(-popularitySalesWindow))
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, in := range inputs {
		score := float64(in.ViewCount)*popularityViewWeight +
			float64(in.UnitsSold)*popularitySalesWeight +
			in.AvgRating*popularityRatingWeight
		if err := s.products.UpdatePopularityScore(ctx, in.ProductID, score); err != nil {
			s.log.WithError(err).Errorf("popularity update failed for product %s", in.ProductID)
			continue
		}
		updated++
	}
	return updated, nil
}

// CheckPricingAnomalies mails admins the products with contradictory price
// fields.
func (s *ProductService) CheckPricingAnomalies(ctx context.Context) (int, error) {
	products, err := s.products.FindPricingAnomalies(ctx, maxSaneDiscountPct)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 || len(s.adminEmails) == 0 {
		return len(products), nil
	}

	var lines strings.Builder
	for _, p := range products {
		fmt.Fprintf(&lines, "  %s (%s): price %s", p.Name, p.SKU, models.KSh(p.Price))
		if p.SalePrice != nil {
			fmt.Fprintf(&lines, ", sale %s", models.KSh(*p.SalePrice))
		}
		if p.CostPrice != nil {
			fmt.Fprintf(&lines, ", cost %s", models.KSh(*p.CostPrice))
		}
		fmt.Fprintf(&lines, ", discount %.0f%%\n", p.DiscountPct)
	}
	body := fmt.Sprintf("%d products have suspicious pricing:\n\n%s", len(products), lines.String())
	if err := s.mail.Send(ctx, s.adminEmails, "Pricing anomalies", body); err != nil {
		return len(products), queue.Retry(err)
	}
	return len(products), nil
}

// ExpireFlashSales clears sale flags whose window has closed.
func (s *ProductService) ExpireFlashSales(ctx context.Context) (int64, error) {
	n, err := s.products.ExpireFlashSales(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("expired %d flash sales", n)
	}
	return n, nil
}

// CatalogReport mails the weekly catalog health summary.
func (s *ProductService) CatalogReport(ctx context.Context) (*repositories.CatalogSummary, error) {
	summary, err := s.products.CatalogSummary(ctx)
	if err != nil {
		return nil, err
	}
	if len(s.adminEmails) == 0 {
		return summary, nil
	}

	body := fmt.Sprintf(
		"Weekly catalog report\n\nActive products: %d\nOut of stock: %d\nLow stock: %d\nOn sale: %d\n",
		summary.Active, summary.OutOfStock, summary.LowStock, summary.OnSale,
	)
	if err := s.mail.Send(ctx, s.adminEmails, "Weekly catalog report", body); err != nil {
		return summary, queue.Retry(err)
	}
	return summary, nil
}
