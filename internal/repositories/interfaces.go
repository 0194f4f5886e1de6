package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopbackend/internal/models"
)

// Interfaces consumed by the service layer. The pgx implementations below
// satisfy them; tests substitute fakes.

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error
	FindInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Customer, error)
	ListActiveEmails(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, newSince time.Time) (*CustomerStats, error)
	Engagement(ctx context.Context, now time.Time) (*EngagementStats, error)

	CreateResetCode(ctx context.Context, code *models.PasswordResetCode) error
	FindValidResetCode(ctx context.Context, customerID uuid.UUID, code string, now time.Time) (*models.PasswordResetCode, error)
	MarkResetCodeUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
	DeleteUsedResetCodesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	SetStock(ctx context.Context, id uuid.UUID, quantity int) error

	FindLowStock(ctx context.Context) ([]models.Product, error)
	FindOutOfStock(ctx context.Context) ([]models.Product, error)
	DeactivateOutOfStockBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FindPricingAnomalies(ctx context.Context, maxDiscountPct float64) ([]models.Product, error)
	ExpireFlashSales(ctx context.Context, now time.Time) (int64, error)
	PopularityInputs(ctx context.Context, salesSince time.Time) ([]PopularityInput, error)
	UpdatePopularityScore(ctx context.Context, id uuid.UUID, score float64) error
	CatalogSummary(ctx context.Context) (*CatalogSummary, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]models.Review, error)
	ApproveVerifiedBefore(ctx context.Context, cutoff time.Time, minRating int) (int64, error)
	DeleteUnapprovedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	AverageRating(ctx context.Context, productID uuid.UUID) (float64, int, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, oldStatus, newStatus string, changedBy *uuid.UUID, notes string) error
	SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error
	SetTracking(ctx context.Context, orderID uuid.UUID, carrier, trackingNumber string) error

	FindPendingPaid(ctx context.Context) ([]models.Order, error)
	FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	FindShippedBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	FindHighValuePending(ctx context.Context, minTotal int64) ([]models.Order, error)
	FindStuckProcessing(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	FindWithActiveTracking(ctx context.Context) ([]models.Order, error)
	CustomerPurchasedProduct(ctx context.Context, customerID, productID uuid.UUID) (bool, error)
	DailyReport(ctx context.Context, day time.Time) (*models.DailyOrderReport, error)
	SumPaidOn(ctx context.Context, day time.Time) (int64, error)
	DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PaymentStore interface {
	CreateTransaction(ctx context.Context, t *models.MpesaTransaction) error
	UpdateTransaction(ctx context.Context, t *models.MpesaTransaction) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.MpesaTransaction, error)
	FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.MpesaTransaction, error)
	FindProcessingBefore(ctx context.Context, cutoff time.Time) ([]models.MpesaTransaction, error)
	CountsSince(ctx context.Context, since time.Time) (total int, failed int, err error)
	SumCompletedOn(ctx context.Context, day time.Time) (int64, error)

	CreateCallback(ctx context.Context, cb *models.MpesaCallback) error
	MarkCallbackProcessed(ctx context.Context, id uuid.UUID) error
	DeleteCallbacksBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CreateRefund(ctx context.Context, r *models.MpesaRefund) error
	FindRefundByID(ctx context.Context, id uuid.UUID) (*models.MpesaRefund, error)
}

type InventoryStore interface {
	ActiveWarehouses(ctx context.Context) ([]models.Warehouse, error)
	StocksByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.WarehouseStock, error)
	DamagedStocks(ctx context.Context) ([]models.WarehouseStock, error)
	WarehouseUsedCapacity(ctx context.Context, warehouseID uuid.UUID) (int, error)
	TotalStockByProduct(ctx context.Context) (map[uuid.UUID]int, error)

	UpsertAlert(ctx context.Context, alert *models.StockAlert) (bool, error)
	ResolveAlerts(ctx context.Context, warehouseID uuid.UUID, productID uuid.UUID, types []string, notes string) (int64, error)
	OpenAlertsByPriority(ctx context.Context, priorities []string) ([]models.StockAlert, error)
	DeleteResolvedAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	TransfersDelayedApproval(ctx context.Context, cutoff time.Time) ([]models.InventoryTransfer, error)
	TransfersOverdueDelivery(ctx context.Context, now time.Time) ([]models.InventoryTransfer, error)

	LastStockCount(ctx context.Context, warehouseID uuid.UUID) (*models.StockCount, error)
	CreateStockCount(ctx context.Context, count *models.StockCount) error
	CompletedCountsSince(ctx context.Context, since time.Time) ([]models.StockCount, error)

	Valuation(ctx context.Context) ([]models.WarehouseValuation, error)
	ReorderCandidates(ctx context.Context) ([]models.ReorderRecommendation, error)
	MovementsSince(ctx context.Context, since time.Time) ([]models.StockMovement, error)
	CreateMovement(ctx context.Context, m *models.StockMovement) error
}

// CustomerStats backs the weekly customer report.
type CustomerStats struct {
	Total          int   `json:"total"`
	Active         int   `json:"active"`
	NewInPeriod    int   `json:"new_in_period"`
	WithLoyalty    int   `json:"with_loyalty_points"`
	LoyaltyBalance int64 `json:"total_loyalty_points"`
}

// EngagementStats buckets active customers by login recency for the monthly
// engagement report.
type EngagementStats struct {
	TotalActive  int `json:"total_active"`
	ActiveLast30 int `json:"active_last_30_days"`
	ActiveLast60 int `json:"active_last_60_days"`
	ActiveLast90 int `json:"active_last_90_days"`
	NeverLogged  int `json:"never_logged_in"`
}

// ProductFilter narrows the catalog listing.
type ProductFilter struct {
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	InStockOnly bool
	Limit       int
	Offset      int
}

// PopularityInput feeds the popularity score recalculation.
type PopularityInput struct {
	ProductID uuid.UUID
	ViewCount int
	UnitsSold int
	AvgRating float64
}

// CatalogSummary backs the product performance report.
type CatalogSummary struct {
	Active     int `json:"active"`
	OutOfStock int `json:"out_of_stock"`
	OnSale     int `json:"on_sale"`
	LowStock   int `json:"low_stock"`
}
