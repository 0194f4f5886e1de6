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
	// Unpaid pending orders are cancelled and restocked after this long.
	unpaidCancelAfter = 24 * time.Hour
	// Shipments undelivered this long after dispatch raise an admin alert.
	shipmentDelayAfter = 7 * 24 * time.Hour
	// Orders stuck in processing this long raise an admin alert.
	processingStuckAfter = 48 * time.Hour
	// Pending orders at or above this total get flagged for manual review.
	highValueThreshold = 50_000_00 // KSh 50,000 in cents
	// One loyalty point per 100 KSh of a delivered order.
	loyaltyPointUnit = 100_00
	// Status history rows older than this are purged.
	historyRetention = 180 * 24 * time.Hour
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// nextStatuses encodes the forward-only status machine; any non-terminal
// status can also move to cancelled.
var nextStatuses = map[string]string{
	models.OrderPending:        models.OrderConfirmed,
	models.OrderConfirmed:      models.OrderProcessing,
	models.OrderProcessing:     models.OrderShipped,
	models.OrderShipped:        models.OrderOutForDelivery,
	models.OrderOutForDelivery: models.OrderDelivered,
}

// ValidTransition reports whether an order may move from old to new.
func ValidTransition(oldStatus, newStatus string) bool {
	if oldStatus == newStatus {
		return false
	}
	if newStatus == models.OrderCancelled {
		return oldStatus != models.OrderDelivered && oldStatus != models.OrderCancelled
	}
	return nextStatuses[oldStatus] == newStatus
}

type OrderService struct {
	orders      repositories.OrderStore
	products    repositories.ProductStore
	customers   repositories.CustomerStore
	tasks       queue.Enqueuer
	mail        mailer.Mailer
	log         *logrus.Logger
	adminEmails []string
}

func NewOrderService(
	orders repositories.OrderStore,
	products repositories.ProductStore,
	customers repositories.CustomerStore,
	tasks queue.Enqueuer,
	mail mailer.Mailer,
	adminEmails []string,
	log *logrus.Logger,
) *OrderService {
	return &OrderService{
		orders:      orders,
		products:    products,
		customers:   customers,
		tasks:       tasks,
		mail:        mail,
		log:         log,
		adminEmails: adminEmails,
	}
}

// Create validates the lines against the catalog, captures current prices,
// decrements stock, and queues the confirmation mail.
func (s *OrderService) Create(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return errors.New("order has no items")
	}

	now := time.Now().UTC()
	var subtotal int64
	for i := range order.Items {
		item := &order.Items[i]
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsPublished(now) {
			return fmt.Errorf("product %s is not available", item.ProductID)
		}
		if !product.CanPurchase() {
			return fmt.Errorf("%s is out of stock", product.Name)
		}
		if product.MaxQuantityPerOrder != nil && item.Quantity > *product.MaxQuantityPerOrder {
			return fmt.Errorf("%s is limited to %d per order", product.Name, *product.MaxQuantityPerOrder)
		}

		item.ProductName = product.Name
		item.Price = product.CurrentPrice(now)
		subtotal += item.LineTotal()
	}

	order.Subtotal = subtotal
	order.Total = subtotal + order.ShippingCost
	order.Prepare()

	if err := s.orders.Create(ctx, order); err != nil {
		return err
	}

	for _, item := range order.Items {
		if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.log.WithError(err).Errorf("stock decrement failed for product %s on order %s", item.ProductID, order.OrderNumber)
		}
	}

	if _, err := s.tasks.Delay(ctx, "orders.tasks.send_order_confirmation_email", order.ID.String()); err != nil {
		s.log.WithError(err).Warn("failed to enqueue order confirmation")
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, limit, offset)
}

// UpdateStatus applies a transition, records history, notifies the customer,
// and chains the loyalty task on delivery.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string, changedBy *uuid.UUID, notes string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", orderID)
	}
	if !ValidTransition(order.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, newStatus, changedBy, notes); err != nil {
		return err
	}

	if newStatus == models.OrderCancelled {
		s.restock(ctx, order)
	}
	if newStatus == models.OrderDelivered && order.CustomerID != nil {
		if _, err := s.tasks.Delay(ctx, "orders.tasks.award_order_loyalty_points", order.ID.String()); err != nil {
			s.log.WithError(err).Warn("failed to enqueue loyalty task")
		}
	}

	if _, err := s.tasks.Delay(ctx, "orders.tasks.update_order_status_task", order.ID.String(), newStatus); err != nil {
		s.log.WithError(err).Warn("failed to enqueue status mail")
	}
	return nil
}

func (s *OrderService) restock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := s.products.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.WithError(err).Errorf("restock failed for product %s on order %s", item.ProductID, order.OrderNumber)
		}
	}
}

func (s *OrderService) contactEmail(ctx context.Context, order *models.Order) string {
	if order.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *order.CustomerID)
		if err == nil && customer != nil {
			return order.ContactEmail(customer.Email)
		}
	}
	return order.ContactEmail("")
}

// SendConfirmation mails the order summary to the buyer.
func (s *OrderService) SendConfirmation(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", orderID)
	}
	email := s.contactEmail(ctx, order)
	if email == "" {
		s.log.Warnf("order %s has no contact email", order.OrderNumber)
		return nil
	}

	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "  %dx %s — %s\n", item.Quantity, item.ProductName, models.KSh(item.LineTotal()))
	}
	body := fmt.Sprintf(
		"Thank you for your order %s!\n\n%s\nSubtotal: %s\nShipping: %s\nTotal: %s\n\nWe'll let you know when it ships.",
		order.OrderNumber, lines.String(), models.KSh(order.Subtotal), models.KSh(order.ShippingCost), models.KSh(order.Total),
	)
	if err := s.mail.Send(ctx, []string{email}, "Order confirmation "+order.OrderNumber, body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// SendStatusUpdate mails the buyer about a status change.
func (s *OrderService) SendStatusUpdate(ctx context.Context, orderID uuid.UUID, status string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("order %s not found", orderID)
	}
	email := s.contactEmail(ctx, order)
	if email == "" {
		return nil
	}

	body := fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, strings.ReplaceAll(status, "_", " "))
	if order.TrackingNumber != "" {
		body += fmt.Sprintf("\n\nTrack it with %s: %s", order.Carrier, order.TrackingNumber)
	}
	if err := s.mail.Send(ctx, []string{email}, "Order update "+order.OrderNumber, body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// AutoConfirmPaidOrders moves paid pending orders to confirmed. Returns the
// number confirmed.
func (s *OrderService) AutoConfirmPaidOrders(ctx context.Context) (int, error) {
	orders, err := s.orders.FindPendingPaid(ctx)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for _, order := range orders {
		err := s.orders.UpdateStatus(ctx, order.ID, models.OrderPending, models.OrderConfirmed, nil, "auto-confirmed after payment")
		if err != nil {
			if errors.Is(err, repositories.ErrStatusConflict) {
				continue
			}
			s.log.WithError(err).Errorf("auto-confirm failed for order %s", order.OrderNumber)
			continue
		}
		confirmed++
		if _, err := s.tasks.Delay(ctx, "orders.tasks.update_order_status_task", order.ID.String(), models.OrderConfirmed); err != nil {
			s.log.WithError(err).Warn("failed to enqueue status mail")
		}
	}
	if confirmed > 0 {
		s.log.Infof("auto-confirmed %d paid orders", confirmed)
	}
	return confirmed, nil
}

// AutoCancelUnpaidOrders cancels orders unpaid for over 24 hours and returns
// their stock to the catalog.
func (s *OrderService) AutoCancelUnpaidOrders(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-unpaidCancelAfter)
	orders, err := s.orders.FindUnpaidBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, order := range orders {
		err := s.orders.UpdateStatus(ctx, order.ID, models.OrderPending, models.OrderCancelled, nil, "auto-cancelled: unpaid for 24h")
		if err != nil {
			if errors.Is(err, repositories.ErrStatusConflict) {
				continue
			}
			s.log.WithError(err).Errorf("auto-cancel failed for order %s", order.OrderNumber)
			continue
		}
		full, err := s.orders.FindByID(ctx, order.ID)
		if err == nil && full != nil {
			s.restock(ctx, full)
		}
		cancelled++
		if _, err := s.tasks.Delay(ctx, "orders.tasks.update_order_status_task", order.ID.String(), models.OrderCancelled); err != nil {
			s.log.WithError(err).Warn("failed to enqueue status mail")
		}
	}
	if cancelled > 0 {
		s.log.Infof("auto-cancelled %d unpaid orders", cancelled)
	}
	return cancelled, nil
}

// AwardLoyaltyPoints grants 1 point per 100 KSh on a delivered order and
// queues the customer notification.
func (s *OrderService) AwardLoyaltyPoints(ctx context.Context, orderID uuid.UUID) (int, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, fmt.Errorf("order %s not found", orderID)
	}
	if order.Status != models.OrderDelivered || order.CustomerID == nil {
		return 0, nil
	}

	points := int(order.Total / loyaltyPointUnit)
	if points <= 0 {
		return 0, nil
	}
	if err := s.customers.AddLoyaltyPoints(ctx, *order.CustomerID, points); err != nil {
		return 0, err
	}
	if _, err := s.tasks.Delay(ctx, "customers.tasks.send_loyalty_points_notification",
		order.CustomerID.String(), points, order.OrderNumber); err != nil {
		s.log.WithError(err).Warn("failed to enqueue loyalty notification")
	}
	return points, nil
}

// CheckDelayedShipments alerts admins about orders shipped over seven days
// ago that are still undelivered.
func (s *OrderService) CheckDelayedShipments(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-shipmentDelayAfter)
	orders, err := s.orders.FindShippedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 || len(s.adminEmails) == 0 {
		return len(orders), nil
	}

	var lines strings.Builder
	for _, order := range orders {
		fmt.Fprintf(&lines, "  %s shipped %s (%s via %s)\n",
			order.OrderNumber, order.ShippedDate.Format("2006-01-02"), order.TrackingNumber, order.Carrier)
	}
	body := fmt.Sprintf("%d shipments are over 7 days old and undelivered:\n\n%s", len(orders), lines.String())
	if err := s.mail.Send(ctx, s.adminEmails, "Delayed shipments", body); err != nil {
		return len(orders), queue.Retry(err)
	}
	return len(orders), nil
}

// FlagHighValuePending alerts admins about pending orders worth manual review.
func (s *OrderService) FlagHighValuePending(ctx context.Context) (int, error) {
	orders, err := s.orders.FindHighValuePending(ctx, highValueThreshold)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 || len(s.adminEmails) == 0 {
		return len(orders), nil
	}

	var lines strings.Builder
	for _, order := range orders {
		fmt.Fprintf(&lines, "  %s — %s\n", order.OrderNumber, models.KSh(order.Total))
	}
	body := fmt.Sprintf("%d pending orders at or above %s:\n\n%s",
		len(orders), models.KSh(highValueThreshold), lines.String())
	if err := s.mail.Send(ctx, s.adminEmails, "High-value pending orders", body); err != nil {
		return len(orders), queue.Retry(err)
	}
	return len(orders), nil
}

// CheckStuckProcessing alerts admins about orders sitting in processing for
// over 48 hours.
func (s *OrderService) CheckStuckProcessing(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-processingStuckAfter)
	orders, err := s.orders.FindStuckProcessing(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 || len(s.adminEmails) == 0 {
		return len(orders), nil
	}

	var lines strings.Builder
	for _, order := range orders {
		fmt.Fprintf(&lines, "  %s since %s\n", order.OrderNumber, order.UpdatedAt.Format("2006-01-02 15:04"))
	}
	body := fmt.Sprintf("%d orders stuck in processing for over 48h:\n\n%s", len(orders), lines.String())
	if err := s.mail.Send(ctx, s.adminEmails, "Orders stuck in processing", body); err != nil {
		return len(orders), queue.Retry(err)
	}
	return len(orders), nil
}

// SyncTrackingStatuses advances shipped orders along the carrier timeline:
// shipped moves to out for delivery after two days, out for delivery to
// delivered after one more. Stands in for a real carrier API poll.
func (s *OrderService) SyncTrackingStatuses(ctx context.Context) (int, error) {
	orders, err := s.orders.FindWithActiveTracking(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	advanced := 0
	for _, order := range orders {
		if order.ShippedDate == nil {
			continue
		}
		age := now.Sub(*order.ShippedDate)

		var next string
		switch {
		case order.Status == models.OrderShipped && age > 2*24*time.Hour:
			next = models.OrderOutForDelivery
		case order.Status == models.OrderOutForDelivery && age > 3*24*time.Hour:
			next = models.OrderDelivered
		default:
			continue
		}

		if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next, nil, "tracking sync"); err != nil {
			if !errors.Is(err, repositories.ErrStatusConflict) {
				s.log.WithError(err).Errorf("tracking sync failed for order %s", order.OrderNumber)
			}
			continue
		}
		advanced++
		if next == models.OrderDelivered && order.CustomerID != nil {
			if _, err := s.tasks.Delay(ctx, "orders.tasks.award_order_loyalty_points", order.ID.String()); err != nil {
				s.log.WithError(err).Warn("failed to enqueue loyalty task")
			}
		}
		if _, err := s.tasks.Delay(ctx, "orders.tasks.update_order_status_task", order.ID.String(), next); err != nil {
			s.log.WithError(err).Warn("failed to enqueue status mail")
		}
	}
	return advanced, nil
}

// DailyReport mails yesterday's order summary to the admins.
func (s *OrderService) DailyReport(ctx context.Context) (*models.DailyOrderReport, error) {
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	report, err := s.orders.DailyReport(ctx, yesterday)
	if err != nil {
		return nil, err
	}
	if len(s.adminEmails) == 0 {
		return report, nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Order report for %s\n\n", report.Date)
	fmt.Fprintf(&body, "Orders: %d\nRevenue: %s\nAverage order: %s\n\n",
		report.TotalOrders, models.KSh(report.TotalRevenue), models.KSh(report.AverageValue))
	if len(report.ByStatus) > 0 {
		body.WriteString("By status:\n")
		for status, count := range report.ByStatus {
			fmt.Fprintf(&body, "  %s: %d\n", status, count)
		}
	}
	if len(report.TopProducts) > 0 {
		body.WriteString("\nTop products:\n")
		for _, line := range report.TopProducts {
			fmt.Fprintf(&body, "  %s — %d units, %s\n", line.ProductName, line.Quantity, models.KSh(line.Revenue))
		}
	}

	if err := s.mail.Send(ctx, s.adminEmails, "Daily order report "+report.Date, body.String()); err != nil {
		return report, queue.Retry(err)
	}
	return report, nil
}

// CleanupStatusHistory purges transition records older than the retention
// window.
func (s *OrderService) CleanupStatusHistory(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-historyRetention)
	return s.orders.DeleteHistoryBefore(ctx, cutoff)
}
