package services

import (
	"context"
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
	// Warehouses above this fill ratio raise a capacity alert.
	capacityAlertRatio = 0.90
	// Transfers awaiting approval longer than this are flagged.
	transferApprovalDelay = 48 * time.Hour
	// Each warehouse gets a cycle count at least this often.
	stockCountInterval = 90 * 24 * time.Hour
	// Count discrepancies above this many units get reported.
	discrepancyUnitThreshold = 10
	// Resolved alerts are purged after this long.
	resolvedAlertRetention = 30 * 24 * time.Hour
	// Single adjustments larger than this show up in the movement audit.
	movementAuditThreshold = 100
	// Stock with no outbound movement for this long counts as slow-moving.
	turnoverWindow = 30 * 24 * time.Hour
)

type InventoryService struct {
	inventory   repositories.InventoryStore
	products    repositories.ProductStore
	tasks       queue.Enqueuer
	mail        mailer.Mailer
	log         *logrus.Logger
	adminEmails []string
}

func NewInventoryService(
	inventory repositories.InventoryStore,
	products repositories.ProductStore,
	tasks queue.Enqueuer,
	mail mailer.Mailer,
	adminEmails []string,
	log *logrus.Logger,
) *InventoryService {
	return &InventoryService{
		inventory:   inventory,
		products:    products,
		tasks:       tasks,
		mail:        mail,
		log:         log,
		adminEmails: adminEmails,
	}
}

// MonitorStockLevels walks every active warehouse and keeps the stock alerts
// in sync: out-of-stock is critical, at-or-below reorder point is high,
// overstock is low. Replenished lines get their open shortage alerts
// resolved. Returns the number of alerts created.
func (s *InventoryService) MonitorStockLevels(ctx context.Context) (int, error) {
	warehouses, err := s.inventory.ActiveWarehouses(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, warehouse := range warehouses {
		stocks, err := s.inventory.StocksByWarehouse(ctx, warehouse.ID)
		if err != nil {
			return created, err
		}
		for i := range stocks {
			stock := &stocks[i]
			n, err := s.evaluateStock(ctx, &warehouse, stock)
			if err != nil {
				s.log.WithError(err).Errorf("stock evaluation failed for warehouse %s product %s",
					warehouse.Code, stock.ProductID)
				continue
			}
			created += n
		}
	}
	if created > 0 {
		s.log.Infof("stock monitor created %d alerts", created)
	}
	return created, nil
}

func (s *InventoryService) evaluateStock(ctx context.Context, warehouse *models.Warehouse, stock *models.WarehouseStock) (int, error) {
	available := stock.Available()
	created := 0

	switch {
	case stock.Quantity == 0:
		ok, err := s.inventory.UpsertAlert(ctx, &models.StockAlert{
			Type:              models.AlertOutOfStock,
			WarehouseID:       warehouse.ID,
			ProductID:         &stock.ProductID,
			Priority:          models.PriorityCritical,
			Message:           fmt.Sprintf("product out of stock at %s", warehouse.Name),
			CurrentQuantity:   stock.Quantity,
			ThresholdQuantity: 0,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}

	case stock.NeedsReorder():
		ok, err := s.inventory.UpsertAlert(ctx, &models.StockAlert{
			Type:              models.AlertLowStock,
			WarehouseID:       warehouse.ID,
			ProductID:         &stock.ProductID,
			Priority:          models.PriorityHigh,
			Message:           fmt.Sprintf("available stock %d at or below reorder point %d at %s", available, stock.ReorderPoint, warehouse.Name),
			CurrentQuantity:   available,
			ThresholdQuantity: stock.ReorderPoint,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}

	default:
		// Healthy again: close any open shortage alerts for this line.
		resolved, err := s.inventory.ResolveAlerts(ctx, warehouse.ID, stock.ProductID,
			[]string{models.AlertOutOfStock, models.AlertLowStock}, "stock replenished")
		if err != nil {
			return created, err
		}
		if resolved > 0 {
			s.log.Debugf("resolved %d shortage alerts for product %s at %s", resolved, stock.ProductID, warehouse.Code)
		}
	}

	if stock.IsOverstocked() {
		ok, err := s.inventory.UpsertAlert(ctx, &models.StockAlert{
			Type:              models.AlertOverstock,
			WarehouseID:       warehouse.ID,
			ProductID:         &stock.ProductID,
			Priority:          models.PriorityLow,
			Message:           fmt.Sprintf("stock %d exceeds 3x reorder quantity %d at %s", stock.Quantity, stock.ReorderQuantity, warehouse.Name),
			CurrentQuantity:   stock.Quantity,
			ThresholdQuantity: stock.ReorderQuantity * 3,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// CheckWarehouseCapacity raises an alert for warehouses filled past 90%.
func (s *InventoryService) CheckWarehouseCapacity(ctx context.Context) (int, error) {
	warehouses, err := s.inventory.ActiveWarehouses(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, warehouse := range warehouses {
		if warehouse.Capacity <= 0 {
			continue
		}
		used, err := s.inventory.WarehouseUsedCapacity(ctx, warehouse.ID)
		if err != nil {
			return created, err
		}
		ratio := float64(used) / float64(warehouse.Capacity)
		if ratio < capacityAlertRatio {
			continue
		}
		ok, err := s.inventory.UpsertAlert(ctx, &models.StockAlert{
			Type:              models.AlertCapacity,
			WarehouseID:       warehouse.ID,
			Priority:          models.PriorityHigh,
			Message:           fmt.Sprintf("%s is at %.0f%% capacity (%d of %d units)", warehouse.Name, ratio*100, used, warehouse.Capacity),
			CurrentQuantity:   used,
			ThresholdQuantity: warehouse.Capacity,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// CheckDamagedStock alerts on any line with damaged units recorded.
func (s *InventoryService) CheckDamagedStock(ctx context.Context) (int, error) {
	stocks, err := s.inventory.DamagedStocks(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range stocks {
		stock := &stocks[i]
		ok, err := s.inventory.UpsertAlert(ctx, &models.StockAlert{
			Type:            models.AlertDamaged,
			WarehouseID:     stock.WarehouseID,
			ProductID:       &stock.ProductID,
			Priority:        models.PriorityMedium,
			Message:         fmt.Sprintf("%d damaged units recorded", stock.DamagedQty),
			CurrentQuantity: stock.DamagedQty,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// CheckTransfers mails admins about transfers waiting too long for approval
// and in-transit transfers past their expected delivery.
func (s *InventoryService) CheckTransfers(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	delayed, err := s.inventory.TransfersDelayedApproval(ctx, now.Add(-transferApprovalDelay))
	if err != nil {
		return 0, err
	}
	overdue, err := s.inventory.TransfersOverdueDelivery(ctx, now)
	if err != nil {
		return 0, err
	}

	flagged := len(delayed) + len(overdue)
	if flagged == 0 || len(s.adminEmails) == 0 {
		return flagged, nil
	}

	var body strings.Builder
	if len(delayed) > 0 {
		fmt.Fprintf(&body, "%d transfers awaiting approval for over 48h:\n", len(delayed))
		for _, t := range delayed {
			fmt.Fprintf(&body, "  %s: %d units, requested %s\n", t.ID, t.Quantity, t.RequestedAt.Format("2006-01-02"))
		}
		body.WriteString("\n")
	}
	if len(overdue) > 0 {
		fmt.Fprintf(&body, "%d transfers past expected delivery:\n", len(overdue))
		for _, t := range overdue {
			fmt.Fprintf(&body, "  %s: %d units, expected %s\n", t.ID, t.Quantity, t.ExpectedDelivery.Format("2006-01-02"))
		}
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Inventory transfers need attention", body.String()); err != nil {
		return flagged, queue.Retry(err)
	}
	return flagged, nil
}

// ScheduleStockCounts books a cycle count for every warehouse whose last
// count is older than the quarterly interval (or that has never been
// counted). New counts are scheduled a week out.
func (s *InventoryService) ScheduleStockCounts(ctx context.Context) (int, error) {
	warehouses, err := s.inventory.ActiveWarehouses(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	scheduled := 0
	for _, warehouse := range warehouses {
		last, err := s.inventory.LastStockCount(ctx, warehouse.ID)
		if err != nil {
			return scheduled, err
		}
		if last != nil {
			if last.Status != models.CountCompleted {
				continue // one already pending
			}
			if last.CompletedAt != nil && now.Sub(*last.CompletedAt) < stockCountInterval {
				continue
			}
		}
		count := &models.StockCount{
			WarehouseID:  warehouse.ID,
			Status:       models.CountScheduled,
			ScheduledFor: now.Add(7 * 24 * time.Hour),
			Notes:        "quarterly cycle count",
		}
		if err := s.inventory.CreateStockCount(ctx, count); err != nil {
			return scheduled, err
		}
		scheduled++
	}
	if scheduled > 0 {
		s.log.Infof("scheduled %d stock counts", scheduled)
	}
	return scheduled, nil
}

// AnalyzeCountDiscrepancies reports completed counts from the last week with
// discrepancies above the unit threshold.
func (s *InventoryService) AnalyzeCountDiscrepancies(ctx context.Context) (int, error) {
	counts, err := s.inventory.CompletedCountsSince(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		return 0, err
	}

	var flagged []models.StockCount
	for _, count := range counts {
		units := count.DiscrepancyUnits
		if units < 0 {
			units = -units
		}
		if units > discrepancyUnitThreshold {
			flagged = append(flagged, count)
		}
	}
	if len(flagged) == 0 || len(s.adminEmails) == 0 {
		return len(flagged), nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d stock counts with significant discrepancies:\n\n", len(flagged))
	for _, count := range flagged {
		fmt.Fprintf(&body, "  warehouse %s: %+d units (%s)\n",
			count.WarehouseID, count.DiscrepancyUnits, models.KSh(count.DiscrepancyValue))
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Stock count discrepancies", body.String()); err != nil {
		return len(flagged), queue.Retry(err)
	}
	return len(flagged), nil
}

// ValuationReport mails the weekly inventory valuation.
func (s *InventoryService) ValuationReport(ctx context.Context) ([]models.WarehouseValuation, error) {
	lines, err := s.inventory.Valuation(ctx)
	if err != nil {
		return nil, err
	}
	if len(s.adminEmails) == 0 {
		return lines, nil
	}

	var body strings.Builder
	body.WriteString("Inventory valuation by warehouse:\n\n")
	var totalUnits int
	var totalValue int64
	for _, line := range lines {
		fmt.Fprintf(&body, "  %s: %d units, %s\n", line.WarehouseName, line.TotalUnits, models.KSh(line.TotalValue))
		totalUnits += line.TotalUnits
		totalValue += line.TotalValue
	}
	fmt.Fprintf(&body, "\nTotal: %d units, %s\n", totalUnits, models.KSh(totalValue))

	if err := s.mail.Send(ctx, s.adminEmails, "Weekly inventory valuation", body.String()); err != nil {
		return lines, queue.Retry(err)
	}
	return lines, nil
}

// ReorderRecommendations mails the purchasing list: every line at or below
// its reorder point with the suggested order quantity.
func (s *InventoryService) ReorderRecommendations(ctx context.Context) (int, error) {
	recs, err := s.inventory.ReorderCandidates(ctx)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 || len(s.adminEmails) == 0 {
		return len(recs), nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d lines need reordering:\n\n", len(recs))
	for _, rec := range recs {
		fmt.Fprintf(&body, "  %s @ %s: %d available (reorder point %d), suggest ordering %d\n",
			rec.ProductName, rec.WarehouseName, rec.Available, rec.ReorderPoint, rec.SuggestedQty)
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Reorder recommendations", body.String()); err != nil {
		return len(recs), queue.Retry(err)
	}
	return len(recs), nil
}

// SyncProductStock writes warehouse totals back to the catalog's per-product
// stock quantity. Products with no warehouse rows are left alone.
func (s *InventoryService) SyncProductStock(ctx context.Context) (int, error) {
	totals, err := s.inventory.TotalStockByProduct(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for productID, total := range totals {
		if err := s.products.SetStock(ctx, productID, total); err != nil {
			s.log.WithError(err).Errorf("stock sync failed for product %s", productID)
			continue
		}
		synced++
	}
	return synced, nil
}

// EscalateCriticalAlerts mails admins the open critical and high alerts.
func (s *InventoryService) EscalateCriticalAlerts(ctx context.Context) (int, error) {
	alerts, err := s.inventory.OpenAlertsByPriority(ctx, []string{models.PriorityCritical, models.PriorityHigh})
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 || len(s.adminEmails) == 0 {
		return len(alerts), nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d open critical/high stock alerts:\n\n", len(alerts))
	for _, alert := range alerts {
		fmt.Fprintf(&body, "  [%s] %s: %s (since %s)\n",
			alert.Priority, alert.Type, alert.Message, alert.CreatedAt.Format("2006-01-02"))
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Open stock alerts", body.String()); err != nil {
		return len(alerts), queue.Retry(err)
	}
	return len(alerts), nil
}

// CleanupResolvedAlerts purges resolved alerts past retention.
func (s *InventoryService) CleanupResolvedAlerts(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-resolvedAlertRetention)
	return s.inventory.DeleteResolvedAlertsBefore(ctx, cutoff)
}

// DetectSuspiciousMovements reports unusually large adjustments from the
// last day.
func (s *InventoryService) DetectSuspiciousMovements(ctx context.Context) (int, error) {
	movements, err := s.inventory.MovementsSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return 0, err
	}

	var suspicious []models.StockMovement
	for _, m := range movements {
		qty := m.Quantity
		if qty < 0 {
			qty = -qty
		}
		if m.Type == models.MovementAdjustment && qty > movementAuditThreshold {
			suspicious = append(suspicious, m)
		}
	}
	if len(suspicious) == 0 || len(s.adminEmails) == 0 {
		return len(suspicious), nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d large manual adjustments in the last 24h:\n\n", len(suspicious))
	for _, m := range suspicious {
		by := "unknown"
		if m.PerformedBy != nil {
			by = m.PerformedBy.String()
		}
		fmt.Fprintf(&body, "  %+d units of product %s at warehouse %s by %s (%s)\n",
			m.Quantity, m.ProductID, m.WarehouseID, by, m.Reference)
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Stock movement audit", body.String()); err != nil {
		return len(suspicious), queue.Retry(err)
	}
	return len(suspicious), nil
}

// MovementAuditReport mails admins a weekly summary of stock movement volume
// broken down by movement type.
func (s *InventoryService) MovementAuditReport(ctx context.Context) (int, error) {
	movements, err := s.inventory.MovementsSince(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		return 0, err
	}
	if len(s.adminEmails) == 0 {
		return len(movements), nil
	}

	byType := map[string]int{}
	units := map[string]int{}
	for _, m := range movements {
		qty := m.Quantity
		if qty < 0 {
			qty = -qty
		}
		byType[m.Type]++
		units[m.Type] += qty
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Stock movements recorded in the last 7 days: %d\n\n", len(movements))
	for _, movementType := range []string{models.MovementIn, models.MovementOut, models.MovementTransfer, models.MovementAdjustment} {
		if byType[movementType] == 0 {
			continue
		}
		fmt.Fprintf(&body, "  %s: %d movements, %d units\n", movementType, byType[movementType], units[movementType])
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Weekly stock movement report", body.String()); err != nil {
		return len(movements), queue.Retry(err)
	}
	return len(movements), nil
}

// AnalyzeStockTurnover flags slow movers: products holding stock with no
// outbound movement in the last 30 days. Returns how many were flagged.
func (s *InventoryService) AnalyzeStockTurnover(ctx context.Context) (int, error) {
	movements, err := s.inventory.MovementsSince(ctx, time.Now().UTC().Add(-turnoverWindow))
	if err != nil {
		return 0, err
	}
	totals, err := s.inventory.TotalStockByProduct(ctx)
	if err != nil {
		return 0, err
	}

	outbound := map[uuid.UUID]int{}
	for _, m := range movements {
		if m.Type == models.MovementOut {
			qty := m.Quantity
			if qty < 0 {
				qty = -qty
			}
			outbound[m.ProductID] += qty
		}
	}

	var slow []uuid.UUID
	for productID, stock := range totals {
		if stock > 0 && outbound[productID] == 0 {
			slow = append(slow, productID)
		}
	}
	if len(slow) == 0 || len(s.adminEmails) == 0 {
		return len(slow), nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d products had stock but no outbound movement in the last 30 days:\n\n", len(slow))
	for _, productID := range slow {
		fmt.Fprintf(&body, "  product %s: %d units idle\n", productID, totals[productID])
	}
	if err := s.mail.Send(ctx, s.adminEmails, "Slow-moving stock", body.String()); err != nil {
		return len(slow), queue.Retry(err)
	}
	return len(slow), nil
}

// RecordMovement writes an audit row for a stock change.
func (s *InventoryService) RecordMovement(ctx context.Context, warehouseID, productID uuid.UUID, movementType string, quantity int, reference string, performedBy *uuid.UUID) error {
	return s.inventory.CreateMovement(ctx, &models.StockMovement{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Type:        movementType,
		Quantity:    quantity,
		Reference:   reference,
		PerformedBy: performedBy,
	})
}
