package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/models"
)

func newInventoryService(inventory *fakeInventory, products *fakeProducts, tasks *fakeQueue, mail *fakeMailer) *InventoryService {
	return NewInventoryService(inventory, products, tasks, mail, []string{"ops@example.com"}, testLogger())
}

func alertTypes(alerts []*models.StockAlert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Type
	}
	return out
}

func TestMonitorStockLevelsOutOfStock(t *testing.T) {
	inventory := newFakeInventory()
	warehouse := models.Warehouse{ID: uuid.New(), Code: "NBO", Name: "Nairobi", IsActive: true}
	inventory.warehouses = []models.Warehouse{warehouse}
	inventory.stocks[warehouse.ID] = []models.WarehouseStock{
		{WarehouseID: warehouse.ID, ProductID: uuid.New(), Quantity: 0},
	}
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, &fakeMailer{})

	created, err := svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, inventory.alerts, 1)
	assert.Equal(t, models.AlertOutOfStock, inventory.alerts[0].Type)
	assert.Equal(t, models.PriorityCritical, inventory.alerts[0].Priority)
}

func TestMonitorStockLevelsLowStock(t *testing.T) {
	inventory := newFakeInventory()
	warehouse := models.Warehouse{ID: uuid.New(), Code: "NBO", Name: "Nairobi", IsActive: true}
	inventory.warehouses = []models.Warehouse{warehouse}
	inventory.stocks[warehouse.ID] = []models.WarehouseStock{
		// Available 10-2-1 = 7, at reorder point 8.
		{WarehouseID: warehouse.ID, ProductID: uuid.New(), Quantity: 10, ReservedQty: 2, DamagedQty: 1, ReorderPoint: 8},
	}
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, &fakeMailer{})

	created, err := svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, inventory.alerts, 1)
	assert.Equal(t, models.AlertLowStock, inventory.alerts[0].Type)
	assert.Equal(t, models.PriorityHigh, inventory.alerts[0].Priority)
	assert.Equal(t, 7, inventory.alerts[0].CurrentQuantity)
}

func TestMonitorStockLevelsOverstock(t *testing.T) {
	inventory := newFakeInventory()
	warehouse := models.Warehouse{ID: uuid.New(), Code: "NBO", Name: "Nairobi", IsActive: true}
	inventory.warehouses = []models.Warehouse{warehouse}
	inventory.stocks[warehouse.ID] = []models.WarehouseStock{
		// 100 on hand, 3x reorder quantity is 60.
		{WarehouseID: warehouse.ID, ProductID: uuid.New(), Quantity: 100, ReorderPoint: 10, ReorderQuantity: 20},
	}
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, &fakeMailer{})

	created, err := svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, []string{models.AlertOverstock}, alertTypes(inventory.alerts))
	assert.Equal(t, models.PriorityLow, inventory.alerts[0].Priority)
}

func TestMonitorStockLevelsDeduplicatesAlerts(t *testing.T) {
	inventory := newFakeInventory()
	warehouse := models.Warehouse{ID: uuid.New(), Code: "NBO", Name: "Nairobi", IsActive: true}
	inventory.warehouses = []models.Warehouse{warehouse}
	inventory.stocks[warehouse.ID] = []models.WarehouseStock{
		{WarehouseID: warehouse.ID, ProductID: uuid.New(), Quantity: 0},
	}
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, &fakeMailer{})

	created, err := svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Second sweep finds the same condition but the alert already exists.
	created, err = svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, inventory.alerts, 1)
}

func TestMonitorStockLevelsResolvesOnReplenish(t *testing.T) {
	inventory := newFakeInventory()
	warehouse := models.Warehouse{ID: uuid.New(), Code: "NBO", Name: "Nairobi", IsActive: true}
	productID := uuid.New()
	inventory.warehouses = []models.Warehouse{warehouse}
	inventory.stocks[warehouse.ID] = []models.WarehouseStock{
		{WarehouseID: warehouse.ID, ProductID: productID, Quantity: 0},
	}
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, &fakeMailer{})

	_, err := svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	require.Len(t, inventory.alerts, 1)

	// Replenished well above the reorder point.
	inventory.stocks[warehouse.ID] = []models.WarehouseStock{
		{WarehouseID: warehouse.ID, ProductID: productID, Quantity: 50, ReorderPoint: 10},
	}
	created, err := svc.MonitorStockLevels(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.True(t, inventory.alerts[0].IsResolved, "shortage alert closed after replenishment")
}

func TestCheckWarehouseCapacity(t *testing.T) {
	inventory := newFakeInventory()
	full := models.Warehouse{ID: uuid.New(), Name: "Nairobi", Capacity: 1000, IsActive: true}
	roomy := models.Warehouse{ID: uuid.New(), Name: "Mombasa", Capacity: 1000, IsActive: true}
	unlimited := models.Warehouse{ID: uuid.New(), Name: "Overflow", Capacity: 0, IsActive: true}
	inventory.warehouses = []models.Warehouse{full, roomy, unlimited}
	inventory.capacity[full.ID] = 950
	inventory.capacity[roomy.ID] = 500
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, &fakeMailer{})

	created, err := svc.CheckWarehouseCapacity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, inventory.alerts, 1)
	assert.Equal(t, models.AlertCapacity, inventory.alerts[0].Type)
	assert.Equal(t, full.ID, inventory.alerts[0].WarehouseID)
	assert.Nil(t, inventory.alerts[0].ProductID, "capacity alerts are warehouse-wide")
}

func TestAnalyzeStockTurnover(t *testing.T) {
	moving := uuid.New()
	idle := uuid.New()
	empty := uuid.New()
	inventory := newFakeInventory()
	inventory.totals = map[uuid.UUID]int{moving: 40, idle: 25, empty: 0}
	inventory.movements = []models.StockMovement{
		{ProductID: moving, Type: models.MovementOut, Quantity: 8},
		{ProductID: idle, Type: models.MovementIn, Quantity: 10},
	}
	mail := &fakeMailer{}
	svc := newInventoryService(inventory, newFakeProducts(), &fakeQueue{}, mail)

	flagged, err := svc.AnalyzeStockTurnover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, flagged, "only the idle product with stock on hand")
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Body, idle.String())
}

func TestSyncProductStock(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	inventory := newFakeInventory()
	inventory.totals = map[uuid.UUID]int{productA: 12, productB: 0}
	products := newFakeProducts()
	svc := newInventoryService(inventory, products, &fakeQueue{}, &fakeMailer{})

	n, err := svc.SyncProductStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 12, products.stockSet[productA])
	assert.Equal(t, 0, products.stockSet[productB])
}
