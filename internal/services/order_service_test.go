package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/models"
)

func newOrderService(orders *fakeOrders, products *fakeProducts, customers *fakeCustomers, tasks *fakeQueue, mail *fakeMailer) *OrderService {
	return NewOrderService(orders, products, customers, tasks, mail, []string{"ops@example.com"}, testLogger())
}

func intPtr(n int) *int { return &n }

func activeProduct(price int64, stock int) *models.Product {
	return &models.Product{
		ID:            uuid.New(),
		Name:          "Studio Monitor",
		SKU:           "SM-100",
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.OrderPending, models.OrderConfirmed, true},
		{models.OrderConfirmed, models.OrderProcessing, true},
		{models.OrderProcessing, models.OrderShipped, true},
		{models.OrderShipped, models.OrderOutForDelivery, true},
		{models.OrderOutForDelivery, models.OrderDelivered, true},
		{models.OrderPending, models.OrderShipped, false},
		{models.OrderDelivered, models.OrderShipped, false},
		{models.OrderPending, models.OrderPending, false},
		// Any non-terminal status may cancel.
		{models.OrderPending, models.OrderCancelled, true},
		{models.OrderShipped, models.OrderCancelled, true},
		{models.OrderDelivered, models.OrderCancelled, false},
		{models.OrderCancelled, models.OrderCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCreateOrderCapturesPriceAndStock(t *testing.T) {
	product := activeProduct(12_500_00, 10)
	products := newFakeProducts(product)
	orders := newFakeOrders()
	tasks := &fakeQueue{}
	svc := newOrderService(orders, products, newFakeCustomers(), tasks, &fakeMailer{})

	order := &models.Order{
		GuestEmail:   "guest@example.com",
		ShippingCost: 500_00,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 2},
		},
	}
	require.NoError(t, svc.Create(context.Background(), order))

	assert.Equal(t, int64(25_000_00), order.Subtotal)
	assert.Equal(t, int64(25_500_00), order.Total)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, "Studio Monitor", order.Items[0].ProductName)
	assert.Equal(t, int64(12_500_00), order.Items[0].Price, "unit price captured at purchase time")

	require.Len(t, products.adjustments, 1)
	assert.Equal(t, -2, products.adjustments[0].Delta)
	assert.Contains(t, tasks.names(), "orders.tasks.send_order_confirmation_email")
}

func TestCreateOrderUsesSalePrice(t *testing.T) {
	product := activeProduct(10_000_00, 5)
	sale := int64(8_000_00)
	product.SalePrice = &sale
	products := newFakeProducts(product)
	svc := newOrderService(newFakeOrders(), products, newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	order := &models.Order{
		GuestEmail: "guest@example.com",
		Items:      []models.OrderItem{{ProductID: product.ID, Quantity: 1}},
	}
	require.NoError(t, svc.Create(context.Background(), order))
	assert.Equal(t, sale, order.Items[0].Price)
}

func TestCreateOrderRejectsUnavailableProduct(t *testing.T) {
	product := activeProduct(1_000_00, 0)
	products := newFakeProducts(product)
	svc := newOrderService(newFakeOrders(), products, newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	order := &models.Order{
		GuestEmail: "guest@example.com",
		Items:      []models.OrderItem{{ProductID: product.ID, Quantity: 1}},
	}
	err := svc.Create(context.Background(), order)
	assert.ErrorContains(t, err, "out of stock")
}

func TestCreateOrderAllowsBackorder(t *testing.T) {
	product := activeProduct(1_000_00, 0)
	product.BackorderAllowed = true
	products := newFakeProducts(product)
	svc := newOrderService(newFakeOrders(), products, newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	order := &models.Order{
		GuestEmail: "guest@example.com",
		Items:      []models.OrderItem{{ProductID: product.ID, Quantity: 1}},
	}
	assert.NoError(t, svc.Create(context.Background(), order))
}

func TestCreateOrderEnforcesMaxQuantity(t *testing.T) {
	product := activeProduct(1_000_00, 50)
	product.MaxQuantityPerOrder = intPtr(3)
	products := newFakeProducts(product)
	svc := newOrderService(newFakeOrders(), products, newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	order := &models.Order{
		GuestEmail: "guest@example.com",
		Items:      []models.OrderItem{{ProductID: product.ID, Quantity: 4}},
	}
	err := svc.Create(context.Background(), order)
	assert.ErrorContains(t, err, "limited to 3")
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: models.OrderPending}
	orders := newFakeOrders(order)
	svc := newOrderService(orders, newFakeProducts(), newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	err := svc.UpdateStatus(context.Background(), order.ID, models.OrderShipped, nil, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, orders.statusUpdates)
}

func TestUpdateStatusRestocksOnCancel(t *testing.T) {
	product := activeProduct(1_000_00, 0)
	order := &models.Order{
		ID:     uuid.New(),
		Status: models.OrderPending,
		Items:  []models.OrderItem{{ProductID: product.ID, Quantity: 3}},
	}
	orders := newFakeOrders(order)
	products := newFakeProducts(product)
	svc := newOrderService(orders, products, newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	require.NoError(t, svc.UpdateStatus(context.Background(), order.ID, models.OrderCancelled, nil, "customer request"))

	require.Len(t, products.adjustments, 1)
	assert.Equal(t, 3, products.adjustments[0].Delta)
}

func TestUpdateStatusChainsLoyaltyOnDelivery(t *testing.T) {
	customerID := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: &customerID,
		Status:     models.OrderOutForDelivery,
	}
	orders := newFakeOrders(order)
	tasks := &fakeQueue{}
	svc := newOrderService(orders, newFakeProducts(), newFakeCustomers(), tasks, &fakeMailer{})

	require.NoError(t, svc.UpdateStatus(context.Background(), order.ID, models.OrderDelivered, nil, ""))

	names := tasks.names()
	assert.Contains(t, names, "orders.tasks.award_order_loyalty_points")
	assert.Contains(t, names, "orders.tasks.update_order_status_task")
}

func TestAwardLoyaltyPoints(t *testing.T) {
	customer := &models.Customer{ID: uuid.New(), Email: "jay@example.com", IsActive: true}
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20250817-TEST01",
		CustomerID:  &customer.ID,
		Status:      models.OrderDelivered,
		Total:       25_050_00, // KSh 25,050 -> 250 points
	}
	orders := newFakeOrders(order)
	customers := newFakeCustomers(customer)
	tasks := &fakeQueue{}
	svc := newOrderService(orders, newFakeProducts(), customers, tasks, &fakeMailer{})

	points, err := svc.AwardLoyaltyPoints(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, points)
	assert.Equal(t, 250, customers.loyalty[customer.ID])
	assert.Contains(t, tasks.names(), "customers.tasks.send_loyalty_points_notification")
}

func TestAwardLoyaltyPointsSkipsUndelivered(t *testing.T) {
	customerID := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: &customerID,
		Status:     models.OrderShipped,
		Total:      10_000_00,
	}
	orders := newFakeOrders(order)
	customers := newFakeCustomers()
	svc := newOrderService(orders, newFakeProducts(), customers, &fakeQueue{}, &fakeMailer{})

	points, err := svc.AwardLoyaltyPoints(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Zero(t, points)
	assert.Empty(t, customers.loyalty)
}

func TestAutoConfirmPaidOrders(t *testing.T) {
	order := models.Order{ID: uuid.New(), OrderNumber: "ORD-1", Status: models.OrderPending}
	orders := newFakeOrders()
	orders.pendingPaid = []models.Order{order}
	tasks := &fakeQueue{}
	svc := newOrderService(orders, newFakeProducts(), newFakeCustomers(), tasks, &fakeMailer{})

	n, err := svc.AutoConfirmPaidOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, orders.statusUpdates, 1)
	assert.Equal(t, models.OrderConfirmed, orders.statusUpdates[0].NewStatus)
}

func TestAutoCancelUnpaidOrdersRestocks(t *testing.T) {
	product := activeProduct(1_000_00, 0)
	order := &models.Order{
		ID:     uuid.New(),
		Status: models.OrderPending,
		Items:  []models.OrderItem{{ProductID: product.ID, Quantity: 2}},
	}
	orders := newFakeOrders(order)
	orders.unpaidBefore = []models.Order{*order}
	products := newFakeProducts(product)
	svc := newOrderService(orders, products, newFakeCustomers(), &fakeQueue{}, &fakeMailer{})

	n, err := svc.AutoCancelUnpaidOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, products.adjustments, 1)
	assert.Equal(t, 2, products.adjustments[0].Delta)
}

func TestCheckDelayedShipmentsUsesSevenDayWindow(t *testing.T) {
	now := time.Now().UTC()
	fiveDays := now.Add(-5 * 24 * time.Hour)
	eightDays := now.Add(-8 * 24 * time.Hour)

	recent := models.Order{ID: uuid.New(), OrderNumber: "ORD-20250817-RECENT", Status: models.OrderShipped, ShippedDate: &fiveDays}
	late := models.Order{ID: uuid.New(), OrderNumber: "ORD-20250817-LATE01", Status: models.OrderShipped, ShippedDate: &eightDays}

	orders := newFakeOrders()
	orders.shipped = []models.Order{recent, late}
	mail := &fakeMailer{}
	svc := newOrderService(orders, newFakeProducts(), newFakeCustomers(), &fakeQueue{}, mail)

	n, err := svc.CheckDelayedShipments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "five days in transit is not yet delayed")
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Body, "over 7 days")
	assert.Contains(t, mail.sent[0].Body, "ORD-20250817-LATE01")
	assert.NotContains(t, mail.sent[0].Body, "ORD-20250817-RECENT")
}

func TestSyncTrackingStatuses(t *testing.T) {
	now := time.Now().UTC()
	shippedLongAgo := now.Add(-3 * 24 * time.Hour)
	justShipped := now.Add(-6 * time.Hour)
	customerID := uuid.New()

	stale := &models.Order{ID: uuid.New(), Status: models.OrderShipped, ShippedDate: &shippedLongAgo}
	fresh := &models.Order{ID: uuid.New(), Status: models.OrderShipped, ShippedDate: &justShipped}
	arriving := &models.Order{ID: uuid.New(), CustomerID: &customerID, Status: models.OrderOutForDelivery, ShippedDate: &shippedLongAgo, Total: 5_000_00}

	orders := newFakeOrders(stale, fresh, arriving)
	orders.tracking = []models.Order{*stale, *fresh, *arriving}
	tasks := &fakeQueue{}
	svc := newOrderService(orders, newFakeProducts(), newFakeCustomers(), tasks, &fakeMailer{})

	n, err := svc.SyncTrackingStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the recently shipped order stays put")

	byOrder := map[uuid.UUID]string{}
	for _, u := range orders.statusUpdates {
		byOrder[u.OrderID] = u.NewStatus
	}
	assert.Equal(t, models.OrderOutForDelivery, byOrder[stale.ID])
	assert.Equal(t, models.OrderDelivered, byOrder[arriving.ID])
	assert.NotContains(t, byOrder, fresh.ID)
	assert.Contains(t, tasks.names(), "orders.tasks.award_order_loyalty_points")
}
