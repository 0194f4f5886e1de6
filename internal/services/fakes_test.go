package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shopbackend/internal/models"
	"shopbackend/internal/repositories"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fakeQueue records Delay calls.
type fakeQueue struct {
	mu    sync.Mutex
	calls []enqueuedTask
	err   error
}

type enqueuedTask struct {
	Name string
	Args []interface{}
}

func (f *fakeQueue) Delay(ctx context.Context, name string, args ...interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, enqueuedTask{Name: name, Args: args})
	return uuid.NewString(), nil
}

func (f *fakeQueue) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Name
	}
	return out
}

// fakeMailer records sent mail, optionally failing every send.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

func (f *fakeMailer) Send(ctx context.Context, to []string, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// Store fakes embed their interface so only the methods a test exercises
// need implementations; anything else panics loudly.

type fakeCustomers struct {
	repositories.CustomerStore
	byID       map[uuid.UUID]*models.Customer
	loyalty    map[uuid.UUID]int
	resetCodes []*models.PasswordResetCode
	passwords  map[uuid.UUID]string
	lastLogin  map[uuid.UUID]time.Time
	engagement *repositories.EngagementStats
}

func newFakeCustomers(customers ...*models.Customer) *fakeCustomers {
	f := &fakeCustomers{
		byID:      map[uuid.UUID]*models.Customer{},
		loyalty:   map[uuid.UUID]int{},
		passwords: map[uuid.UUID]string{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
	for _, c := range customers {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCustomers) Create(ctx context.Context, c *models.Customer) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCustomers) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return f.byID[id], nil
}

func (f *fakeCustomers) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	for _, c := range f.byID {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomers) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

func (f *fakeCustomers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.passwords[id] = passwordHash
	return nil
}

func (f *fakeCustomers) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error {
	f.loyalty[id] += points
	return nil
}

func (f *fakeCustomers) CreateResetCode(ctx context.Context, code *models.PasswordResetCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	f.resetCodes = append(f.resetCodes, code)
	return nil
}

func (f *fakeCustomers) FindValidResetCode(ctx context.Context, customerID uuid.UUID, code string, now time.Time) (*models.PasswordResetCode, error) {
	for _, rc := range f.resetCodes {
		if rc.CustomerID == customerID && rc.Code == code && !rc.IsUsed && !rc.IsExpired(now) {
			return rc, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomers) Engagement(ctx context.Context, now time.Time) (*repositories.EngagementStats, error) {
	return f.engagement, nil
}

func (f *fakeCustomers) MarkResetCodeUsed(ctx context.Context, id uuid.UUID) error {
	for _, rc := range f.resetCodes {
		if rc.ID == id {
			rc.IsUsed = true
		}
	}
	return nil
}

type fakeProducts struct {
	repositories.ProductStore
	byID        map[uuid.UUID]*models.Product
	bySlug      map[string]*models.Product
	adjustments []stockAdjustment
	scores      map[uuid.UUID]float64
	stockSet    map[uuid.UUID]int
	inputs      []repositories.PopularityInput
}

type stockAdjustment struct {
	ProductID uuid.UUID
	Delta     int
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{
		byID:     map[uuid.UUID]*models.Product{},
		scores:   map[uuid.UUID]float64{},
		stockSet: map[uuid.UUID]int{},
	}
	for _, p := range products {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return f.byID[id], nil
}

func (f *fakeProducts) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return f.bySlug[slug], nil
}

func (f *fakeProducts) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	f.adjustments = append(f.adjustments, stockAdjustment{ProductID: id, Delta: delta})
	if p, ok := f.byID[id]; ok {
		p.StockQuantity += delta
		if p.StockQuantity < 0 {
			p.StockQuantity = 0
		}
	}
	return nil
}

func (f *fakeProducts) SetStock(ctx context.Context, id uuid.UUID, quantity int) error {
	f.stockSet[id] = quantity
	return nil
}

func (f *fakeProducts) PopularityInputs(ctx context.Context, salesSince time.Time) ([]repositories.PopularityInput, error) {
	return f.inputs, nil
}

func (f *fakeProducts) UpdatePopularityScore(ctx context.Context, id uuid.UUID, score float64) error {
	f.scores[id] = score
	return nil
}

type fakeOrders struct {
	repositories.OrderStore
	byID          map[uuid.UUID]*models.Order
	pendingPaid   []models.Order
	unpaidBefore  []models.Order
	shipped       []models.Order
	tracking      []models.Order
	statusUpdates []statusUpdate
	updateErr     error
	purchased     bool
	paymentStatus map[uuid.UUID]string
}

type statusUpdate struct {
	OrderID   uuid.UUID
	OldStatus string
	NewStatus string
	Notes     string
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{
		byID:          map[uuid.UUID]*models.Order{},
		paymentStatus: map[uuid.UUID]string{},
	}
	for _, o := range orders {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Create(ctx context.Context, o *models.Order) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.byID[id], nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, orderID uuid.UUID, oldStatus, newStatus string, changedBy *uuid.UUID, notes string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statusUpdates = append(f.statusUpdates, statusUpdate{OrderID: orderID, OldStatus: oldStatus, NewStatus: newStatus, Notes: notes})
	if o, ok := f.byID[orderID]; ok {
		o.Status = newStatus
	}
	return nil
}

func (f *fakeOrders) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	f.paymentStatus[orderID] = status
	if o, ok := f.byID[orderID]; ok {
		o.PaymentStatus = status
	}
	return nil
}

func (f *fakeOrders) FindPendingPaid(ctx context.Context) ([]models.Order, error) {
	return f.pendingPaid, nil
}

func (f *fakeOrders) FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	return f.unpaidBefore, nil
}

func (f *fakeOrders) FindShippedBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.shipped {
		if o.ShippedDate != nil && o.ShippedDate.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) FindWithActiveTracking(ctx context.Context) ([]models.Order, error) {
	return f.tracking, nil
}

func (f *fakeOrders) CustomerPurchasedProduct(ctx context.Context, customerID, productID uuid.UUID) (bool, error) {
	return f.purchased, nil
}

type fakePayments struct {
	repositories.PaymentStore
	byID       map[uuid.UUID]*models.MpesaTransaction
	byCheckout map[string]*models.MpesaTransaction
	callbacks  []*models.MpesaCallback
	processed  []uuid.UUID
	updated    []*models.MpesaTransaction
	refunds    []*models.MpesaRefund
}

func newFakePayments(txs ...*models.MpesaTransaction) *fakePayments {
	f := &fakePayments{
		byID:       map[uuid.UUID]*models.MpesaTransaction{},
		byCheckout: map[string]*models.MpesaTransaction{},
	}
	for _, tx := range txs {
		f.byID[tx.ID] = tx
		if tx.CheckoutRequestID != "" {
			f.byCheckout[tx.CheckoutRequestID] = tx
		}
	}
	return f
}

func (f *fakePayments) CreateTransaction(ctx context.Context, t *models.MpesaTransaction) error {
	f.byID[t.ID] = t
	return nil
}

func (f *fakePayments) UpdateTransaction(ctx context.Context, t *models.MpesaTransaction) error {
	f.byID[t.ID] = t
	f.updated = append(f.updated, t)
	return nil
}

func (f *fakePayments) FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.MpesaTransaction, error) {
	return f.byID[id], nil
}

func (f *fakePayments) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*models.MpesaTransaction, error) {
	return f.byCheckout[checkoutRequestID], nil
}

func (f *fakePayments) CreateRefund(ctx context.Context, r *models.MpesaRefund) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = models.RefundPending
	}
	f.refunds = append(f.refunds, r)
	return nil
}

func (f *fakePayments) FindRefundByID(ctx context.Context, id uuid.UUID) (*models.MpesaRefund, error) {
	for _, r := range f.refunds {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) CreateCallback(ctx context.Context, cb *models.MpesaCallback) error {
	if cb.ID == uuid.Nil {
		cb.ID = uuid.New()
	}
	f.callbacks = append(f.callbacks, cb)
	return nil
}

func (f *fakePayments) MarkCallbackProcessed(ctx context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return nil
}

type fakeInventory struct {
	repositories.InventoryStore
	warehouses []models.Warehouse
	stocks     map[uuid.UUID][]models.WarehouseStock
	alerts     []*models.StockAlert
	resolved   []resolvedAlerts
	capacity   map[uuid.UUID]int
	totals     map[uuid.UUID]int
	movements  []models.StockMovement
}

type resolvedAlerts struct {
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	Types       []string
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		stocks:   map[uuid.UUID][]models.WarehouseStock{},
		capacity: map[uuid.UUID]int{},
	}
}

func (f *fakeInventory) ActiveWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	return f.warehouses, nil
}

func (f *fakeInventory) StocksByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.WarehouseStock, error) {
	return f.stocks[warehouseID], nil
}

func (f *fakeInventory) WarehouseUsedCapacity(ctx context.Context, warehouseID uuid.UUID) (int, error) {
	return f.capacity[warehouseID], nil
}

func (f *fakeInventory) TotalStockByProduct(ctx context.Context) (map[uuid.UUID]int, error) {
	return f.totals, nil
}

func (f *fakeInventory) MovementsSince(ctx context.Context, since time.Time) ([]models.StockMovement, error) {
	return f.movements, nil
}

func (f *fakeInventory) UpsertAlert(ctx context.Context, alert *models.StockAlert) (bool, error) {
	for _, existing := range f.alerts {
		if existing.Type == alert.Type && existing.WarehouseID == alert.WarehouseID && !existing.IsResolved &&
			equalProductID(existing.ProductID, alert.ProductID) {
			return false, nil
		}
	}
	alert.ID = uuid.New()
	f.alerts = append(f.alerts, alert)
	return true, nil
}

func (f *fakeInventory) ResolveAlerts(ctx context.Context, warehouseID uuid.UUID, productID uuid.UUID, types []string, notes string) (int64, error) {
	f.resolved = append(f.resolved, resolvedAlerts{WarehouseID: warehouseID, ProductID: productID, Types: types})
	var n int64
	for _, alert := range f.alerts {
		if alert.WarehouseID != warehouseID || alert.IsResolved {
			continue
		}
		if alert.ProductID == nil || *alert.ProductID != productID {
			continue
		}
		for _, t := range types {
			if alert.Type == t {
				alert.IsResolved = true
				n++
				break
			}
		}
	}
	return n, nil
}

func equalProductID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
