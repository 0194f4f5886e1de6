package models

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Order status machine. Transitions move forward only, except any
// non-terminal status may go to cancelled.
const (
	OrderPending        = "pending"
	OrderConfirmed      = "confirmed"
	OrderProcessing     = "processing"
	OrderShipped        = "shipped"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// Payment status values on an order.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

type Order struct {
	ID          uuid.UUID  `json:"id"`
	OrderNumber string     `json:"order_number"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	GuestEmail  string     `json:"guest_email,omitempty"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method,omitempty"`

	// Amounts in cents.
	Subtotal     int64 `json:"subtotal"`
	ShippingCost int64 `json:"shipping_cost"`
	Total        int64 `json:"total"`

	ShippingAddress string `json:"shipping_address"`
	ShippingCity    string `json:"shipping_city"`
	ShippingPhone   string `json:"shipping_phone"`

	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ShippedDate   *time.Time `json:"shipped_date,omitempty"`
	DeliveredDate *time.Time `json:"delivered_date,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`

	Items []OrderItem `json:"items,omitempty"`
}

func (o *Order) Prepare() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber(time.Now())
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
}

// ContactEmail is the address notifications go to: the account email for
// customer orders, the captured address for guest checkouts.
func (o *Order) ContactEmail(customerEmail string) string {
	if o.CustomerID != nil && customerEmail != "" {
		return customerEmail
	}
	return o.GuestEmail
}

// IsTerminal reports whether the order reached a final status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderDelivered || o.Status == OrderCancelled
}

// NewOrderNumber builds a human-readable order number, e.g. ORD-20250817-4F2K9C.
func NewOrderNumber(now time.Time) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// OrderItem captures the unit price at purchase time so later product price
// changes do not alter historical orders.
type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
}

// LineTotal is quantity times the captured unit price.
func (i OrderItem) LineTotal() int64 {
	return int64(i.Quantity) * i.Price
}

// OrderStatusHistory is the audit trail of status transitions. ChangedBy is
// nil for transitions made by scheduled tasks.
type OrderStatusHistory struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	OldStatus string     `json:"old_status"`
	NewStatus string     `json:"new_status"`
	ChangedBy *uuid.UUID `json:"changed_by,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DailyOrderReport aggregates one day of orders for the admin report mail.
type DailyOrderReport struct {
	Date            string           `json:"date"`
	TotalOrders     int              `json:"total_orders"`
	TotalRevenue    int64            `json:"total_revenue"`
	AverageValue    int64            `json:"average_order_value"`
	ByStatus        map[string]int   `json:"by_status"`
	ByPaymentMethod map[string]int   `json:"by_payment_method"`
	TopProducts     []TopProductLine `json:"top_products"`
}

type TopProductLine struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Revenue     int64  `json:"revenue"`
}
