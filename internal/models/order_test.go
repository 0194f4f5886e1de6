package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 8, 17, 9, 30, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20250817-[A-HJ-NP-Z2-9]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := NewOrderNumber(now)
		assert.Regexp(t, pattern, n)
		seen[n] = true
	}
	// Ambiguous characters (0, 1, I, O) never appear, and collisions across a
	// handful of draws are vanishingly unlikely.
	assert.Greater(t, len(seen), 45)
}

func TestOrderPrepareDefaults(t *testing.T) {
	o := &Order{}
	o.Prepare()

	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.NotEmpty(t, o.OrderNumber)
	assert.Equal(t, OrderPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
}

func TestContactEmail(t *testing.T) {
	customerID := uuid.New()

	guest := &Order{GuestEmail: "guest@example.com"}
	assert.Equal(t, "guest@example.com", guest.ContactEmail(""))

	account := &Order{CustomerID: &customerID, GuestEmail: "stale@example.com"}
	assert.Equal(t, "jay@example.com", account.ContactEmail("jay@example.com"))

	// Account order with no email on record falls back to the guest field.
	assert.Equal(t, "stale@example.com", account.ContactEmail(""))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, (&Order{Status: OrderDelivered}).IsTerminal())
	assert.True(t, (&Order{Status: OrderCancelled}).IsTerminal())
	assert.False(t, (&Order{Status: OrderShipped}).IsTerminal())
	assert.False(t, (&Order{Status: OrderPending}).IsTerminal())
}

func TestLineTotal(t *testing.T) {
	item := OrderItem{Quantity: 3, Price: 2_499_00}
	assert.Equal(t, int64(7_497_00), item.LineTotal())
}

func TestKShFormatting(t *testing.T) {
	assert.Equal(t, "KSh 25500.00", KSh(25_500_00))
	assert.Equal(t, "KSh 0.50", KSh(50))
	assert.Equal(t, "KSh 0.00", KSh(0))
}
