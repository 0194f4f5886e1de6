package models

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer is a shop account holder. Money-adjacent counters (loyalty
// points) are plain integers; 1 point is earned per 100 KSh of a delivered
// order.
type Customer struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         string     `json:"phone"`
	LoyaltyPoints int        `json:"loyalty_points"`
	IsActive      bool       `json:"is_active"`
	IsStaff       bool       `json:"is_staff"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`

	// Password carries the plaintext from a registration request and is
	// never persisted.
	Password string `json:"password,omitempty"`
}

func (c *Customer) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Email = html.EscapeString(strings.TrimSpace(strings.ToLower(c.Email)))
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
}

// FullName returns the display name, falling back to the email local part.
func (c *Customer) FullName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	if at := strings.Index(c.Email, "@"); at > 0 {
		return c.Email[:at]
	}
	return c.Email
}

// PasswordResetCode is a single-use 6-digit code mailed to the customer.
// Codes expire after 15 minutes; used codes are kept for 7 days for audit
// before the cleanup task removes them.
type PasswordResetCode struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Code       string    `json:"-"`
	IsUsed     bool      `json:"is_used"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ResetCodeTTL is how long a password reset code stays valid.
const ResetCodeTTL = 15 * time.Minute

func (p *PasswordResetCode) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
