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
	"shopbackend/internal/utils"
)

const (
	// Customers with no login for this long get the re-engagement mail.
	inactivityCutoff = 90 * 24 * time.Hour
	// Used reset codes stay around this long for audit.
	usedResetCodeRetention = 7 * 24 * time.Hour
	// Bulk promotion mails go out in batches of this size.
	promoBatchSize = 50
)

type CustomerService struct {
	customers   repositories.CustomerStore
	tasks       queue.Enqueuer
	mail        mailer.Mailer
	log         *logrus.Logger
	adminEmails []string
}

func NewCustomerService(customers repositories.CustomerStore, tasks queue.Enqueuer, mail mailer.Mailer, adminEmails []string, log *logrus.Logger) *CustomerService {
	return &CustomerService{
		customers:   customers,
		tasks:       tasks,
		mail:        mail,
		log:         log,
		adminEmails: adminEmails,
	}
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.customers.FindByID(ctx, id)
}

// RecordLogin stamps last_login_at. Runs as a task so the login path does
// not wait on the write.
func (s *CustomerService) RecordLogin(ctx context.Context, customerID uuid.UUID) error {
	return s.customers.UpdateLastLogin(ctx, customerID, time.Now().UTC())
}

// SendWelcomeEmail greets a new account. Mail failures are retryable.
func (s *CustomerService) SendWelcomeEmail(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("customer %s not found", customerID)
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to SoundWave Audio! Your account is ready.\n\nBrowse our catalog and enjoy member pricing on selected gear.\n\nThe SoundWave Audio team",
		customer.FullName(),
	)
	if err := s.mail.Send(ctx, []string{customer.Email}, "Welcome to SoundWave Audio", body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// RequestPasswordReset creates a reset code and queues its delivery. A
// missing account is not an error so the endpoint cannot be used to
// enumerate registered addresses.
func (s *CustomerService) RequestPasswordReset(ctx context.Context, email string) error {
	customer, err := s.customers.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if customer == nil {
		return nil
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return err
	}
	reset := &models.PasswordResetCode{
		CustomerID: customer.ID,
		Code:       code,
		ExpiresAt:  time.Now().UTC().Add(models.ResetCodeTTL),
	}
	if err := s.customers.CreateResetCode(ctx, reset); err != nil {
		return err
	}

	_, err = s.tasks.Delay(ctx, "customers.tasks.send_password_reset_email_async", customer.ID.String(), code)
	return err
}

func (s *CustomerService) SendPasswordResetEmail(ctx context.Context, customerID uuid.UUID, code string) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("customer %s not found", customerID)
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is: %s\n\nIt expires in %d minutes. If you did not request this, ignore this mail.",
		customer.FullName(), code, int(models.ResetCodeTTL.Minutes()),
	)
	if err := s.mail.Send(ctx, []string{customer.Email}, "Your password reset code", body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// ConfirmPasswordReset verifies the code and sets the new password.
func (s *CustomerService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	customer, err := s.customers.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if customer == nil {
		return errors.New("invalid reset code")
	}

	reset, err := s.customers.FindValidResetCode(ctx, customer.ID, code, time.Now().UTC())
	if err != nil {
		return err
	}
	if reset == nil {
		return errors.New("invalid reset code")
	}

	hashed, err := utils.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.customers.UpdatePassword(ctx, customer.ID, string(hashed)); err != nil {
		return err
	}
	return s.customers.MarkResetCodeUsed(ctx, reset.ID)
}

// NotifyLoyaltyPoints tells the customer about points earned on an order.
func (s *CustomerService) NotifyLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int, orderNumber string) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("customer %s not found", customerID)
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYou earned %d loyalty points on order %s. Your balance is now %d points.\n\nThanks for shopping with us!",
		customer.FullName(), points, orderNumber, customer.LoyaltyPoints,
	)
	if err := s.mail.Send(ctx, []string{customer.Email}, "You earned loyalty points", body); err != nil {
		return queue.Retry(err)
	}
	return nil
}

// SendBulkPromotion mails every active customer in batches. Returns how many
// addresses were mailed.
func (s *CustomerService) SendBulkPromotion(ctx context.Context, subject, body string) (int, error) {
	emails, err := s.customers.ListActiveEmails(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for start := 0; start < len(emails); start += promoBatchSize {
		end := start + promoBatchSize
		if end > len(emails) {
			end = len(emails)
		}
		if err := s.mail.Send(ctx, emails[start:end], subject, body); err != nil {
			s.log.WithError(err).Errorf("promotion batch %d-%d failed", start, end)
			continue
		}
		sent += end - start
	}
	s.log.Infof("bulk promotion sent to %d of %d customers", sent, len(emails))
	return sent, nil
}

// ReengageInactiveCustomers mails customers who have not logged in for 90
// days. Returns the number contacted.
func (s *CustomerService) ReengageInactiveCustomers(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-inactivityCutoff)
	inactive, err := s.customers.FindInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	contacted := 0
	for _, customer := range inactive {
		body := fmt.Sprintf(
			"Hi %s,\n\nIt's been a while! Come back and see what's new at SoundWave Audio.",
			customer.FullName(),
		)
		if err := s.mail.Send(ctx, []string{customer.Email}, "We miss you at SoundWave Audio", body); err != nil {
			s.log.WithError(err).Warnf("re-engagement mail to %s failed", customer.Email)
			continue
		}
		contacted++
	}
	return contacted, nil
}

// AnalyzeEngagement mails admins the monthly login-recency breakdown of
// active accounts.
func (s *CustomerService) AnalyzeEngagement(ctx context.Context) (*repositories.EngagementStats, error) {
	stats, err := s.customers.Engagement(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(s.adminEmails) == 0 {
		return stats, nil
	}

	body := fmt.Sprintf(
		"Customer engagement\n\nActive accounts: %d\nLogged in last 30 days: %d\nLast 60 days: %d\nLast 90 days: %d\nNever logged in: %d\n",
		stats.TotalActive, stats.ActiveLast30, stats.ActiveLast60, stats.ActiveLast90, stats.NeverLogged,
	)
	if err := s.mail.Send(ctx, s.adminEmails, "Monthly customer engagement", body); err != nil {
		return stats, queue.Retry(err)
	}
	return stats, nil
}

// CleanupResetCodes removes expired unused codes and used codes past the
// audit window.
func (s *CustomerService) CleanupResetCodes(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	expired, err := s.customers.DeleteExpiredResetCodes(ctx, now)
	if err != nil {
		return 0, err
	}
	used, err := s.customers.DeleteUsedResetCodesBefore(ctx, now.Add(-usedResetCodeRetention))
	if err != nil {
		return expired, err
	}
	return expired + used, nil
}

// WeeklyReport mails account statistics to the admins.
func (s *CustomerService) WeeklyReport(ctx context.Context) (*repositories.CustomerStats, error) {
	stats, err := s.customers.Stats(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if len(s.adminEmails) == 0 {
		return stats, nil
	}

	body := fmt.Sprintf(
		"Weekly customer report\n\nTotal accounts: %d\nActive: %d\nNew this week: %d\nWith loyalty points: %d\nOutstanding points: %d\n",
		stats.Total, stats.Active, stats.NewInPeriod, stats.WithLoyalty, stats.LoyaltyBalance,
	)
	if err := s.mail.Send(ctx, s.adminEmails, "Weekly customer report", body); err != nil {
		return stats, queue.Retry(err)
	}
	return stats, nil
}
