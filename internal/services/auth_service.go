package services

import (
	"context"
	"errors"

	"shopbackend/internal/models"
	"shopbackend/internal/queue"
	"shopbackend/internal/repositories"
	"shopbackend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionStore is the Redis-backed session and token blacklist.
type SessionStore interface {
	StoreSession(ctx context.Context, jti string, customerID string) error
	DeleteSession(ctx context.Context, jti string) error
	Blacklist(ctx context.Context, jti string) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

type AuthService struct {
	customers repositories.CustomerStore
	sessions  SessionStore
	tasks     queue.Enqueuer
	log       *logrus.Logger
}

func NewAuthService(customers repositories.CustomerStore, sessions SessionStore, tasks queue.Enqueuer, log *logrus.Logger) *AuthService {
	return &AuthService{
		customers: customers,
		sessions:  sessions,
		tasks:     tasks,
		log:       log,
	}
}

// Register creates the account and returns a token pair. The welcome mail
// goes out through the customers queue, not inline.
func (s *AuthService) Register(ctx context.Context, customer *models.Customer) (string, string, error) {
	customer.Prepare()

	existing, err := s.customers.FindByEmail(ctx, customer.Email)
	if err != nil {
		return "", "", err
	}
	if existing != nil {
		return "", "", ErrEmailTaken
	}

	hashed, err := utils.Hash(customer.Password)
	if err != nil {
		return "", "", err
	}
	customer.PasswordHash = string(hashed)
	customer.Password = ""

	if err := s.customers.Create(ctx, customer); err != nil {
		return "", "", err
	}

	if _, err := s.tasks.Delay(ctx, "customers.tasks.send_welcome_email", customer.ID.String()); err != nil {
		s.log.WithError(err).Warn("failed to enqueue welcome email")
	}

	return s.issueTokens(ctx, customer.ID)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	customer, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		return "", "", err
	}
	if customer == nil {
		return "", "", ErrInvalidCredentials
	}
	if !customer.IsActive {
		return "", "", ErrAccountDisabled
	}

	if err := utils.VerifyPassword(customer.PasswordHash, password); err != nil {
		return "", "", ErrInvalidCredentials
	}

	if _, err := s.tasks.Delay(ctx, "customers.tasks.record_login", customer.ID.String()); err != nil {
		s.log.WithError(err).Warn("failed to enqueue login update")
	}

	return s.issueTokens(ctx, customer.ID)
}

// Refresh rotates the token pair: the old jti is blacklisted so the previous
// refresh token cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := utils.VerifyJWT(refreshToken, utils.RefreshTokenSecret)
	if err != nil {
		return "", "", errors.New("invalid or expired refresh token")
	}

	blacklisted, err := s.sessions.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", "", err
	}
	if blacklisted {
		return "", "", errors.New("refresh token revoked")
	}

	customerID, err := claims.CustomerID()
	if err != nil {
		return "", "", err
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return "", "", err
	}
	if customer == nil || !customer.IsActive {
		return "", "", ErrInvalidCredentials
	}

	if err := s.sessions.Blacklist(ctx, claims.ID); err != nil {
		return "", "", err
	}
	if err := s.sessions.DeleteSession(ctx, claims.ID); err != nil {
		s.log.WithError(err).Warn("failed to delete rotated session")
	}

	return s.issueTokens(ctx, customerID)
}

// Logout blacklists the token's jti and drops its session.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := utils.VerifyJWT(accessToken, utils.AccessTokenSecret)
	if err != nil {
		return errors.New("invalid token")
	}
	if err := s.sessions.Blacklist(ctx, claims.ID); err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, claims.ID)
}

func (s *AuthService) issueTokens(ctx context.Context, customerID uuid.UUID) (string, string, error) {
	access, refresh, jti, err := utils.GenerateTokens(customerID)
	if err != nil {
		return "", "", err
	}
	if err := s.sessions.StoreSession(ctx, jti, customerID.String()); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
