// Package user handles account registration, login and e-mail
// verification.
package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/pixhy/voizchat/internal/mail"
	usermodel "github.com/pixhy/voizchat/internal/model/user"
	"github.com/pixhy/voizchat/internal/service/auth"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidRequest     = errors.New("email, username and password are required")
)

// Store persists accounts.
type Store interface {
	// CreateUser inserts the account; ErrEmailTaken when the address is
	// already registered.
	CreateUser(ctx context.Context, account usermodel.User, verificationCode string) (usermodel.User, error)
	UserByEmail(ctx context.Context, email string) (usermodel.User, error)
	UserByUserID(ctx context.Context, userID string) (usermodel.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]usermodel.Info, error)
	// VerifyUser consumes a verification code; ErrInvalidCode when no
	// unverified account carries it.
	VerifyUser(ctx context.Context, code string) (usermodel.User, error)
}

// TokenIssuer mints bearer tokens for authenticated accounts.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// Service implements account management on top of the store.
type Service struct {
	store   Store
	tokens  TokenIssuer
	mailer  mail.Mailer
	baseURL string
}

// NewService wires the account service. baseURL is the web client address
// used in verification links.
func NewService(store Store, tokens TokenIssuer, mailer mail.Mailer, baseURL string) *Service {
	return &Service{store: store, tokens: tokens, mailer: mailer, baseURL: baseURL}
}

// Register creates the account, sends a verification mail (best-effort)
// and returns a fresh token.
func (s *Service) Register(ctx context.Context, req usermodel.CreateRequest) (usermodel.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || !strings.Contains(email, "@") || username == "" || req.Password == "" {
		return usermodel.User{}, "", ErrInvalidRequest
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return usermodel.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	code := uuid.NewString()
	account, err := s.store.CreateUser(ctx, usermodel.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}, code)
	if err != nil {
		return usermodel.User{}, "", err
	}

	// Mail failures must never fail registration.
	body := fmt.Sprintf("Your verification code is: %s/verify/%s", s.baseURL, code)
	if err := s.mailer.Send(account.Email, "Verification Code", body); err != nil {
		log.Printf("[user] send verification mail to %s: %v", account.Email, err)
	}

	token, err := s.tokens.IssueToken(account.UserID)
	if err != nil {
		return usermodel.User{}, "", err
	}
	return account, token, nil
}

// Login checks the credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, req usermodel.LoginRequest) (usermodel.User, string, error) {
	account, err := s.store.UserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if errors.Is(err, ErrNotFound) {
		return usermodel.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return usermodel.User{}, "", err
	}
	if !auth.VerifyPassword(account.PasswordHash, req.Password) {
		return usermodel.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(account.UserID)
	if err != nil {
		return usermodel.User{}, "", err
	}
	return account, token, nil
}

// Verify marks the account carrying the code as verified.
func (s *Service) Verify(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidCode
	}
	_, err := s.store.VerifyUser(ctx, code)
	return err
}

// Find returns the public identity of a user.
func (s *Service) Find(ctx context.Context, userID string) (usermodel.Info, error) {
	account, err := s.store.UserByUserID(ctx, userID)
	if err != nil {
		return usermodel.Info{}, err
	}
	return account.Info(), nil
}

// List pages through all registered users.
func (s *Service) List(ctx context.Context, offset, limit int) ([]usermodel.Info, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListUsers(ctx, offset, limit)
}
