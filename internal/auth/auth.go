// Package auth signs users up and in. Sessions are handled by the caller.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

const minPasswordLength = 6

type Service struct {
	users  repository.UserRepository
	admins map[string]struct{}
	cost   int
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates the service; users whose email is in adminEmails get the admin flag.
func NewService(users repository.UserRepository, adminEmails []string, opts ...Option) *Service {
	s := &Service{users: users, admins: make(map[string]struct{}), cost: bcrypt.DefaultCost}
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			s.admins[e] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUp(ctx context.Context, name, contact, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || len(password) < minPasswordLength {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	_, admin := s.admins[email]
	u := domain.User{
		Email:        email,
		Name:         name,
		Contact:      strings.TrimSpace(contact),
		IsAdmin:      admin,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.applyAdmin(u)
	return u, nil
}

// User loads a user by id; repository.ErrNotFound passes through.
func (s *Service) User(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.applyAdmin(u)
	return u, nil
}

// applyAdmin lets admin email changes in config take effect for existing accounts.
func (s *Service) applyAdmin(u *domain.User) {
	if _, ok := s.admins[normalizeEmail(u.Email)]; ok {
		u.IsAdmin = true
	}
}
