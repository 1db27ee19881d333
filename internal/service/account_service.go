package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
)

// Authenticator is the sign-up/sign-in collaborator.
type Authenticator interface {
	SignUp(ctx context.Context, name, contact, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	User(ctx context.Context, id string) (*domain.User, error)
}

type SignUpInput struct {
	Name     string
	Contact  string
	Email    string
	Password string
}

// AuthResult carries the resumed checkout when the session asked for one before login.
type AuthResult struct {
	User          *domain.User
	Checkout      *CheckoutResult
	CheckoutError error
}

// AccountService binds authentication to sessions.
type AccountService struct {
	auth     Authenticator
	sessions session.Store
	checkout *CheckoutService
}

func NewAccountService(a Authenticator, sessions session.Store, checkout *CheckoutService) *AccountService {
	return &AccountService{auth: a, sessions: sessions, checkout: checkout}
}

func (s *AccountService) SignUp(ctx context.Context, sess *session.Session, in SignUpInput) (*AuthResult, error) {
	u, err := s.auth.SignUp(ctx, in.Name, in.Contact, in.Email, in.Password)
	if err != nil {
		return nil, mapAuthErr(err)
	}
	return s.signedIn(ctx, sess, u)
}

func (s *AccountService) SignIn(ctx context.Context, sess *session.Session, email, password string) (*AuthResult, error) {
	u, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, mapAuthErr(err)
	}
	return s.signedIn(ctx, sess, u)
}

// signedIn stores the user on the session and resumes a checkout requested before
// login. The flag is cleared before checkout runs, so the resume happens at most once.
func (s *AccountService) signedIn(ctx context.Context, sess *session.Session, u *domain.User) (*AuthResult, error) {
	resume := sess.CheckoutAfterLogin
	sess.UserID = u.ID
	sess.CheckoutAfterLogin = false
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	slog.Info("User signed in", "user", u.ID, "session", sess.ID)

	res := &AuthResult{User: u}
	if !resume {
		return res, nil
	}
	res.Checkout, res.CheckoutError = s.checkout.CheckoutSession(ctx, sess)
	if res.CheckoutError != nil {
		slog.Warn("Resumed checkout failed", "user", u.ID, "err", res.CheckoutError)
	}
	return res, nil
}

// SignOut drops the session and returns a fresh empty one.
func (s *AccountService) SignOut(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	fresh := session.New()
	if err := s.sessions.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return fresh, nil
}

// CurrentUser returns nil when the session is anonymous or its user no longer exists.
func (s *AccountService) CurrentUser(ctx context.Context, sess *session.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, nil
	}
	u, err := s.auth.User(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func mapAuthErr(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	default:
		return err
	}
}
