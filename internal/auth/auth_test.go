package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/repository"
)

func newService(admins ...string) *Service {
	users := repository.NewMemoryUsers(repository.NewMemoryStore())
	return NewService(users, admins, WithBcryptCost(bcrypt.MinCost))
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	s := newService()

	u, err := s.SignUp(ctx, " Ana ", "11 99999-0000", "Ana@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.False(t, u.IsAdmin)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	in, err := s.SignIn(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, in.ID)

	_, err = s.SignIn(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := s.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "11 99999-0000", got.Contact)
}

func TestSignUp_Validation(t *testing.T) {
	ctx := context.Background()
	s := newService()

	_, err := s.SignUp(ctx, "", "", "a@b.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.SignUp(ctx, "Ana", "", "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.SignUp(ctx, "Ana", "", "a@b.com", "123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.SignUp(ctx, "Ana", "", "a@b.com", "secret1")
	require.NoError(t, err)
	_, err = s.SignUp(ctx, "Outra", "", "A@B.com", "secret2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAdminEmails(t *testing.T) {
	ctx := context.Background()
	s := newService(" Boss@Shop.com ")

	u, err := s.SignUp(ctx, "Boss", "", "boss@shop.com", "secret1")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	in, err := s.SignIn(ctx, "boss@shop.com", "secret1")
	require.NoError(t, err)
	assert.True(t, in.IsAdmin)
}
