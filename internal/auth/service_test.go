package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/database/dbtest"
	"github.com/example/sunik/internal/models"
)

func newService(t *testing.T) *Service {
	return NewService(dbtest.Open(t), Options{
		IdentitySecret: "identity",
		SessionSecret:  "session",
		IDTokenTTL:     time.Hour,
		SessionTTL:     120 * time.Hour,
		AdminEmails:    []string{"Owner@Sunik.id"},
	})
}

func register(t *testing.T, svc *Service, email string) (*models.User, string) {
	t.Helper()
	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email: email, Password: "bubbletea", DisplayName: "Sari",
	})
	require.NoError(t, err)
	return user, token
}

func TestRegisterAssignsRoles(t *testing.T) {
	svc := newService(t)

	customer, _ := register(t, svc, "sari@example.com")
	admin, _ := register(t, svc, " owner@sunik.id ")

	assert.Equal(t, models.RoleCustomer, customer.Role)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "owner@sunik.id", admin.Email)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	svc := newService(t)
	register(t, svc, "sari@example.com")

	_, _, err := svc.Register(context.Background(), RegisterInput{Email: "SARI@example.com", Password: "bubbletea", DisplayName: "Sari"})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	_, _, err = svc.Register(context.Background(), RegisterInput{Email: "x", Password: "short", DisplayName: "S"})
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Details(), "email")
	assert.Contains(t, typed.Details(), "password")
}

func TestLoginAndSessionExchange(t *testing.T) {
	svc := newService(t)
	user, _ := register(t, svc, "sari@example.com")
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "sari@example.com", "wrong-password")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	_, idToken, err := svc.Login(ctx, "Sari@Example.com", "bubbletea")
	require.NoError(t, err)

	session, identity, err := svc.CreateSession(ctx, idToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	verified, err := svc.VerifySession(session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.UserID)
	assert.False(t, verified.IsAdmin())

	_, err = svc.VerifySession(idToken)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
	_, _, err = svc.CreateSession(ctx, session)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}

func TestProfileAndPassword(t *testing.T) {
	svc := newService(t)
	user, _ := register(t, svc, "sari@example.com")
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{DisplayName: "Sari Dewi"})
	require.NoError(t, err)
	assert.Equal(t, "Sari Dewi", updated.DisplayName)

	err = svc.ChangePassword(ctx, user.ID, "nope-nope", "milk-tea-2")
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	require.NoError(t, svc.ChangePassword(ctx, user.ID, "bubbletea", "milk-tea-2"))

	_, _, err = svc.Login(ctx, "sari@example.com", "milk-tea-2")
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	svc := newService(t)
	user, _ := register(t, svc, "sari@example.com")
	ctx := context.Background()

	require.NoError(t, svc.DeleteAccount(ctx, user.ID))

	_, err := svc.User(ctx, user.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.True(t, apperrors.Is(svc.DeleteAccount(ctx, user.ID), apperrors.CodeNotFound))
}
