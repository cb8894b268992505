package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexrentals/internal/app/services/auth"
	domainauth "apexrentals/internal/domain/auth"
	domainuser "apexrentals/internal/domain/user"
	"apexrentals/internal/infra/security"
	"apexrentals/internal/infra/storage/memory"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	issuer, err := security.NewJWTIssuer("0123456789abcdef0123456789abcdef", "test")
	require.NoError(t, err)
	return &auth.Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     issuer,
		SessionTTL: time.Hour,
	}
}

func TestRegisterLoginResolveLogout(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	reg, err := svc.Register(ctx, auth.RegisterParams{Email: " Owner@Example.com ", Name: "Olga", Password: "s3cret-pass", Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", reg.User.Email)
	assert.Equal(t, domainuser.RoleOwner, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "owner@example.com", Name: "Other", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)

	_, err = svc.Login(ctx, auth.LoginParams{Email: "owner@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	login, err := svc.Login(ctx, auth.LoginParams{Email: "OWNER@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resolved.User.ID)
	assert.Equal(t, domainuser.RoleOwner, resolved.Session.Role)

	require.NoError(t, svc.Logout(ctx, login.Token))
	_, err = svc.ResolveToken(ctx, login.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = svc.ResolveToken(ctx, reg.Token)
	assert.NoError(t, err, "other sessions stay valid")
}

func TestRegisterRules(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Name: "A", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Name: "A", Password: "long-enough", Role: "admin"})
	assert.ErrorIs(t, err, auth.ErrRoleNotAllowed)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Name: "A", Password: "long-enough", Role: "pilot"})
	assert.ErrorIs(t, err, domainuser.ErrInvalidRole)

	res, err := svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Name: "A", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleClient, res.User.Role)
}

func TestResolveRejectsForgedToken(t *testing.T) {
	svc := newService(t)
	_, err := svc.ResolveToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = svc.ResolveToken(context.Background(), "  ")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)
}

func TestLoginUpgradesHashAfterCostChange(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.Register(ctx, auth.RegisterParams{Email: "client@example.com", Name: "Cleo", Password: "s3cret-pass"})
	require.NoError(t, err)
	before, err := svc.Users.ByEmail(ctx, "client@example.com")
	require.NoError(t, err)

	stronger := security.BcryptHasher{Cost: 5}
	require.True(t, stronger.NeedsRehash(before.PasswordHash))
	svc.Passwords = stronger

	_, err = svc.Login(ctx, auth.LoginParams{Email: "client@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	after, err := svc.Users.ByEmail(ctx, "client@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	assert.False(t, stronger.NeedsRehash(after.PasswordHash))

	_, err = svc.Login(ctx, auth.LoginParams{Email: "client@example.com", Password: "s3cret-pass"})
	assert.NoError(t, err)
}

func TestResolveRejectsSessionAfterRoleChange(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	reg, err := svc.Register(ctx, auth.RegisterParams{Email: "owner@example.com", Name: "Olga", Password: "s3cret-pass", Role: "owner"})
	require.NoError(t, err)

	account, err := svc.Users.ByID(ctx, reg.User.ID)
	require.NoError(t, err)
	account.Role = domainuser.RoleClient
	require.NoError(t, svc.Users.Save(ctx, account))

	_, err = svc.ResolveToken(ctx, reg.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	login, err := svc.Login(ctx, auth.LoginParams{Email: "owner@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	resolved, err := svc.ResolveToken(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleClient, resolved.Session.Role)
}
