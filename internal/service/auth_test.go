package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

const goodPassword = "Secr3tPass"

func TestLoginIssuesTokensAndResetsCounters(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	info := e.register(t, "ana", goodPassword)
	assert.Equal(t, []string{domain.RoleViewer}, info.Roles)

	pair, err := e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Len(t, pair.RefreshToken, 43)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.WithinDuration(t, e.clock.Now().Add(time.Hour), pair.ExpiresAt, time.Second)
	assert.WithinDuration(t, e.clock.Now().Add(7*24*time.Hour), pair.RefreshTokenExpiresAt, time.Second)
	assert.Contains(t, pair.User.Permissions, "products:read")

	claims, err := e.auth.JWT.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.Subject)
	assert.Equal(t, []string{domain.RoleViewer}, claims.Roles)

	u, err := e.users.FindActive(ctx, info.ID, domain.Filter{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, u.RefreshToken, "only the digest is stored")
	require.NotNil(t, u.LastLoginAt)

	byEmail, err := e.auth.Login(ctx, LoginInput{Login: "ana@example.com", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, info.ID, byEmail.User.ID)
}

func TestRememberMeExtendsRefreshWindow(t *testing.T) {
	e := newEnv(t, nil)
	e.register(t, "ana", goodPassword)
	pair, err := e.auth.Login(context.Background(), LoginInput{Login: "ana", Password: goodPassword, RememberMe: true})
	require.NoError(t, err)
	assert.WithinDuration(t, e.clock.Now().Add(30*24*time.Hour), pair.RefreshTokenExpiresAt, time.Second)
}

func TestUnknownUserAndWrongPasswordAreIndistinguishable(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.register(t, "ana", goodPassword)

	_, errUnknown := e.auth.Login(ctx, LoginInput{Login: "nobody", Password: goodPassword})
	_, errWrong := e.auth.Login(ctx, LoginInput{Login: "ana", Password: "wrong-pass1"})
	require.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, domain.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	info := e.register(t, "ana", goodPassword)

	for i := 1; i <= 5; i++ {
		_, err := e.auth.Login(ctx, LoginInput{Login: "ana", Password: "wrong-pass1"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials, "attempt %d", i)

		u, err := e.users.FindActive(ctx, info.ID, domain.Filter{})
		require.NoError(t, err)
		assert.Equal(t, i, u.FailedLoginAttempts, "failure counter must be committed")
	}

	u, err := e.users.FindActive(ctx, info.ID, domain.Filter{})
	require.NoError(t, err)
	require.NotNil(t, u.LockoutEnd)
	assert.WithinDuration(t, e.clock.Now().Add(30*time.Minute), *u.LockoutEnd, time.Second)

	_, err = e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.ErrorIs(t, err, domain.ErrAccountLocked, "correct password is refused while locked")

	e.clock.Advance(30*time.Minute + time.Second)
	_, err = e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.NoError(t, err)

	u, err = e.users.FindActive(ctx, info.ID, domain.Filter{})
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockoutEnd)

	actions := e.auditActions(t, domain.AuditFilter{UserID: info.ID})
	assert.Contains(t, actions, domain.AuditLockout)
	assert.Contains(t, actions, domain.AuditLoginFailed)
	assert.Contains(t, actions, domain.AuditLogin)
}

func TestOversizedClientInputStillCountsFailures(t *testing.T) {
	e := newEnv(t, nil)
	e.strictAudit()
	info := e.register(t, "ana", goodPassword)

	ctx := tenancy.WithClient(context.Background(), tenancy.Client{
		IP:        "203.0.113.9",
		UserAgent: strings.Repeat("a", 254) + "é",
		RequestID: strings.Repeat("r", 100),
	})
	for i := 1; i <= 5; i++ {
		_, err := e.auth.Login(ctx, LoginInput{Login: "ana", Password: "wrong-pass1"})
		require.ErrorIs(t, err, domain.ErrInvalidCredentials, "attempt %d", i)
	}
	u, err := e.users.FindActive(ctx, info.ID, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 5, u.FailedLoginAttempts)
	require.NotNil(t, u.LockoutEnd)

	_, err = e.auth.Login(ctx, LoginInput{Login: strings.Repeat("x", 200), Password: goodPassword})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	page, err := e.audit.List(context.Background(), domain.ListQuery{Size: 100}, domain.AuditFilter{Action: domain.AuditLoginFailed})
	require.NoError(t, err)
	require.Len(t, page.Items, 6)
	for _, a := range page.Items {
		assert.True(t, utf8.ValidString(a.UserAgent))
		assert.LessOrEqual(t, len(a.UserAgent), domain.AuditUserAgentSize)
		assert.Len(t, a.RequestID, domain.AuditRequestIDSize)
		assert.LessOrEqual(t, len(a.Username), domain.AuditUsernameSize)
	}
}

func TestAdminUnlockClearsLockout(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	info := e.register(t, "ana", goodPassword)
	for i := 0; i < 5; i++ {
		_, _ = e.auth.Login(ctx, LoginInput{Login: "ana", Password: "wrong-pass1"})
	}
	_, err := e.userSvc.Unlock(ctx, info.ID)
	require.NoError(t, err)
	_, err = e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.NoError(t, err)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	info := e.register(t, "ana", goodPassword)
	_, err := e.userSvc.SetActive(ctx, info.ID, false)
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.register(t, "ana", goodPassword)
	first, err := e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.NoError(t, err)

	second, err := e.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = e.auth.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken, "old token is dead after rotation")

	_, err = e.auth.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsExpiredAndUnknownTokens(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.register(t, "ana", goodPassword)
	pair, err := e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.NoError(t, err)

	_, err = e.auth.Refresh(ctx, "not-a-token")
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	e.clock.Advance(7*24*time.Hour + time.Minute)
	_, err = e.auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	info := e.register(t, "ana", goodPassword)
	pair, err := e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.NoError(t, err)

	require.NoError(t, e.auth.Logout(ctx, info.ID))
	_, err = e.auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrInvalidRefreshToken)

	_, err = e.auth.JWT.Parse(pair.AccessToken)
	assert.NoError(t, err, "access tokens live until expiry")
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	e.register(t, "ana", goodPassword)

	_, err := e.auth.Register(ctx, RegisterInput{Username: "ana", Email: "other@example.com", Password: goodPassword, ConfirmPassword: goodPassword})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.auth.Register(ctx, RegisterInput{Username: "bob", Email: "ana@example.com", Password: goodPassword, ConfirmPassword: goodPassword})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = e.auth.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short", ConfirmPassword: "other"})
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "password")
	assert.Contains(t, v.Fields, "confirmPassword")

	_, err = e.auth.Register(ctx, RegisterInput{Username: "ANA", Email: "ANA2@example.com", Password: goodPassword, ConfirmPassword: goodPassword})
	require.NoError(t, err, "usernames compare case-sensitively")
}

func TestRegisterIntoTenantHonoursLimit(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	limit := 1
	tn, err := e.tenantSvc.Create(ctx, TenantInput{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	_, err = e.tenantSvc.Update(ctx, tn.ID, domain.TenantPatch{MaxUsers: &limit})
	require.NoError(t, err)

	in := RegisterInput{Username: "ana", Email: "ana@example.com", Password: goodPassword, ConfirmPassword: goodPassword, TenantSlug: "acme"}
	u, err := e.auth.Register(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, u.TenantID)
	assert.Equal(t, tn.ID, *u.TenantID)

	in.Username, in.Email = "bob", "bob@example.com"
	_, err = e.auth.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrTenantFull)

	in.TenantSlug = "nope"
	_, err = e.auth.Register(ctx, in)
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "tenantSlug")
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	info := e.register(t, "ana", goodPassword)

	err := e.auth.ChangePassword(ctx, info.ID, ChangePasswordInput{CurrentPassword: "wrong-pass1", NewPassword: "N3wPassword", ConfirmPassword: "N3wPassword"})
	require.ErrorIs(t, err, domain.ErrPasswordMismatch)

	err = e.auth.ChangePassword(ctx, info.ID, ChangePasswordInput{CurrentPassword: goodPassword, NewPassword: "N3wPassword", ConfirmPassword: "N3wPassword"})
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, LoginInput{Login: "ana", Password: goodPassword})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, LoginInput{Login: "ana", Password: "N3wPassword"})
	require.NoError(t, err)
}

func TestMeReturnsProfileAndGrants(t *testing.T) {
	e := newEnv(t, nil)
	info := e.register(t, "ana", goodPassword)
	me, err := e.auth.Me(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test User", me.FullName)
	assert.Equal(t, []string{domain.RoleViewer}, me.Roles)
	assert.ElementsMatch(t, []string{"companies:read", "customers:read", "products:read", "warehouses:read"}, me.Permissions)
}
