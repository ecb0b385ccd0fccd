package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/domain"
)

type LoginInput struct {
	Login      string `json:"username" binding:"required,max=191"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type RegisterInput struct {
	Username        string `json:"username" binding:"required,min=3,max=64"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FirstName       string `json:"firstName" binding:"max=100"`
	LastName        string `json:"lastName" binding:"max=100"`
	TenantSlug      string `json:"tenantSlug"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// UserInfo is the public profile returned by login, refresh, register and me.
type UserInfo struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	TenantID    *string    `json:"tenantId,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
}

type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	TokenType             string    `json:"tokenType"`
	ExpiresAt             time.Time `json:"expiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	User                  UserInfo  `json:"user"`
}

type AuthConfig struct {
	RefreshTTL    time.Duration
	RememberMeTTL time.Duration
	Lockout       domain.LockoutPolicy
	// DefaultRole is assigned on registration when a global role with that name exists.
	DefaultRole string
}

type AuthDeps struct {
	Users   domain.UserRepository
	Tenants domain.TenantRepository
	Roles   domain.RoleRepository
	Access  domain.AccessRepository
	Authz   *AuthzService
	Audit   *AuditService
	Tx      domain.UnitOfWork
	JWT     *auth.JWTer
	Hasher  auth.PasswordHasher
	Config  AuthConfig
	Now     func() time.Time
	Log     *zap.Logger
}

type AuthService struct {
	AuthDeps
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(d AuthDeps) *AuthService {
	if d.Config.RefreshTTL <= 0 {
		d.Config.RefreshTTL = 7 * 24 * time.Hour
	}
	if d.Config.Lockout.MaxFailedAttempts == 0 {
		d.Config.Lockout = domain.DefaultLockoutPolicy
	}
	d.Now = clock(d.Now)
	d.Log = orNop(d.Log)
	return &AuthService{AuthDeps: d}
}

// burn runs a comparison against a throwaway hash so unknown logins cost the
// same as wrong passwords.
func (s *AuthService) burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("wms-admin-timing-equalizer")
	})
	_ = s.Hasher.Verify(password, s.dummyHash)
}

// Login authenticates by username or email. Failure bookkeeping is committed
// before the failure is returned.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" || in.Password == "" {
		loginAttempts.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	var (
		pair    *TokenPair
		outcome error
	)
	err := s.Tx.Do(ctx, func(ctx context.Context) error {
		now := s.Now()
		u, err := s.Users.FindByLogin(ctx, login)
		if errors.Is(err, domain.ErrNotFound) {
			s.burn(in.Password)
			outcome = domain.ErrInvalidCredentials
			return s.Audit.Record(ctx, AuditEntry{Action: domain.AuditLoginFailed, EntityName: "user", Username: login, Err: outcome})
		}
		if err != nil {
			return err
		}
		fail := func(reason error) error {
			outcome = reason
			return s.Audit.Record(ctx, AuditEntry{
				Action: domain.AuditLoginFailed, EntityName: "user", EntityID: u.ID,
				UserID: &u.ID, Username: u.Username, TenantID: u.TenantID, Err: reason,
			})
		}
		if u.IsLockedOut(now) {
			return fail(domain.ErrAccountLocked)
		}
		if !s.Hasher.Verify(in.Password, u.PasswordHash) {
			locked := u.RecordFailedLogin(s.Config.Lockout, now)
			if err := s.Users.Save(ctx, u); err != nil {
				return err
			}
			if locked {
				accountLockouts.Inc()
				s.Log.Warn("account locked", zap.String("user_id", u.ID), zap.Int("attempts", u.FailedLoginAttempts))
				if err := s.Audit.Record(ctx, AuditEntry{
					Action: domain.AuditLockout, EntityName: "user", EntityID: u.ID,
					UserID: &u.ID, Username: u.Username, TenantID: u.TenantID,
				}); err != nil {
					return err
				}
			}
			return fail(domain.ErrInvalidCredentials)
		}
		if !u.IsActive {
			return fail(domain.ErrAccountInactive)
		}
		if u.TenantID != nil {
			t, err := s.Tenants.FindActive(ctx, *u.TenantID, domain.Filter{})
			if errors.Is(err, domain.ErrNotFound) || (err == nil && !t.Usable(now)) {
				return fail(domain.ErrAccountInactive)
			}
			if err != nil {
				return err
			}
		}
		u.RecordSuccessfulLogin(now)
		pair, err = s.issue(ctx, u, in.RememberMe, now)
		if err != nil {
			return err
		}
		if err := s.Users.Save(ctx, u); err != nil {
			return err
		}
		return s.Audit.Record(ctx, AuditEntry{
			Action: domain.AuditLogin, EntityName: "user", EntityID: u.ID,
			UserID: &u.ID, Username: u.Username, TenantID: u.TenantID,
		})
	})
	switch {
	case err != nil:
		loginAttempts.WithLabelValues("error").Inc()
		return nil, err
	case outcome != nil:
		loginAttempts.WithLabelValues(outcomeLabel(outcome)).Inc()
		return nil, outcome
	}
	loginAttempts.WithLabelValues("success").Inc()
	s.Log.Info("login", zap.String("user_id", pair.User.ID))
	return pair, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountLocked):
		return "locked"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	default:
		return "invalid"
	}
}

// Refresh exchanges a refresh token for a new pair. The presented token stops
// working as soon as the new one is stored.
func (s *AuthService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		tokenRefreshes.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRefreshToken
	}
	var (
		pair    *TokenPair
		outcome error
	)
	err := s.Tx.Do(ctx, func(ctx context.Context) error {
		now := s.Now()
		u, err := s.Users.FindByRefreshToken(ctx, auth.HashRefreshToken(token))
		if errors.Is(err, domain.ErrNotFound) {
			outcome = domain.ErrInvalidRefreshToken
			return nil
		}
		if err != nil {
			return err
		}
		if !u.RefreshTokenValid(now) || !u.IsActive || u.IsLockedOut(now) {
			outcome = domain.ErrInvalidRefreshToken
			return s.Audit.Record(ctx, AuditEntry{
				Action: domain.AuditRefresh, EntityName: "user", EntityID: u.ID,
				UserID: &u.ID, Username: u.Username, TenantID: u.TenantID, Err: outcome,
			})
		}
		pair, err = s.issue(ctx, u, false, now)
		if err != nil {
			return err
		}
		if err := s.Users.Save(ctx, u); err != nil {
			return err
		}
		return s.Audit.Record(ctx, AuditEntry{
			Action: domain.AuditRefresh, EntityName: "user", EntityID: u.ID,
			UserID: &u.ID, Username: u.Username, TenantID: u.TenantID,
		})
	})
	switch {
	case err != nil:
		tokenRefreshes.WithLabelValues("error").Inc()
		return nil, err
	case outcome != nil:
		tokenRefreshes.WithLabelValues("invalid").Inc()
		return nil, outcome
	}
	tokenRefreshes.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *AuthService) issue(ctx context.Context, u *domain.User, rememberMe bool, now time.Time) (*TokenPair, error) {
	g, err := s.Authz.Load(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	access, exp, err := s.JWT.IssueAccess(auth.Subject{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    g.Roles,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	ttl := s.Config.RefreshTTL
	if rememberMe && s.Config.RememberMeTTL > ttl {
		ttl = s.Config.RememberMeTTL
	}
	refreshExp := now.UTC().Add(ttl)
	u.IssueRefreshToken(auth.HashRefreshToken(refresh), refreshExp)
	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		TokenType:             "Bearer",
		ExpiresAt:             exp.UTC(),
		RefreshTokenExpiresAt: refreshExp,
		User:                  userInfo(u, g),
	}, nil
}

// Logout revokes the stored refresh token. Issued access tokens stay valid until expiry.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.Tx.Do(ctx, func(ctx context.Context) error {
		u, err := s.Users.FindActive(ctx, userID, domain.Filter{})
		if err != nil {
			return err
		}
		u.RevokeRefreshToken(s.Now())
		if err := s.Users.Save(ctx, u); err != nil {
			return err
		}
		return s.Audit.Record(ctx, AuditEntry{Action: domain.AuditLogout, EntityName: "user", EntityID: u.ID})
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if v := passwordProblems("newPassword", in.NewPassword, in.ConfirmPassword); v != nil {
		return v
	}
	var outcome error
	err := s.Tx.Do(ctx, func(ctx context.Context) error {
		u, err := s.Users.FindActive(ctx, userID, domain.Filter{})
		if err != nil {
			return err
		}
		if !s.Hasher.Verify(in.CurrentPassword, u.PasswordHash) {
			outcome = domain.ErrPasswordMismatch
			return s.Audit.Record(ctx, AuditEntry{Action: domain.AuditChangePassword, EntityName: "user", EntityID: u.ID, Err: outcome})
		}
		hash, err := s.Hasher.Hash(in.NewPassword)
		if err != nil {
			return passwordHashError(err)
		}
		u.ChangePasswordHash(hash, u.Username, s.Now())
		if err := s.Users.Save(ctx, u); err != nil {
			return err
		}
		return s.Audit.Record(ctx, AuditEntry{Action: domain.AuditChangePassword, EntityName: "user", EntityID: u.ID})
	})
	if err != nil {
		return err
	}
	return outcome
}

// Register creates a self-service account. With a tenant slug the user joins
// that tenant, subject to its activity and user limit.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserInfo, error) {
	if v := passwordProblems("password", in.Password, in.ConfirmPassword); v != nil {
		return nil, v
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, passwordHashError(err)
	}
	var info *UserInfo
	err = s.Tx.Do(ctx, func(ctx context.Context) error {
		now := s.Now()
		var tenantID *string
		if slug := strings.TrimSpace(in.TenantSlug); slug != "" {
			t, err := s.Tenants.FindBySlug(ctx, strings.ToLower(slug))
			if errors.Is(err, domain.ErrNotFound) {
				return fieldError("tenantSlug", "unknown tenant")
			}
			if err != nil {
				return err
			}
			if err := tenantAccepts(ctx, s.Users, t, now); err != nil {
				return err
			}
			tenantID = &t.ID
		}
		u, err := domain.NewUser(in.Username, in.Email, hash, in.FirstName, in.LastName, tenantID, "self-registration", now)
		if err != nil {
			return err
		}
		if err := ensureUniqueUser(ctx, s.Users, u); err != nil {
			return err
		}
		if err := s.Users.Create(ctx, u); err != nil {
			return err
		}
		if s.Config.DefaultRole != "" {
			r, err := s.Roles.FindByName(ctx, s.Config.DefaultRole, nil)
			switch {
			case err == nil:
				if err := s.Access.AssignRole(ctx, domain.UserRole{UserID: u.ID, RoleID: r.ID, AssignedAt: now, AssignedBy: "self-registration"}); err != nil {
					return err
				}
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}
		g, err := s.Authz.Load(ctx, u.ID)
		if err != nil {
			return err
		}
		ui := userInfo(u, g)
		info = &ui
		return s.Audit.Record(ctx, AuditEntry{
			Action: domain.AuditRegister, EntityName: "user", EntityID: u.ID,
			UserID: &u.ID, Username: u.Username, TenantID: u.TenantID,
		})
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*UserInfo, error) {
	u, err := s.Users.FindActive(ctx, userID, domain.Filter{})
	if err != nil {
		return nil, err
	}
	g, err := s.Authz.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := userInfo(u, &g)
	return &info, nil
}

func userInfo(u *domain.User, g *Grants) UserInfo {
	info := UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		TenantID:    u.TenantID,
		LastLoginAt: u.LastLoginAt,
		Roles:       []string{},
		Permissions: []string{},
	}
	if g != nil {
		info.Roles = append(info.Roles, g.Roles...)
		info.Permissions = append(info.Permissions, g.Permissions...)
	}
	return info
}

// tenantAccepts checks that t can take one more user.
func tenantAccepts(ctx context.Context, users domain.UserRepository, t *domain.Tenant, now time.Time) error {
	if !t.Usable(now) {
		return domain.ErrTenantInactive
	}
	if t.MaxUsers == 0 {
		return nil
	}
	n, err := users.CountActive(ctx, domain.ForTenant(t.ID))
	if err != nil {
		return err
	}
	if !t.HasCapacity(n) {
		return domain.ErrTenantFull
	}
	return nil
}

// ensureUniqueUser rejects a username or email held by another active user.
func ensureUniqueUser(ctx context.Context, users domain.UserRepository, u *domain.User) error {
	taken, err := users.ExistsActive(ctx, domain.Filter{}.With("username", u.Username).Except(u.ID))
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("user", "username", u.Username)
	}
	taken, err = users.ExistsActive(ctx, domain.Filter{}.With("email", u.Email).Except(u.ID))
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("user", "email", u.Email)
	}
	return nil
}

const minPasswordLength = 8

// passwordProblems enforces the password policy and confirmation match.
func passwordProblems(field, password, confirm string) error {
	v := domain.NewValidationError()
	if len(password) < minPasswordLength {
		v.Add(field, "must be at least 8 characters")
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		v.Add(field, "must contain a letter and a digit")
	}
	if password != confirm {
		v.Add("confirmPassword", "does not match")
	}
	return v.OrNil()
}

func passwordHashError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return fieldError("password", "must be at most 72 bytes")
	}
	return err
}
