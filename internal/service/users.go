package service

import (
	"context"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

type UserQuery struct {
	domain.ListQuery
	TenantID string `form:"tenantId"`
}

type UserDetail struct {
	domain.User
	Roles []string `json:"roles"`
}

type UserService struct {
	users   domain.UserRepository
	roles   domain.RoleRepository
	tenants domain.TenantRepository
	access  domain.AccessRepository
	authz   *AuthzService
	audit   *AuditService
	tx      domain.UnitOfWork
	now     func() time.Time
}

func NewUserService(users domain.UserRepository, roles domain.RoleRepository, tenants domain.TenantRepository,
	access domain.AccessRepository, authz *AuthzService, audit *AuditService, tx domain.UnitOfWork, now func() time.Time) *UserService {
	return &UserService{users: users, roles: roles, tenants: tenants, access: access, authz: authz, audit: audit, tx: tx, now: clock(now)}
}

func (s *UserService) List(ctx context.Context, q UserQuery) (domain.Page[domain.User], error) {
	return s.users.ListActive(ctx, q.ListQuery, domain.ForTenant(q.TenantID))
}

func (s *UserService) ListDeleted(ctx context.Context, q UserQuery) (domain.Page[domain.User], error) {
	return s.users.ListDeleted(ctx, q.ListQuery, domain.ForTenant(q.TenantID))
}

func (s *UserService) Get(ctx context.Context, id string) (*UserDetail, error) {
	u, err := s.users.FindActive(ctx, id, domain.Filter{})
	if err != nil {
		return nil, err
	}
	roles, err := s.access.RolesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &UserDetail{User: *u, Roles: make([]string, 0, len(roles))}
	for _, r := range roles {
		d.Roles = append(d.Roles, r.Name)
	}
	return d, nil
}

// Permissions returns the effective grants of a user.
func (s *UserService) Permissions(ctx context.Context, id string) (Grants, error) {
	if _, err := s.users.FindActive(ctx, id, domain.Filter{}); err != nil {
		return Grants{}, err
	}
	return s.authz.Resolve(ctx, id)
}

// AssignRole links a role. Tenant roles may only go to users of the same tenant.
func (s *UserService) AssignRole(ctx context.Context, userID, roleID string) error {
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		u, err := s.users.FindActive(ctx, userID, domain.Filter{})
		if err != nil {
			return err
		}
		r, err := s.roles.FindActive(ctx, roleID, domain.Filter{})
		if err != nil {
			return err
		}
		if r.TenantID != nil && (u.TenantID == nil || *u.TenantID != *r.TenantID) {
			return fieldError("roleId", "role belongs to another tenant")
		}
		has, err := s.access.HasRole(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if has {
			return domain.Conflict("role assignment", "role", r.Name)
		}
		link := domain.UserRole{UserID: userID, RoleID: roleID, AssignedAt: s.now().UTC(), AssignedBy: tenancy.ActorFromContext(ctx)}
		if err := s.access.AssignRole(ctx, link); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditAssignRole, EntityName: "user", EntityID: userID})
	})
	if err != nil {
		return err
	}
	s.authz.Invalidate(ctx, userID)
	return nil
}

func (s *UserService) RevokeRole(ctx context.Context, userID, roleID string) error {
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindActive(ctx, userID, domain.Filter{}); err != nil {
			return err
		}
		removed, err := s.access.RevokeRole(ctx, userID, roleID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.NotFound("role assignment", roleID)
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditRevokeRole, EntityName: "user", EntityID: userID})
	})
	if err != nil {
		return err
	}
	s.authz.Invalidate(ctx, userID)
	return nil
}

// SetActive toggles the account. Deactivation also revokes the refresh token.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	return s.mutate(ctx, id, domain.AuditUpdate, func(u *domain.User, actor string, now time.Time) error {
		u.SetActive(active, actor, now)
		if !active {
			u.RevokeRefreshToken(now)
		}
		return nil
	})
}

func (s *UserService) Unlock(ctx context.Context, id string) (*domain.User, error) {
	return s.mutate(ctx, id, domain.AuditUnlock, func(u *domain.User, actor string, now time.Time) error {
		u.Unlock(actor, now)
		return nil
	})
}

// AssignTenant binds the user to tenantID, or unbinds it when tenantID is nil.
func (s *UserService) AssignTenant(ctx context.Context, id string, tenantID *string) (*domain.User, error) {
	if tenantID != nil && *tenantID == "" {
		tenantID = nil
	}
	return s.mutate(ctx, id, domain.AuditUpdate, func(u *domain.User, actor string, now time.Time) error {
		if tenantID != nil && (u.TenantID == nil || *u.TenantID != *tenantID) {
			t, err := s.tenants.FindActive(ctx, *tenantID, domain.Filter{})
			if err != nil {
				return err
			}
			if err := tenantAccepts(ctx, s.users, t, now); err != nil {
				return err
			}
		}
		u.AssignTenant(tenantID, actor, now)
		u.RevokeRefreshToken(now)
		return nil
	})
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, domain.AuditDelete, func(u *domain.User, actor string, now time.Time) error {
		u.RevokeRefreshToken(now)
		u.MarkAsDeleted(actor, now)
		return nil
	})
	return err
}

// Restore brings a deleted user back if its username and email are still free.
func (s *UserService) Restore(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		u, err := s.users.FindDeleted(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := ensureUniqueUser(ctx, s.users, u); err != nil {
			return err
		}
		u.Restore(tenancy.ActorFromContext(ctx), s.now())
		if err := s.users.Save(ctx, u); err != nil {
			return err
		}
		out = u
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditRestore, EntityName: "user", EntityID: id})
	})
	return out, err
}

// mutate loads an active user, applies fn and saves it with an audit row, all in one
// transaction, then drops the cached grants.
func (s *UserService) mutate(ctx context.Context, id, action string, fn func(u *domain.User, actor string, now time.Time) error) (*domain.User, error) {
	var out *domain.User
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		u, err := s.users.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := fn(u, tenancy.ActorFromContext(ctx), s.now()); err != nil {
			return err
		}
		if err := s.users.Save(ctx, u); err != nil {
			return err
		}
		out = u
		return s.audit.Record(ctx, AuditEntry{Action: action, EntityName: "user", EntityID: id})
	})
	if err != nil {
		return nil, err
	}
	s.authz.Invalidate(ctx, id)
	return out, nil
}
