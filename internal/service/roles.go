package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

type RoleInput struct {
	Name          string   `json:"name" binding:"required,max=64"`
	Description   string   `json:"description" binding:"max=255"`
	TenantID      *string  `json:"tenantId"`
	PermissionIDs []string `json:"permissionIds"`
}

type RoleDetail struct {
	domain.Role
	Permissions []domain.Permission `json:"permissions"`
}

type RoleService struct {
	roles   domain.RoleRepository
	perms   domain.PermissionRepository
	tenants domain.TenantRepository
	authz   *AuthzService
	audit   *AuditService
	tx      domain.UnitOfWork
	now     func() time.Time
}

func NewRoleService(roles domain.RoleRepository, perms domain.PermissionRepository, tenants domain.TenantRepository,
	authz *AuthzService, audit *AuditService, tx domain.UnitOfWork, now func() time.Time) *RoleService {
	return &RoleService{roles: roles, perms: perms, tenants: tenants, authz: authz, audit: audit, tx: tx, now: clock(now)}
}

func (s *RoleService) List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Role], error) {
	return s.roles.ListActive(ctx, q, domain.Filter{})
}

func (s *RoleService) Get(ctx context.Context, id string) (*RoleDetail, error) {
	r, err := s.roles.FindActive(ctx, id, domain.Filter{})
	if err != nil {
		return nil, err
	}
	perms, err := s.perms.OfRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoleDetail{Role: *r, Permissions: perms}, nil
}

func (s *RoleService) Create(ctx context.Context, in RoleInput) (*RoleDetail, error) {
	actor := tenancy.ActorFromContext(ctx)
	var id string
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		now := s.now()
		tenantID := in.TenantID
		if tenantID != nil && *tenantID == "" {
			tenantID = nil
		}
		if tenantID != nil {
			if _, err := s.tenants.FindActive(ctx, *tenantID, domain.Filter{}); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fieldError("tenantId", "unknown tenant")
				}
				return err
			}
		}
		r, err := domain.NewRole(in.Name, in.Description, tenantID, false, actor, now)
		if err != nil {
			return err
		}
		if err := s.ensureUniqueName(ctx, r); err != nil {
			return err
		}
		if err := s.roles.Create(ctx, r); err != nil {
			return err
		}
		if len(in.PermissionIDs) > 0 {
			if err := s.replace(ctx, r, in.PermissionIDs, actor, now); err != nil {
				return err
			}
		}
		id = r.ID
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditCreate, EntityName: "role", EntityID: r.ID})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *RoleService) Update(ctx context.Context, id string, p domain.RolePatch) (*RoleDetail, error) {
	actor := tenancy.ActorFromContext(ctx)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		r, err := s.roles.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := r.Update(p, actor, s.now()); err != nil {
			return err
		}
		if err := s.ensureUniqueName(ctx, r); err != nil {
			return err
		}
		if err := s.roles.Save(ctx, r); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditUpdate, EntityName: "role", EntityID: id})
	})
	if err != nil {
		return nil, err
	}
	s.authz.InvalidateRole(ctx, id)
	return s.Get(ctx, id)
}

// SetPermissions replaces the complete permission set of a non-system role.
func (s *RoleService) SetPermissions(ctx context.Context, id string, permissionIDs []string) (*RoleDetail, error) {
	actor := tenancy.ActorFromContext(ctx)
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		r, err := s.roles.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := s.replace(ctx, r, permissionIDs, actor, s.now()); err != nil {
			return err
		}
		if err := s.roles.Save(ctx, r); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditAssignPermission, EntityName: "role", EntityID: id})
	})
	if err != nil {
		return nil, err
	}
	s.authz.InvalidateRole(ctx, id)
	return s.Get(ctx, id)
}

func (s *RoleService) replace(ctx context.Context, r *domain.Role, permissionIDs []string, actor string, now time.Time) error {
	links, err := r.ReplacePermissions(permissionIDs, actor, now)
	if err != nil {
		return err
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.PermissionID
	}
	found, err := s.perms.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		known := make(map[string]struct{}, len(found))
		for _, p := range found {
			known[p.ID] = struct{}{}
		}
		v := domain.NewValidationError()
		var missing []string
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				missing = append(missing, id)
			}
		}
		sort.Strings(missing)
		for _, id := range missing {
			v.Add("permissionIds", "unknown permission "+id)
		}
		return v
	}
	return s.roles.ReplacePermissions(ctx, r.ID, links)
}

// Delete refuses system roles and roles still assigned to users.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	actor := tenancy.ActorFromContext(ctx)
	return s.tx.Do(ctx, func(ctx context.Context) error {
		r, err := s.roles.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if r.IsSystemRole {
			return domain.ErrSystemRole
		}
		n, err := s.roles.CountAssignments(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrRoleInUse
		}
		if err := r.MarkAsDeleted(actor, s.now()); err != nil {
			return err
		}
		if err := s.roles.Save(ctx, r); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditDelete, EntityName: "role", EntityID: id})
	})
}

func (s *RoleService) ensureUniqueName(ctx context.Context, r *domain.Role) error {
	taken, err := s.roles.ExistsActive(ctx, domain.Filter{}.With("name", r.Name).With("tenant_id", r.TenantID).Except(r.ID))
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("role", "name", r.Name)
	}
	return nil
}
