package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

type PermissionInput struct {
	Name        string `json:"name" binding:"max=128"`
	Resource    string `json:"resource" binding:"required,max=64"`
	Action      string `json:"action" binding:"required,max=32"`
	Module      string `json:"module" binding:"max=64"`
	Description string `json:"description" binding:"max=255"`
}

type PermissionService struct {
	perms  domain.PermissionRepository
	access domain.AccessRepository
	authz  *AuthzService
	audit  *AuditService
	tx     domain.UnitOfWork
	now    func() time.Time
}

func NewPermissionService(perms domain.PermissionRepository, access domain.AccessRepository, authz *AuthzService, audit *AuditService, tx domain.UnitOfWork, now func() time.Time) *PermissionService {
	return &PermissionService{perms: perms, access: access, authz: authz, audit: audit, tx: tx, now: clock(now)}
}

func (s *PermissionService) List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Permission], error) {
	return s.perms.ListActive(ctx, q, domain.Filter{})
}

func (s *PermissionService) Get(ctx context.Context, id string) (*domain.Permission, error) {
	return s.perms.FindActive(ctx, id, domain.Filter{})
}

func (s *PermissionService) Create(ctx context.Context, in PermissionInput) (*domain.Permission, error) {
	p, err := domain.NewPermission(in.Name, in.Resource, in.Action, in.Module, in.Description, tenancy.ActorFromContext(ctx), s.now())
	if err != nil {
		return nil, err
	}
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		taken, err := s.perms.ExistsActive(ctx, domain.Filter{}.With("resource", p.Resource).With("action", p.Action))
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflict("permission", "key", p.Key())
		}
		if err := s.perms.Create(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditCreate, EntityName: "permission", EntityID: p.ID})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PermissionService) Update(ctx context.Context, id string, patch domain.PermissionPatch) (*domain.Permission, error) {
	var out *domain.Permission
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		p, err := s.perms.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := p.Apply(patch, tenancy.ActorFromContext(ctx), s.now()); err != nil {
			return err
		}
		if err := s.perms.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditUpdate, EntityName: "permission", EntityID: id})
	})
	return out, err
}

// Delete soft-deletes the permission and unlinks it from every custom role.
// A permission granted to a system role cannot be deleted.
func (s *PermissionService) Delete(ctx context.Context, id string) error {
	var affected []string
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		p, err := s.perms.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		held, err := s.perms.SystemRolesHolding(ctx, id)
		if err != nil {
			return err
		}
		if len(held) > 0 {
			return fmt.Errorf("%w: permission %s is granted to %s", domain.ErrSystemRole, p.Key(), strings.Join(held, ", "))
		}
		if affected, err = s.access.UserIDsWithPermission(ctx, id); err != nil {
			return err
		}
		if err := s.perms.RemoveLinks(ctx, id); err != nil {
			return err
		}
		p.MarkAsDeleted(tenancy.ActorFromContext(ctx), s.now())
		if err := s.perms.Save(ctx, p); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditDelete, EntityName: "permission", EntityID: id})
	})
	if err != nil {
		return err
	}
	s.authz.Invalidate(ctx, affected...)
	return nil
}
