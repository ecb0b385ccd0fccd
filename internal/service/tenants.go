package service

import (
	"context"
	"fmt"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

type TenantInput struct {
	Name     string  `json:"name" binding:"required,max=128"`
	Slug     string  `json:"slug" binding:"required,max=64"`
	Domain   *string `json:"domain" binding:"omitempty,max=191"`
	MaxUsers int     `json:"maxUsers" binding:"min=0"`
}

type TenantService struct {
	tenants domain.TenantRepository
	users   domain.UserRepository
	audit   *AuditService
	tx      domain.UnitOfWork
	now     func() time.Time
}

func NewTenantService(tenants domain.TenantRepository, users domain.UserRepository, audit *AuditService, tx domain.UnitOfWork, now func() time.Time) *TenantService {
	return &TenantService{tenants: tenants, users: users, audit: audit, tx: tx, now: clock(now)}
}

func (s *TenantService) List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Tenant], error) {
	return s.tenants.ListActive(ctx, q, domain.Filter{})
}

func (s *TenantService) ListDeleted(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Tenant], error) {
	return s.tenants.ListDeleted(ctx, q, domain.Filter{})
}

func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.tenants.FindActive(ctx, id, domain.Filter{})
}

func (s *TenantService) Create(ctx context.Context, in TenantInput) (*domain.Tenant, error) {
	t, err := domain.NewTenant(in.Name, in.Slug, in.Domain, in.MaxUsers, tenancy.ActorFromContext(ctx), s.now())
	if err != nil {
		return nil, err
	}
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, t); err != nil {
			return err
		}
		if err := s.tenants.Create(ctx, t); err != nil {
			return err
		}
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditCreate, EntityName: "tenant", EntityID: t.ID})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TenantService) Update(ctx context.Context, id string, p domain.TenantPatch) (*domain.Tenant, error) {
	return s.mutate(ctx, id, domain.AuditUpdate, func(ctx context.Context, t *domain.Tenant, actor string, now time.Time) error {
		if err := t.Apply(p, actor, now); err != nil {
			return err
		}
		return s.ensureUnique(ctx, t)
	})
}

func (s *TenantService) SetActive(ctx context.Context, id string, active bool) (*domain.Tenant, error) {
	return s.mutate(ctx, id, domain.AuditUpdate, func(_ context.Context, t *domain.Tenant, actor string, now time.Time) error {
		t.SetActive(active, actor, now)
		return nil
	})
}

// Delete refuses tenants that still have active users.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, domain.AuditDelete, func(ctx context.Context, t *domain.Tenant, actor string, now time.Time) error {
		n, err := s.users.CountActive(ctx, domain.ForTenant(t.ID))
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: tenant has %d active users", domain.ErrInUse, n)
		}
		t.MarkAsDeleted(actor, now)
		return nil
	})
	return err
}

func (s *TenantService) Restore(ctx context.Context, id string) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		t, err := s.tenants.FindDeleted(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := s.ensureUnique(ctx, t); err != nil {
			return err
		}
		t.Restore(tenancy.ActorFromContext(ctx), s.now())
		if err := s.tenants.Save(ctx, t); err != nil {
			return err
		}
		out = t
		return s.audit.Record(ctx, AuditEntry{Action: domain.AuditRestore, EntityName: "tenant", EntityID: id})
	})
	return out, err
}

func (s *TenantService) mutate(ctx context.Context, id, action string, fn func(ctx context.Context, t *domain.Tenant, actor string, now time.Time) error) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		t, err := s.tenants.FindActive(ctx, id, domain.Filter{})
		if err != nil {
			return err
		}
		if err := fn(ctx, t, tenancy.ActorFromContext(ctx), s.now()); err != nil {
			return err
		}
		if err := s.tenants.Save(ctx, t); err != nil {
			return err
		}
		out = t
		return s.audit.Record(ctx, AuditEntry{Action: action, EntityName: "tenant", EntityID: id})
	})
	return out, err
}

func (s *TenantService) ensureUnique(ctx context.Context, t *domain.Tenant) error {
	taken, err := s.tenants.ExistsActive(ctx, domain.Filter{}.With("slug", t.Slug).Except(t.ID))
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("tenant", "slug", t.Slug)
	}
	if t.Domain == nil {
		return nil
	}
	taken, err = s.tenants.ExistsActive(ctx, domain.Filter{}.With("domain", *t.Domain).Except(t.ID))
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("tenant", "domain", *t.Domain)
	}
	return nil
}
