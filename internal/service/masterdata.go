package service

import (
	"context"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

// StatusInput is the body of PATCH /:id/status.
type StatusInput struct {
	Status string `json:"status" binding:"required"`
}

// scoped implements the tenant-scoped read, delete and restore flows shared by
// every master-data resource.
type scoped[T any, P entityPtr[T]] struct {
	repo  domain.Repository[T]
	audit *AuditService
	tx    domain.UnitOfWork
	now   func() time.Time
	name  string
	// unique returns a conflict when an active row already claims one of e's unique values.
	unique func(ctx context.Context, e *T) error
}

func (s *scoped[T, P]) List(ctx context.Context, sc tenancy.Scope, q domain.ListQuery) (domain.Page[T], error) {
	return s.repo.ListActive(ctx, q, domain.ForTenant(sc.TenantID))
}

func (s *scoped[T, P]) ListDeleted(ctx context.Context, sc tenancy.Scope, q domain.ListQuery) (domain.Page[T], error) {
	return s.repo.ListDeleted(ctx, q, domain.ForTenant(sc.TenantID))
}

func (s *scoped[T, P]) Get(ctx context.Context, sc tenancy.Scope, id string) (*T, error) {
	return s.repo.FindActive(ctx, id, domain.ForTenant(sc.TenantID))
}

func (s *scoped[T, P]) create(ctx context.Context, e *T, check func(ctx context.Context, e *T) error) (*T, error) {
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		if check != nil {
			if err := check(ctx, e); err != nil {
				return err
			}
		}
		if err := s.unique(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return err
		}
		return s.record(ctx, domain.AuditCreate, P(e).Base().ID)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// update loads the active row, lets fn mutate it, then re-checks uniqueness and saves.
func (s *scoped[T, P]) update(ctx context.Context, sc tenancy.Scope, id string, fn func(ctx context.Context, e *T, now time.Time) error) (*T, error) {
	var out *T
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		e, err := s.repo.FindActive(ctx, id, domain.ForTenant(sc.TenantID))
		if err != nil {
			return err
		}
		if err := fn(ctx, e, s.now()); err != nil {
			return err
		}
		if err := s.unique(ctx, e); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, e); err != nil {
			return err
		}
		out = e
		return s.record(ctx, domain.AuditUpdate, id)
	})
	return out, err
}

func (s *scoped[T, P]) delete(ctx context.Context, sc tenancy.Scope, id string, guard func(ctx context.Context, e *T) error) error {
	return s.tx.Do(ctx, func(ctx context.Context) error {
		e, err := s.repo.FindActive(ctx, id, domain.ForTenant(sc.TenantID))
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(ctx, e); err != nil {
				return err
			}
		}
		P(e).Base().MarkAsDeleted(sc.Actor, s.now())
		if err := s.repo.Save(ctx, e); err != nil {
			return err
		}
		return s.record(ctx, domain.AuditDelete, id)
	})
}

func (s *scoped[T, P]) Delete(ctx context.Context, sc tenancy.Scope, id string) error {
	return s.delete(ctx, sc, id, nil)
}

// Restore reactivates a soft-deleted row unless its unique values were claimed meanwhile.
func (s *scoped[T, P]) Restore(ctx context.Context, sc tenancy.Scope, id string) (*T, error) {
	var out *T
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		e, err := s.repo.FindDeleted(ctx, id, domain.ForTenant(sc.TenantID))
		if err != nil {
			return err
		}
		if err := s.unique(ctx, e); err != nil {
			return err
		}
		P(e).Base().Restore(sc.Actor, s.now())
		if err := s.repo.Save(ctx, e); err != nil {
			return err
		}
		out = e
		return s.record(ctx, domain.AuditRestore, id)
	})
	return out, err
}

func (s *scoped[T, P]) record(ctx context.Context, action, id string) error {
	return s.audit.Record(ctx, AuditEntry{Action: action, EntityName: s.name, EntityID: id})
}

// uniqueIn builds a uniqueness check over one column, optionally per tenant.
func uniqueIn[T any, P entityPtr[T]](repo domain.Repository[T], entity, field, column string, perTenant bool,
	value func(*T) string, tenant func(*T) string) func(context.Context, *T) error {
	return func(ctx context.Context, e *T) error {
		v := value(e)
		f := domain.Filter{}.With(column, v).Except(P(e).Base().ID)
		if perTenant {
			f.TenantID = tenant(e)
		}
		taken, err := repo.ExistsActive(ctx, f)
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflict(entity, field, v)
		}
		return nil
	}
}

type MasterDataDeps struct {
	Companies  domain.Repository[domain.Company]
	Warehouses domain.Repository[domain.Warehouse]
	Customers  domain.Repository[domain.Customer]
	Products   domain.Repository[domain.Product]
	Audit      *AuditService
	Tx         domain.UnitOfWork
	Now        func() time.Time
}
