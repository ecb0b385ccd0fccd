package service

import (
	"context"
	"errors"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

// WarehouseService manages warehouses. Code is unique per tenant and the owning
// company must belong to the same tenant.
type WarehouseService struct {
	scoped[domain.Warehouse, *domain.Warehouse]
	companies domain.Repository[domain.Company]
}

func NewWarehouseService(d MasterDataDeps) *WarehouseService {
	s := &WarehouseService{companies: d.Companies}
	s.scoped = scoped[domain.Warehouse, *domain.Warehouse]{
		repo: d.Warehouses, audit: d.Audit, tx: d.Tx, now: clock(d.Now), name: "warehouse",
		unique: uniqueIn[domain.Warehouse](d.Warehouses, "warehouse", "code", "code", true,
			func(w *domain.Warehouse) string { return w.Code },
			func(w *domain.Warehouse) string { return w.TenantID }),
	}
	return s
}

func (s *WarehouseService) Create(ctx context.Context, sc tenancy.Scope, in domain.WarehouseInput) (*domain.Warehouse, error) {
	w, err := domain.NewWarehouse(sc.TenantID, in, sc.Actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.create(ctx, w, s.checkCompany)
}

func (s *WarehouseService) Update(ctx context.Context, sc tenancy.Scope, id string, p domain.WarehousePatch) (*domain.Warehouse, error) {
	return s.update(ctx, sc, id, func(ctx context.Context, w *domain.Warehouse, now time.Time) error {
		if err := w.Apply(p, sc.Actor, now); err != nil {
			return err
		}
		return s.checkCompany(ctx, w)
	})
}

func (s *WarehouseService) UpdateStatus(ctx context.Context, sc tenancy.Scope, id string, status string) (*domain.Warehouse, error) {
	return s.update(ctx, sc, id, func(_ context.Context, w *domain.Warehouse, now time.Time) error {
		return w.UpdateStatus(domain.WarehouseStatus(status), sc.Actor, now)
	})
}

// Restore also requires the owning company to be active again.
func (s *WarehouseService) Restore(ctx context.Context, sc tenancy.Scope, id string) (*domain.Warehouse, error) {
	var out *domain.Warehouse
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		w, err := s.repo.FindDeleted(ctx, id, domain.ForTenant(sc.TenantID))
		if err != nil {
			return err
		}
		if err := s.checkCompany(ctx, w); err != nil {
			return err
		}
		out, err = s.scoped.Restore(ctx, sc, id)
		return err
	})
	return out, err
}

func (s *WarehouseService) checkCompany(ctx context.Context, w *domain.Warehouse) error {
	_, err := s.companies.FindActive(ctx, w.CompanyID, domain.ForTenant(w.TenantID))
	if errors.Is(err, domain.ErrNotFound) {
		return fieldError("companyId", "company not found in this tenant")
	}
	return err
}
