package service

import (
	"context"
	"fmt"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

// CompanyService manages companies. CNPJ is unique across all tenants.
type CompanyService struct {
	scoped[domain.Company, *domain.Company]
	warehouses domain.Repository[domain.Warehouse]
}

func NewCompanyService(d MasterDataDeps) *CompanyService {
	s := &CompanyService{warehouses: d.Warehouses}
	s.scoped = scoped[domain.Company, *domain.Company]{
		repo: d.Companies, audit: d.Audit, tx: d.Tx, now: clock(d.Now), name: "company",
		unique: uniqueIn[domain.Company](d.Companies, "company", "cnpj", "cnpj", false,
			func(c *domain.Company) string { return c.CNPJ }, nil),
	}
	return s
}

func (s *CompanyService) Create(ctx context.Context, sc tenancy.Scope, in domain.CompanyInput) (*domain.Company, error) {
	c, err := domain.NewCompany(sc.TenantID, in, sc.Actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.create(ctx, c, nil)
}

func (s *CompanyService) Update(ctx context.Context, sc tenancy.Scope, id string, p domain.CompanyPatch) (*domain.Company, error) {
	return s.update(ctx, sc, id, func(_ context.Context, c *domain.Company, now time.Time) error {
		return c.Apply(p, sc.Actor, now)
	})
}

// Delete refuses companies that still own active warehouses.
func (s *CompanyService) Delete(ctx context.Context, sc tenancy.Scope, id string) error {
	return s.delete(ctx, sc, id, func(ctx context.Context, c *domain.Company) error {
		n, err := s.warehouses.CountActive(ctx, domain.ForTenant(sc.TenantID).With("company_id", c.ID))
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: company has %d active warehouses", domain.ErrInUse, n)
		}
		return nil
	})
}
