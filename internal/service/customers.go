package service

import (
	"context"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

// CustomerService manages customers. The document number is unique per tenant.
type CustomerService struct {
	scoped[domain.Customer, *domain.Customer]
}

func NewCustomerService(d MasterDataDeps) *CustomerService {
	return &CustomerService{scoped[domain.Customer, *domain.Customer]{
		repo: d.Customers, audit: d.Audit, tx: d.Tx, now: clock(d.Now), name: "customer",
		unique: uniqueIn[domain.Customer](d.Customers, "customer", "documentNumber", "document_number", true,
			func(c *domain.Customer) string { return c.DocumentNumber },
			func(c *domain.Customer) string { return c.TenantID }),
	}}
}

func (s *CustomerService) Create(ctx context.Context, sc tenancy.Scope, in domain.CustomerInput) (*domain.Customer, error) {
	c, err := domain.NewCustomer(sc.TenantID, in, sc.Actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.create(ctx, c, nil)
}

func (s *CustomerService) Update(ctx context.Context, sc tenancy.Scope, id string, p domain.CustomerPatch) (*domain.Customer, error) {
	return s.update(ctx, sc, id, func(_ context.Context, c *domain.Customer, now time.Time) error {
		return c.Apply(p, sc.Actor, now)
	})
}
