package service

import (
	"context"
	"time"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
)

// ProductService manages products. SKU is unique per tenant.
type ProductService struct {
	scoped[domain.Product, *domain.Product]
}

func NewProductService(d MasterDataDeps) *ProductService {
	return &ProductService{scoped[domain.Product, *domain.Product]{
		repo: d.Products, audit: d.Audit, tx: d.Tx, now: clock(d.Now), name: "product",
		unique: uniqueIn[domain.Product](d.Products, "product", "sku", "sku", true,
			func(p *domain.Product) string { return p.SKU },
			func(p *domain.Product) string { return p.TenantID }),
	}}
}

func (s *ProductService) Create(ctx context.Context, sc tenancy.Scope, in domain.ProductInput) (*domain.Product, error) {
	p, err := domain.NewProduct(sc.TenantID, in, sc.Actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.create(ctx, p, nil)
}

func (s *ProductService) Update(ctx context.Context, sc tenancy.Scope, id string, patch domain.ProductPatch) (*domain.Product, error) {
	return s.update(ctx, sc, id, func(_ context.Context, p *domain.Product, now time.Time) error {
		return p.Apply(patch, sc.Actor, now)
	})
}

func (s *ProductService) UpdateStatus(ctx context.Context, sc tenancy.Scope, id string, status string) (*domain.Product, error) {
	return s.update(ctx, sc, id, func(_ context.Context, p *domain.Product, now time.Time) error {
		return p.UpdateStatus(domain.ProductStatus(status), sc.Actor, now)
	})
}
