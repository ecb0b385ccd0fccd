package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"wms-admin/internal/domain"
)

type TenantRepo struct {
	*Store[domain.Tenant, *domain.Tenant]
}

func NewTenantRepo(db *gorm.DB) *TenantRepo {
	return &TenantRepo{Store: NewStore[domain.Tenant](db, "tenant", "name", "slug", "domain")}
}

func (r *TenantRepo) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := Active(r.model(ctx)).Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("tenant", slug)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
