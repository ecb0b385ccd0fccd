package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wms-admin/internal/domain"
)

type RoleRepo struct {
	*Store[domain.Role, *domain.Role]
}

func NewRoleRepo(db *gorm.DB) *RoleRepo {
	return &RoleRepo{Store: NewStore[domain.Role](db, "role", "name", "description")}
}

// FindByName looks in the given tenant scope; nil means global roles.
func (r *RoleRepo) FindByName(ctx context.Context, name string, tenantID *string) (*domain.Role, error) {
	var out domain.Role
	q := applyFilter(domain.Filter{}.With("tenant_id", tenantID))(Active(r.model(ctx)))
	err := q.Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("role", name)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplacePermissions swaps the whole link set of a role.
func (r *RoleRepo) ReplacePermissions(ctx context.Context, roleID string, links []domain.RolePermission) error {
	db := r.conn(ctx)
	if err := db.Where("role_id = ?", roleID).Delete(&domain.RolePermission{}).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	return db.Create(&links).Error
}

func (r *RoleRepo) CountAssignments(ctx context.Context, roleID string) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&domain.UserRole{}).Where("role_id = ?", roleID).Count(&n).Error
	return n, err
}
