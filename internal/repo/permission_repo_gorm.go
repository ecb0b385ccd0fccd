package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"wms-admin/internal/domain"
)

type PermissionRepo struct {
	*Store[domain.Permission, *domain.Permission]
}

func NewPermissionRepo(db *gorm.DB) *PermissionRepo {
	return &PermissionRepo{Store: NewStore[domain.Permission](db, "permission", "name", "resource", "module")}
}

func (r *PermissionRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Permission, error) {
	out := []domain.Permission{}
	if len(ids) == 0 {
		return out, nil
	}
	err := Active(r.model(ctx)).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *PermissionRepo) FindByKey(ctx context.Context, resource, action string) (*domain.Permission, error) {
	var p domain.Permission
	err := Active(r.model(ctx)).
		Where("resource = ? AND action = ?", strings.ToLower(resource), strings.ToLower(action)).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("permission", domain.PermissionKey(resource, action))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepo) OfRole(ctx context.Context, roleID string) ([]domain.Permission, error) {
	out := []domain.Permission{}
	err := r.conn(ctx).
		Table("permissions AS p").
		Select("p.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Where("rp.role_id = ? AND p.is_deleted = ?", roleID, false).
		Order("p.resource, p.action").
		Find(&out).Error
	return out, err
}

func (r *PermissionRepo) RemoveLinks(ctx context.Context, permissionID string) error {
	return r.conn(ctx).Where("permission_id = ?", permissionID).Delete(&domain.RolePermission{}).Error
}

func (r *PermissionRepo) SystemRolesHolding(ctx context.Context, permissionID string) ([]string, error) {
	var names []string
	err := r.conn(ctx).
		Table("roles AS r").
		Joins("JOIN role_permissions rp ON rp.role_id = r.id").
		Where("rp.permission_id = ? AND r.is_system_role = ? AND r.is_deleted = ?", permissionID, true, false).
		Order("r.name").
		Pluck("r.name", &names).Error
	return names, err
}
