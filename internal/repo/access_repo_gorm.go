package repo

import (
	"context"

	"gorm.io/gorm"

	"wms-admin/internal/core/database"
	"wms-admin/internal/domain"
)

// AccessRepo resolves the User→UserRole→Role→RolePermission→Permission chain.
// Deleted roles and permissions never grant anything.
type AccessRepo struct{ db *gorm.DB }

func NewAccessRepo(db *gorm.DB) *AccessRepo { return &AccessRepo{db: db} }

func (r *AccessRepo) conn(ctx context.Context) *gorm.DB { return database.Conn(ctx, r.db) }

func (r *AccessRepo) AssignRole(ctx context.Context, link domain.UserRole) error {
	err := r.conn(ctx).Create(&link).Error
	if err != nil && isDupKey(err) {
		return domain.Conflict("role assignment", "roleId", link.RoleID)
	}
	return err
}

func (r *AccessRepo) RevokeRole(ctx context.Context, userID, roleID string) (bool, error) {
	res := r.conn(ctx).Where("user_id = ? AND role_id = ?", userID, roleID).Delete(&domain.UserRole{})
	return res.RowsAffected > 0, res.Error
}

func (r *AccessRepo) HasRole(ctx context.Context, userID, roleID string) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&domain.UserRole{}).Where("user_id = ? AND role_id = ?", userID, roleID).Count(&n).Error
	return n > 0, err
}

func (r *AccessRepo) RolesOf(ctx context.Context, userID string) ([]domain.Role, error) {
	out := []domain.Role{}
	err := r.conn(ctx).
		Table("roles AS r").
		Select("r.*").
		Joins("JOIN user_roles ur ON ur.role_id = r.id").
		Where("ur.user_id = ? AND r.is_deleted = ?", userID, false).
		Order("r.name").
		Find(&out).Error
	return out, err
}

func (r *AccessRepo) PermissionsOf(ctx context.Context, userID string) ([]domain.Permission, error) {
	out := []domain.Permission{}
	err := r.conn(ctx).
		Table("permissions AS p").
		Select("DISTINCT p.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Joins("JOIN roles r ON r.id = rp.role_id AND r.is_deleted = ?", false).
		Joins("JOIN user_roles ur ON ur.role_id = r.id").
		Where("ur.user_id = ? AND p.is_deleted = ?", userID, false).
		Order("p.resource, p.action").
		Find(&out).Error
	return out, err
}

func (r *AccessRepo) UserIDsWithRole(ctx context.Context, roleID string) ([]string, error) {
	var ids []string
	err := r.conn(ctx).Model(&domain.UserRole{}).Where("role_id = ?", roleID).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *AccessRepo) UserIDsWithPermission(ctx context.Context, permissionID string) ([]string, error) {
	var ids []string
	err := r.conn(ctx).
		Table("user_roles AS ur").
		Distinct("ur.user_id").
		Joins("JOIN role_permissions rp ON rp.role_id = ur.role_id").
		Where("rp.permission_id = ?", permissionID).
		Pluck("ur.user_id", &ids).Error
	return ids, err
}
