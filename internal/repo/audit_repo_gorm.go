package repo

import (
	"context"

	"gorm.io/gorm"

	"wms-admin/internal/core/database"
	"wms-admin/internal/domain"
)

// AuditRepo is append-only.
type AuditRepo struct{ db *gorm.DB }

func NewAuditRepo(db *gorm.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditLog) error {
	return database.Conn(ctx, r.db).Create(e).Error
}

func (r *AuditRepo) List(ctx context.Context, q domain.ListQuery, f domain.AuditFilter) (domain.Page[domain.AuditLog], error) {
	q = q.Normalize()
	db := database.Conn(ctx, r.db).Model(&domain.AuditLog{})
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	if f.EntityName != "" {
		db = db.Where("entity_name = ?", f.EntityName)
	}
	if f.EntityID != "" {
		db = db.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != "" {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.TenantID != "" {
		db = db.Where("tenant_id = ?", f.TenantID)
	}
	if f.Success != nil {
		db = db.Where("is_success = ?", *f.Success)
	}
	db = db.Session(&gorm.Session{})

	page := domain.Page[domain.AuditLog]{Page: q.Page, Size: q.Size, Items: []domain.AuditLog{}}
	if err := db.Count(&page.Total).Error; err != nil {
		return page, err
	}
	err := db.Order("timestamp DESC").Limit(q.Size).Offset(q.Offset()).Find(&page.Items).Error
	return page, err
}
