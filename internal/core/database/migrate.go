package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wms-admin/internal/domain"
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&domain.Tenant{},
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.UserRole{},
		&domain.RolePermission{},
		&domain.AuditLog{},
		&domain.Company{},
		&domain.Warehouse{},
		&domain.Customer{},
		&domain.Product{},
	}
}

type activeIndex struct {
	name    string
	table   string
	columns string
	extra   string
}

// Unique among non-deleted rows: a soft-deleted row never blocks reuse of its value.
var activeUniqueIndexes = []activeIndex{
	{"ux_users_username_active", "users", "username", ""},
	{"ux_users_email_active", "users", "email", ""},
	{"ux_tenants_slug_active", "tenants", "slug", ""},
	{"ux_tenants_domain_active", "tenants", "domain", "domain IS NOT NULL"},
	{"ux_roles_tenant_name_active", "roles", "tenant_id, name", "tenant_id IS NOT NULL"},
	{"ux_roles_global_name_active", "roles", "name", "tenant_id IS NULL"},
	{"ux_permissions_resource_action_active", "permissions", "resource, action", ""},
	{"ux_companies_cnpj_active", "companies", "cnpj", ""},
	{"ux_warehouses_tenant_code_active", "warehouses", "tenant_id, code", ""},
	{"ux_customers_tenant_document_active", "customers", "tenant_id, document_number", ""},
	{"ux_products_tenant_sku_active", "products", "tenant_id, sku", ""},
}

// Migrate creates tables and the filtered unique indexes. MySQL has no partial
// indexes, so there uniqueness rests on the service-level checks alone.
func Migrate(db *gorm.DB, l *zap.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	dialect := db.Dialector.Name()
	switch dialect {
	case "postgres", "sqlite":
	default:
		if l != nil {
			l.Warn("partial unique indexes not supported; relying on service checks", zap.String("dialect", dialect))
		}
		return nil
	}
	for _, ix := range activeUniqueIndexes {
		where := "is_deleted = false"
		if ix.extra != "" {
			where += " AND " + ix.extra
		}
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE %s", ix.name, ix.table, ix.columns, where)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", ix.name, err)
		}
	}
	return nil
}
