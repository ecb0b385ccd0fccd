package domain

import "context"

// Repository reads only active rows unless the method name says otherwise.
type Repository[T any] interface {
	Create(ctx context.Context, e *T) error
	Save(ctx context.Context, e *T) error
	FindActive(ctx context.Context, id string, f Filter) (*T, error)
	FindDeleted(ctx context.Context, id string, f Filter) (*T, error)
	ListActive(ctx context.Context, q ListQuery, f Filter) (Page[T], error)
	ListDeleted(ctx context.Context, q ListQuery, f Filter) (Page[T], error)
	ExistsActive(ctx context.Context, f Filter) (bool, error)
	CountActive(ctx context.Context, f Filter) (int64, error)
}

type UserRepository interface {
	Repository[User]
	FindByLogin(ctx context.Context, login string) (*User, error)
	FindByRefreshToken(ctx context.Context, digest string) (*User, error)
}

type RoleRepository interface {
	Repository[Role]
	FindByName(ctx context.Context, name string, tenantID *string) (*Role, error)
	ReplacePermissions(ctx context.Context, roleID string, links []RolePermission) error
	CountAssignments(ctx context.Context, roleID string) (int64, error)
}

type PermissionRepository interface {
	Repository[Permission]
	FindByIDs(ctx context.Context, ids []string) ([]Permission, error)
	FindByKey(ctx context.Context, resource, action string) (*Permission, error)
	OfRole(ctx context.Context, roleID string) ([]Permission, error)
	RemoveLinks(ctx context.Context, permissionID string) error
	// SystemRolesHolding names the active system roles linked to the permission.
	SystemRolesHolding(ctx context.Context, permissionID string) ([]string, error)
}

// AccessRepository walks the User→UserRole→Role→RolePermission→Permission chain.
type AccessRepository interface {
	AssignRole(ctx context.Context, link UserRole) error
	RevokeRole(ctx context.Context, userID, roleID string) (bool, error)
	HasRole(ctx context.Context, userID, roleID string) (bool, error)
	RolesOf(ctx context.Context, userID string) ([]Role, error)
	PermissionsOf(ctx context.Context, userID string) ([]Permission, error)
	UserIDsWithRole(ctx context.Context, roleID string) ([]string, error)
	UserIDsWithPermission(ctx context.Context, permissionID string) ([]string, error)
}

type TenantRepository interface {
	Repository[Tenant]
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
}

type AuditRepository interface {
	Append(ctx context.Context, e *AuditLog) error
	List(ctx context.Context, q ListQuery, f AuditFilter) (Page[AuditLog], error)
}

// UnitOfWork runs fn inside one transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
