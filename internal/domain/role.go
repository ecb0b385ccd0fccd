package domain

import (
	"sort"
	"strings"
	"time"
)

// Built-in role names created by the seeder.
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
	RoleOperator   = "Operator"
	RoleViewer     = "Viewer"
)

type Role struct {
	BaseEntity
	Name            string           `gorm:"size:64;not null;index" json:"name"`
	Description     string           `gorm:"size:255" json:"description"`
	IsSystemRole    bool             `gorm:"not null;default:false" json:"isSystemRole"`
	TenantID        *string          `gorm:"size:36;index" json:"tenantId,omitempty"`
	RolePermissions []RolePermission `gorm:"foreignKey:RoleID" json:"-"`
}

func (Role) TableName() string { return "roles" }

func NewRole(name, description string, tenantID *string, system bool, actor string, now time.Time) (*Role, error) {
	var r required
	name = r.check("name", name)
	if err := r.err(); err != nil {
		return nil, err
	}
	return &Role{
		BaseEntity:   newBase(actor, now),
		Name:         name,
		Description:  strings.TrimSpace(description),
		IsSystemRole: system,
		TenantID:     tenantID,
	}, nil
}

type RolePatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update applies p. System roles are immutable.
func (r *Role) Update(p RolePatch, actor string, now time.Time) error {
	if r.IsSystemRole {
		return ErrSystemRole
	}
	name := trimPtr(p.Name)
	if name != nil && *name == "" {
		v := NewValidationError()
		v.Add("name", "is required")
		return v
	}
	if name != nil {
		r.Name = *name
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	r.Touch(actor, now)
	return nil
}

// ReplacePermissions builds the complete new link set for the role.
func (r *Role) ReplacePermissions(permissionIDs []string, actor string, now time.Time) ([]RolePermission, error) {
	if r.IsSystemRole {
		return nil, ErrSystemRole
	}
	seen := make(map[string]struct{}, len(permissionIDs))
	links := make([]RolePermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, RolePermission{RoleID: r.ID, PermissionID: id, AssignedAt: now.UTC(), AssignedBy: actor})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].PermissionID < links[j].PermissionID })
	r.Touch(actor, now)
	return links, nil
}

// MarkAsDeleted shadows BaseEntity.MarkAsDeleted to refuse system roles.
func (r *Role) MarkAsDeleted(actor string, now time.Time) error {
	if r.IsSystemRole {
		return ErrSystemRole
	}
	r.BaseEntity.MarkAsDeleted(actor, now)
	return nil
}

type Permission struct {
	BaseEntity
	Name        string `gorm:"size:128;not null" json:"name"`
	Resource    string `gorm:"size:64;not null;index" json:"resource"`
	Action      string `gorm:"size:32;not null" json:"action"`
	Module      string `gorm:"size:64" json:"module"`
	Description string `gorm:"size:255" json:"description"`
}

func (Permission) TableName() string { return "permissions" }

// Standard CRUD actions used by the permission catalog.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

func NewPermission(name, resource, action, module, description, actor string, now time.Time) (*Permission, error) {
	var r required
	resource = r.check("resource", resource)
	action = r.check("action", action)
	name = strings.TrimSpace(name)
	if name == "" && resource != "" && action != "" {
		name = PermissionKey(resource, action)
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return &Permission{
		BaseEntity:  newBase(actor, now),
		Name:        name,
		Resource:    strings.ToLower(resource),
		Action:      strings.ToLower(action),
		Module:      strings.TrimSpace(module),
		Description: strings.TrimSpace(description),
	}, nil
}

type PermissionPatch struct {
	Name        *string `json:"name"`
	Module      *string `json:"module"`
	Description *string `json:"description"`
}

// Apply leaves the (Resource, Action) identity untouched.
func (p *Permission) Apply(patch PermissionPatch, actor string, now time.Time) error {
	if n := trimPtr(patch.Name); n != nil {
		if *n == "" {
			v := NewValidationError()
			v.Add("name", "is required")
			return v
		}
		p.Name = *n
	}
	if m := trimPtr(patch.Module); m != nil {
		p.Module = *m
	}
	if d := trimPtr(patch.Description); d != nil {
		p.Description = *d
	}
	p.Touch(actor, now)
	return nil
}

// Key is the authorization identity of the permission.
func (p *Permission) Key() string { return PermissionKey(p.Resource, p.Action) }

func PermissionKey(resource, action string) string {
	return strings.ToLower(resource) + ":" + strings.ToLower(action)
}

// RolePermission links a role to a permission.
type RolePermission struct {
	RoleID       string      `gorm:"primaryKey;size:36" json:"roleId"`
	PermissionID string      `gorm:"primaryKey;size:36;index" json:"permissionId"`
	AssignedAt   time.Time   `gorm:"not null" json:"assignedAt"`
	AssignedBy   string      `gorm:"size:128" json:"assignedBy"`
	Permission   *Permission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
}

func (RolePermission) TableName() string { return "role_permissions" }
