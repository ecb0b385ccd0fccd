package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wms-admin/internal/domain"
	"wms-admin/internal/service"
	"wms-admin/internal/transport/http/ez"
	mdw "wms-admin/internal/transport/http/middleware"
)

func (d Deps) can(resource, action string) []gin.HandlerFunc {
	return []gin.HandlerFunc{mdw.RequirePermission(d.Authz, d.Log, resource, action)}
}

type activeIn struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type permissionIDsIn struct {
	PermissionIDs []string `json:"permissionIds"`
}

type tenantIn struct {
	TenantID *string `json:"tenantId"`
}

// ---------- tenants ----------

type tenantsModule struct{ d Deps }

func (m tenantsModule) MountAdmin(admin ez.EZ) {
	g, d := admin.Group("/tenants"), m.d
	const res = domain.ResourceTenants

	ez.RegisterAction(g, ez.Action[domain.ListQuery, domain.Page[domain.Tenant]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, q *domain.ListQuery) (domain.Page[domain.Tenant], error) {
			return d.Tenants.List(c.Request.Context(), *q)
		},
	})
	ez.RegisterAction(g, ez.Action[domain.ListQuery, domain.Page[domain.Tenant]]{
		Method: http.MethodGet, Path: "/deleted", Binder: ez.BindQuery, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, q *domain.ListQuery) (domain.Page[domain.Tenant], error) {
			return d.Tenants.ListDeleted(c.Request.Context(), *q)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *domain.Tenant]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Tenant, error) {
			return d.Tenants.Get(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[service.TenantInput, *domain.Tenant]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Status: http.StatusCreated,
		Guards: d.can(res, domain.ActionCreate),
		Handler: func(c *gin.Context, in *service.TenantInput) (*domain.Tenant, error) {
			return d.Tenants.Create(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(g, ez.Action[domain.TenantPatch, *domain.Tenant]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, p *domain.TenantPatch) (*domain.Tenant, error) {
			return d.Tenants.Update(c.Request.Context(), c.Param("id"), *p)
		},
	})
	ez.RegisterAction(g, ez.Action[activeIn, *domain.Tenant]{
		Method: http.MethodPatch, Path: "/:id/status", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, in *activeIn) (*domain.Tenant, error) {
			return d.Tenants.SetActive(c.Request.Context(), c.Param("id"), *in.IsActive)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, noContent]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent,
		Guards: d.can(res, domain.ActionDelete),
		Handler: func(c *gin.Context, _ *struct{}) (noContent, error) {
			return noContent{}, d.Tenants.Delete(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *domain.Tenant]{
		Method: http.MethodPost, Path: "/:id/restore", Binder: ez.BindNone, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Tenant, error) {
			return d.Tenants.Restore(c.Request.Context(), c.Param("id"))
		},
	})
}

// ---------- roles ----------

type rolesModule struct{ d Deps }

func (m rolesModule) MountAdmin(admin ez.EZ) {
	g, d := admin.Group("/roles"), m.d
	const res = domain.ResourceRoles

	ez.RegisterAction(g, ez.Action[domain.ListQuery, domain.Page[domain.Role]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, q *domain.ListQuery) (domain.Page[domain.Role], error) {
			return d.Roles.List(c.Request.Context(), *q)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *service.RoleDetail]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, _ *struct{}) (*service.RoleDetail, error) {
			return d.Roles.Get(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[service.RoleInput, *service.RoleDetail]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Status: http.StatusCreated,
		Guards: d.can(res, domain.ActionCreate),
		Handler: func(c *gin.Context, in *service.RoleInput) (*service.RoleDetail, error) {
			return d.Roles.Create(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(g, ez.Action[domain.RolePatch, *service.RoleDetail]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, p *domain.RolePatch) (*service.RoleDetail, error) {
			return d.Roles.Update(c.Request.Context(), c.Param("id"), *p)
		},
	})
	ez.RegisterAction(g, ez.Action[permissionIDsIn, *service.RoleDetail]{
		Method: http.MethodPut, Path: "/:id/permissions", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, in *permissionIDsIn) (*service.RoleDetail, error) {
			return d.Roles.SetPermissions(c.Request.Context(), c.Param("id"), in.PermissionIDs)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, noContent]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent,
		Guards: d.can(res, domain.ActionDelete),
		Handler: func(c *gin.Context, _ *struct{}) (noContent, error) {
			return noContent{}, d.Roles.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}

// ---------- permissions ----------

type permissionsModule struct{ d Deps }

func (m permissionsModule) MountAdmin(admin ez.EZ) {
	g, d := admin.Group("/permissions"), m.d
	const res = domain.ResourcePermissions

	ez.RegisterAction(g, ez.Action[domain.ListQuery, domain.Page[domain.Permission]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, q *domain.ListQuery) (domain.Page[domain.Permission], error) {
			return d.Permissions.List(c.Request.Context(), *q)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *domain.Permission]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Permission, error) {
			return d.Permissions.Get(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[service.PermissionInput, *domain.Permission]{
		Method: http.MethodPost, Path: "", Binder: ez.BindJSON, Status: http.StatusCreated,
		Guards: d.can(res, domain.ActionCreate),
		Handler: func(c *gin.Context, in *service.PermissionInput) (*domain.Permission, error) {
			return d.Permissions.Create(c.Request.Context(), *in)
		},
	})
	ez.RegisterAction(g, ez.Action[domain.PermissionPatch, *domain.Permission]{
		Method: http.MethodPut, Path: "/:id", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, p *domain.PermissionPatch) (*domain.Permission, error) {
			return d.Permissions.Update(c.Request.Context(), c.Param("id"), *p)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, noContent]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent,
		Guards: d.can(res, domain.ActionDelete),
		Handler: func(c *gin.Context, _ *struct{}) (noContent, error) {
			return noContent{}, d.Permissions.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}

// ---------- users ----------

type usersModule struct{ d Deps }

func (m usersModule) MountAdmin(admin ez.EZ) {
	g, d := admin.Group("/users"), m.d
	const res = domain.ResourceUsers

	ez.RegisterAction(g, ez.Action[service.UserQuery, domain.Page[domain.User]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, q *service.UserQuery) (domain.Page[domain.User], error) {
			return d.Users.List(c.Request.Context(), *q)
		},
	})
	ez.RegisterAction(g, ez.Action[service.UserQuery, domain.Page[domain.User]]{
		Method: http.MethodGet, Path: "/deleted", Binder: ez.BindQuery, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, q *service.UserQuery) (domain.Page[domain.User], error) {
			return d.Users.ListDeleted(c.Request.Context(), *q)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *service.UserDetail]{
		Method: http.MethodGet, Path: "/:id", Binder: ez.BindNone, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, _ *struct{}) (*service.UserDetail, error) {
			return d.Users.Get(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, service.Grants]{
		Method: http.MethodGet, Path: "/:id/permissions", Binder: ez.BindNone, Guards: d.can(res, domain.ActionRead),
		Handler: func(c *gin.Context, _ *struct{}) (service.Grants, error) {
			return d.Users.Permissions(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, messageOut]{
		Method: http.MethodPost, Path: "/:id/roles/:roleId", Binder: ez.BindNone, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, _ *struct{}) (messageOut, error) {
			if err := d.Users.AssignRole(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Role assigned"}, nil
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, messageOut]{
		Method: http.MethodDelete, Path: "/:id/roles/:roleId", Binder: ez.BindNone, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, _ *struct{}) (messageOut, error) {
			if err := d.Users.RevokeRole(c.Request.Context(), c.Param("id"), c.Param("roleId")); err != nil {
				return messageOut{}, err
			}
			return messageOut{Message: "Role revoked"}, nil
		},
	})
	ez.RegisterAction(g, ez.Action[activeIn, *domain.User]{
		Method: http.MethodPatch, Path: "/:id/status", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, in *activeIn) (*domain.User, error) {
			return d.Users.SetActive(c.Request.Context(), c.Param("id"), *in.IsActive)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *domain.User]{
		Method: http.MethodPost, Path: "/:id/unlock", Binder: ez.BindNone, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return d.Users.Unlock(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[tenantIn, *domain.User]{
		Method: http.MethodPut, Path: "/:id/tenant", Binder: ez.BindJSON, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, in *tenantIn) (*domain.User, error) {
			return d.Users.AssignTenant(c.Request.Context(), c.Param("id"), in.TenantID)
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, noContent]{
		Method: http.MethodDelete, Path: "/:id", Binder: ez.BindNone, Status: http.StatusNoContent,
		Guards: d.can(res, domain.ActionDelete),
		Handler: func(c *gin.Context, _ *struct{}) (noContent, error) {
			return noContent{}, d.Users.Delete(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(g, ez.Action[struct{}, *domain.User]{
		Method: http.MethodPost, Path: "/:id/restore", Binder: ez.BindNone, Guards: d.can(res, domain.ActionUpdate),
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return d.Users.Restore(c.Request.Context(), c.Param("id"))
		},
	})
}

// ---------- audit logs ----------

type auditModule struct{ d Deps }

type auditQuery struct {
	domain.ListQuery
	domain.AuditFilter
}

func (m auditModule) MountAdmin(admin ez.EZ) {
	d := m.d
	ez.RegisterAction(admin.Group("/audit-logs"), ez.Action[auditQuery, domain.Page[domain.AuditLog]]{
		Method: http.MethodGet, Path: "", Binder: ez.BindQuery,
		Guards: d.can(domain.ResourceAuditLogs, domain.ActionRead),
		Handler: func(c *gin.Context, q *auditQuery) (domain.Page[domain.AuditLog], error) {
			return d.Audit.List(c.Request.Context(), q.ListQuery, q.AuditFilter)
		},
	})
}
