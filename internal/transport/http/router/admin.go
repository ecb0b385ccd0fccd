package router

import (
	"github.com/gin-gonic/gin"

	"wms-admin/internal/transport/http/ez"
	mdw "wms-admin/internal/transport/http/middleware"
)

// NewAdminEngine serves /admin/v1. Every route requires a bearer token; each
// action additionally checks its own permission.
func NewAdminEngine(d Deps, o Options) *gin.Engine {
	r := newEngine(d, o, "admin")

	var reg Registry
	reg.Register(
		tenantsModule{d},
		rolesModule{d},
		permissionsModule{d},
		usersModule{d},
		auditModule{d},
	)
	reg.MountAllAdmin(ez.New(r.Group("/admin/v1", mdw.AuthJWT(d.JWT)), d.Log))
	return r
}
