package router

import (
	"github.com/gin-gonic/gin"

	"wms-admin/internal/transport/http/ez"
)

// NewAPIEngine serves /api/v1: authentication and tenant-scoped master data.
func NewAPIEngine(d Deps, o Options) *gin.Engine {
	r := newEngine(d, o, "api")

	var reg Registry
	reg.Register(
		authModule{d},
		companiesModule(d),
		warehousesModule(d),
		customersModule(d),
		productsModule(d),
	)
	reg.MountAllAPI(ez.New(r.Group("/api/v1"), d.Log))
	return r
}
