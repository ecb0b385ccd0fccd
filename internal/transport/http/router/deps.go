package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/service"
	"wms-admin/internal/tenancy"
)

// Deps are the services behind both HTTP surfaces.
type Deps struct {
	Log   *zap.Logger
	JWT   *auth.JWTer
	Ready func(context.Context) error // backs /health; nil means always ready

	Auth        *service.AuthService
	Authz       *service.AuthzService
	Audit       *service.AuditService
	Users       *service.UserService
	Roles       *service.RoleService
	Permissions *service.PermissionService
	Tenants     *service.TenantService
	Companies   *service.CompanyService
	Warehouses  *service.WarehouseService
	Customers   *service.CustomerService
	Products    *service.ProductService
}

// Options tune the middleware chain.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
	PerIPRPS       float64
	PerIPBurst     int
	MaxTrackedIPs  int
	MaxConcurrent  int64
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 4 << 20
	}
	if o.RateLimitRPS <= 0 {
		o.RateLimitRPS, o.RateLimitBurst = 200, 400
	}
	if o.PerIPRPS <= 0 {
		o.PerIPRPS, o.PerIPBurst = 20, 40
	}
	if o.MaxTrackedIPs <= 0 {
		o.MaxTrackedIPs = 10000
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 300
	}
	return o
}

func principal(c *gin.Context) tenancy.Principal {
	p, _ := tenancy.FromContext(c.Request.Context())
	return p
}

func scope(c *gin.Context) (tenancy.Scope, error) { return principal(c).Scope() }

type messageOut struct {
	Message string `json:"message"`
}

type noContent struct{}
