// Package app is the composition root shared by the binaries and the HTTP tests.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/core/cache"
	"wms-admin/internal/core/config"
	"wms-admin/internal/core/database"
	"wms-admin/internal/core/logger"
	"wms-admin/internal/domain"
	"wms-admin/internal/repo"
	"wms-admin/internal/service"
	"wms-admin/internal/transport/http/router"
)

// Container holds the wired repositories and services of one process.
type Container struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Cache  *cache.Cache // nil when redis.addr is empty
	JWT    *auth.JWTer
	Hasher auth.PasswordHasher
	Now    func() time.Time

	Audit       *service.AuditService
	Authz       *service.AuthzService
	Auth        *service.AuthService
	Users       *service.UserService
	Roles       *service.RoleService
	Permissions *service.PermissionService
	Tenants     *service.TenantService
	Companies   *service.CompanyService
	Warehouses  *service.WarehouseService
	Customers   *service.CustomerService
	Products    *service.ProductService
	Seeder      *service.Seeder
}

type Option func(*Container)

func WithClock(now func() time.Time) Option { return func(c *Container) { c.Now = now } }

func WithHasher(h auth.PasswordHasher) Option { return func(c *Container) { c.Hasher = h } }

func WithCache(rc *cache.Cache) Option { return func(c *Container) { c.Cache = rc } }

func New(cfg *config.Config, log *zap.Logger, db *gorm.DB, opts ...Option) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{
		Config: cfg,
		Log:    log,
		DB:     db,
		Hasher: auth.DefaultHasher,
		Now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}

	c.JWT = &auth.JWTer{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		Leeway:   time.Duration(cfg.JWT.ClockSkewSec) * time.Second,
		Now:      c.Now,
	}

	tx := database.NewTxManager(db)
	users := repo.NewUserRepo(db)
	roles := repo.NewRoleRepo(db)
	perms := repo.NewPermissionRepo(db)
	tenants := repo.NewTenantRepo(db)
	access := repo.NewAccessRepo(db)

	var gc service.GrantCache
	if c.Cache != nil {
		gc = service.NewRedisGrantCache(c.Cache, time.Duration(cfg.Redis.GrantTTLSec)*time.Second)
	}

	c.Audit = service.NewAuditService(repo.NewAuditRepo(db), log, c.Now)
	c.Authz = service.NewAuthzService(access, gc, log)
	c.Auth = service.NewAuthService(service.AuthDeps{
		Users: users, Tenants: tenants, Roles: roles, Access: access,
		Authz: c.Authz, Audit: c.Audit, Tx: tx,
		JWT:    c.JWT,
		Hasher: c.Hasher,
		Config: service.AuthConfig{
			RefreshTTL:    time.Duration(cfg.JWT.RefreshTokenDays) * 24 * time.Hour,
			RememberMeTTL: time.Duration(cfg.JWT.RememberMeDays) * 24 * time.Hour,
			Lockout: domain.LockoutPolicy{
				MaxFailedAttempts: cfg.Lockout.MaxFailedAttempts,
				Duration:          time.Duration(cfg.Lockout.DurationMin) * time.Minute,
			},
			DefaultRole: domain.RoleViewer,
		},
		Now: c.Now,
		Log: log,
	})
	c.Roles = service.NewRoleService(roles, perms, tenants, c.Authz, c.Audit, tx, c.Now)
	c.Permissions = service.NewPermissionService(perms, access, c.Authz, c.Audit, tx, c.Now)
	c.Users = service.NewUserService(users, roles, tenants, access, c.Authz, c.Audit, tx, c.Now)
	c.Tenants = service.NewTenantService(tenants, users, c.Audit, tx, c.Now)
	c.Seeder = service.NewSeeder(perms, roles, users, access, c.Hasher, tx, c.Now, log)

	md := service.MasterDataDeps{
		Companies:  repo.NewCompanyRepo(db),
		Warehouses: repo.NewWarehouseRepo(db),
		Customers:  repo.NewCustomerRepo(db),
		Products:   repo.NewProductRepo(db),
		Audit:      c.Audit,
		Tx:         tx,
		Now:        c.Now,
	}
	c.Companies = service.NewCompanyService(md)
	c.Warehouses = service.NewWarehouseService(md)
	c.Customers = service.NewCustomerService(md)
	c.Products = service.NewProductService(md)
	return c
}

// HTTPDeps exposes the services to the router.
func (c *Container) HTTPDeps() router.Deps {
	return router.Deps{
		Log:         c.Log,
		JWT:         c.JWT,
		Ready:       c.Ready,
		Auth:        c.Auth,
		Authz:       c.Authz,
		Audit:       c.Audit,
		Users:       c.Users,
		Roles:       c.Roles,
		Permissions: c.Permissions,
		Tenants:     c.Tenants,
		Companies:   c.Companies,
		Warehouses:  c.Warehouses,
		Customers:   c.Customers,
		Products:    c.Products,
	}
}

func (c *Container) HTTPOptions() router.Options {
	h := c.Config.App.HTTP
	return router.Options{
		RequestTimeout: time.Duration(h.RequestTimeout) * time.Second,
		MaxBodyBytes:   h.MaxBodyBytes,
		RateLimitRPS:   h.RateLimitRPS,
		RateLimitBurst: h.RateLimitBurst,
		PerIPRPS:       h.PerIPRPS,
		PerIPBurst:     h.PerIPBurst,
		MaxTrackedIPs:  h.MaxTrackedIPs,
		MaxConcurrent:  h.MaxConcurrent,
	}
}

// Ready pings the database and, when configured, redis.
func (c *Container) Ready(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Cache != nil {
		if err := c.Cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (c *Container) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// NewLogger builds the process logger, rotating to a file when log.file.enable is set.
func NewLogger(cfg config.Log) (*zap.Logger, func()) {
	if cfg.File.Enable {
		f := cfg.File
		return logger.NewWithRotate(cfg.Level, cfg.JSON, f.Filename, f.MaxSizeMB, f.MaxBackups, f.MaxAgeDays, f.Compress)
	}
	return logger.New(cfg.Level, cfg.JSON)
}

// OpenDB connects and, when db.autoMigrate is set, migrates.
func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, l); err != nil {
			return nil, err
		}
		l.Info("automigrate done")
	}
	return db, nil
}

// OpenCache returns nil without error when redis is not configured.
func OpenCache(ctx context.Context, cfg config.Redis) (*cache.Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rc := cache.New(cfg.Addr, cfg.Password, cfg.DB)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rc, nil
}
