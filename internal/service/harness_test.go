package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/core/database"
	"wms-admin/internal/core/database/dbtest"
	"wms-admin/internal/domain"
	"wms-admin/internal/repo"
	"wms-admin/internal/tenancy"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type env struct {
	clock *fakeClock

	users   *repo.UserRepo
	roles   *repo.RoleRepo
	perms   *repo.PermissionRepo
	tenants *repo.TenantRepo
	access  *repo.AccessRepo
	auditDB *repo.AuditRepo

	authz      *AuthzService
	audit      *AuditService
	auth       *AuthService
	roleSvc    *RoleService
	permSvc    *PermissionService
	userSvc    *UserService
	tenantSvc  *TenantService
	seeder     *Seeder
	companies  *CompanyService
	warehouses *WarehouseService
	customers  *CustomerService
	products   *ProductService
}

func newEnv(t *testing.T, gc GrantCache) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{clock: &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}}
	now := e.clock.Now
	tx := database.NewTxManager(db)
	hasher := auth.PasswordHasher{Cost: bcrypt.MinCost}

	e.users = repo.NewUserRepo(db)
	e.roles = repo.NewRoleRepo(db)
	e.perms = repo.NewPermissionRepo(db)
	e.tenants = repo.NewTenantRepo(db)
	e.access = repo.NewAccessRepo(db)
	e.auditDB = repo.NewAuditRepo(db)

	e.audit = NewAuditService(e.auditDB, nil, now)
	e.authz = NewAuthzService(e.access, gc, nil)
	e.auth = NewAuthService(AuthDeps{
		Users: e.users, Tenants: e.tenants, Roles: e.roles, Access: e.access,
		Authz: e.authz, Audit: e.audit, Tx: tx,
		JWT: &auth.JWTer{
			Secret:   []byte("0123456789abcdef0123456789abcdef"),
			Issuer:   "wms-admin",
			Audience: "wms-clients",
			TTL:      time.Hour,
			Now:      now,
		},
		Hasher: hasher,
		Config: AuthConfig{
			RefreshTTL:    7 * 24 * time.Hour,
			RememberMeTTL: 30 * 24 * time.Hour,
			Lockout:       domain.DefaultLockoutPolicy,
			DefaultRole:   domain.RoleViewer,
		},
		Now: now,
	})
	e.roleSvc = NewRoleService(e.roles, e.perms, e.tenants, e.authz, e.audit, tx, now)
	e.permSvc = NewPermissionService(e.perms, e.access, e.authz, e.audit, tx, now)
	e.userSvc = NewUserService(e.users, e.roles, e.tenants, e.access, e.authz, e.audit, tx, now)
	e.tenantSvc = NewTenantService(e.tenants, e.users, e.audit, tx, now)
	e.seeder = NewSeeder(e.perms, e.roles, e.users, e.access, hasher, tx, now, nil)

	md := MasterDataDeps{
		Companies:  repo.NewCompanyRepo(db),
		Warehouses: repo.NewWarehouseRepo(db),
		Customers:  repo.NewCustomerRepo(db),
		Products:   repo.NewProductRepo(db),
		Audit:      e.audit,
		Tx:         tx,
		Now:        now,
	}
	e.companies = NewCompanyService(md)
	e.warehouses = NewWarehouseService(md)
	e.customers = NewCustomerService(md)
	e.products = NewProductService(md)

	_, err := e.seeder.Seed(context.Background())
	require.NoError(t, err)
	return e
}

func (e *env) register(t *testing.T, username, password string) *UserInfo {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        password,
		ConfirmPassword: password,
		FirstName:       "Test",
		LastName:        "User",
	})
	require.NoError(t, err)
	return u
}

func (e *env) tenant(t *testing.T, slug string) tenancy.Scope {
	t.Helper()
	tn, err := e.tenantSvc.Create(context.Background(), TenantInput{Name: slug, Slug: slug})
	require.NoError(t, err)
	return tenancy.Scope{TenantID: tn.ID, UserID: "tester-id", Actor: "tester"}
}

func (e *env) auditActions(t *testing.T, f domain.AuditFilter) []string {
	t.Helper()
	page, err := e.audit.List(context.Background(), domain.ListQuery{Size: 100}, f)
	require.NoError(t, err)
	out := make([]string, 0, len(page.Items))
	for _, a := range page.Items {
		out = append(out, a.Action)
	}
	return out
}

// columnBoundAudit rejects rows a strict SQL store would refuse: values longer
// than their declared column or not valid UTF-8.
type columnBoundAudit struct {
	domain.AuditRepository
}

func (r columnBoundAudit) Append(ctx context.Context, a *domain.AuditLog) error {
	fields := []struct {
		name  string
		value string
		size  int
	}{
		{"action", a.Action, domain.AuditActionSize},
		{"entity_name", a.EntityName, domain.AuditEntityNameSize},
		{"entity_id", a.EntityID, domain.AuditEntityIDSize},
		{"username", a.Username, domain.AuditUsernameSize},
		{"ip_address", a.IPAddress, domain.AuditIPSize},
		{"user_agent", a.UserAgent, domain.AuditUserAgentSize},
		{"request_id", a.RequestID, domain.AuditRequestIDSize},
		{"error_message", a.ErrorMessage, domain.AuditErrorSize},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("audit_logs.%s: invalid byte sequence for encoding UTF8", f.name)
		}
		if utf8.RuneCountInString(f.value) > f.size || len(f.value) > f.size {
			return fmt.Errorf("audit_logs.%s: value too long for type character varying(%d)", f.name, f.size)
		}
	}
	return r.AuditRepository.Append(ctx, a)
}

// strictAudit makes every audit write of e go through columnBoundAudit.
func (e *env) strictAudit() {
	e.audit.repo = columnBoundAudit{AuditRepository: e.auditDB}
}
