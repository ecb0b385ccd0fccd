package domain

// Protected resources. Each is guarded by read/create/update/delete permissions.
const (
	ResourceCompanies   = "companies"
	ResourceWarehouses  = "warehouses"
	ResourceCustomers   = "customers"
	ResourceProducts    = "products"
	ResourceUsers       = "users"
	ResourceRoles       = "roles"
	ResourcePermissions = "permissions"
	ResourceTenants     = "tenants"
	ResourceAuditLogs   = "audit-logs"
)

// CatalogEntry describes one seeded permission.
type CatalogEntry struct {
	Resource string
	Action   string
	Module   string
}

var crudActions = []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// PermissionCatalog is the built-in permission set.
func PermissionCatalog() []CatalogEntry {
	var out []CatalogEntry
	add := func(module string, resources ...string) {
		for _, r := range resources {
			for _, a := range crudActions {
				out = append(out, CatalogEntry{Resource: r, Action: a, Module: module})
			}
		}
	}
	add("masterdata", ResourceCompanies, ResourceWarehouses, ResourceCustomers, ResourceProducts)
	add("security", ResourceUsers, ResourceRoles, ResourcePermissions)
	add("platform", ResourceTenants)
	out = append(out, CatalogEntry{Resource: ResourceAuditLogs, Action: ActionRead, Module: "security"})
	return out
}

// SystemRoleGrants selects the catalog entries granted to each built-in role.
var SystemRoleGrants = map[string]func(CatalogEntry) bool{
	RoleSuperAdmin: func(CatalogEntry) bool { return true },
	RoleAdmin:      func(e CatalogEntry) bool { return e.Module != "platform" },
	RoleOperator: func(e CatalogEntry) bool {
		return e.Module == "masterdata" && e.Action != ActionDelete
	},
	RoleViewer: func(e CatalogEntry) bool {
		return e.Module == "masterdata" && e.Action == ActionRead
	},
}

var SystemRoleDescriptions = map[string]string{
	RoleSuperAdmin: "Full platform access",
	RoleAdmin:      "Tenant administration and master data",
	RoleOperator:   "Maintains master data",
	RoleViewer:     "Read-only access to master data",
}
