package authz

// Permission identifies a single gated capability. The catalog is closed;
// dynamic configuration can change which roles hold a permission but cannot
// invent new permission identifiers.
type Permission string

const (
	PermViewDashboard Permission = "VIEW_DASHBOARD"

	PermViewAllEmployees  Permission = "VIEW_ALL_EMPLOYEES"
	PermManageAllEmployees Permission = "MANAGE_ALL_EMPLOYEES"
	PermManageHR          Permission = "MANAGE_HR"
	PermViewPayroll       Permission = "VIEW_PAYROLL"
	PermManagePayroll     Permission = "MANAGE_PAYROLL"

	PermManageAccounts         Permission = "MANAGE_ACCOUNTS"
	PermViewAllInvoices        Permission = "VIEW_ALL_INVOICES"
	PermManageInvoices         Permission = "MANAGE_INVOICES"
	PermApprovePaymentRequests Permission = "APPROVE_PAYMENT_REQUESTS"
	PermManagePaymentRequests  Permission = "MANAGE_PAYMENT_REQUESTS"

	PermViewAllLeads     Permission = "VIEW_ALL_LEADS"
	PermManageLeads      Permission = "MANAGE_LEADS"
	PermManageQuotations Permission = "MANAGE_QUOTATIONS"
	PermViewAllOrders    Permission = "VIEW_ALL_ORDERS"
	PermManageOrders     Permission = "MANAGE_ORDERS"

	PermViewAllProjects Permission = "VIEW_ALL_PROJECTS"
	PermViewOwnProjects Permission = "VIEW_OWN_PROJECTS"
	PermManageProjects  Permission = "MANAGE_PROJECTS"

	PermViewMaintenanceRequests   Permission = "VIEW_MAINTENANCE_REQUESTS"
	PermManageMaintenanceRequests Permission = "MANAGE_MAINTENANCE_REQUESTS"

	PermManageAssets     Permission = "MANAGE_ASSETS"
	PermManageTenants    Permission = "MANAGE_TENANTS"
	PermManageProperties Permission = "MANAGE_PROPERTIES"

	PermViewReports     Permission = "VIEW_REPORTS"
	PermGenerateReports Permission = "GENERATE_REPORTS"
	PermSendMessages    Permission = "SEND_MESSAGES"

	PermManageSystemSettings Permission = "MANAGE_SYSTEM_SETTINGS"
	PermManageCustomRoles    Permission = "MANAGE_CUSTOM_ROLES"
	PermManagePermissions    Permission = "MANAGE_PERMISSIONS"
)

// permissionAliases maps retired identifiers to their canonical catalog
// value. Aliases remain accepted everywhere a permission is checked or
// stored; they resolve to the same capability, not a separate one.
var permissionAliases = map[Permission]Permission{
	"MANAGE_EMPLOYEES": PermManageAllEmployees,
	"VIEW_EMPLOYEES":   PermViewAllEmployees,
	"MANAGE_FINANCES":  PermManageAccounts,
}

// Canonical resolves alias identifiers to their catalog value. Unknown
// identifiers pass through unchanged; membership checks on them simply fail.
func Canonical(p Permission) Permission {
	if canonical, ok := permissionAliases[p]; ok {
		return canonical
	}
	return p
}

// AllPermissions returns the canonical catalog (aliases excluded).
func AllPermissions() []Permission {
	return []Permission{
		PermViewDashboard,
		PermViewAllEmployees,
		PermManageAllEmployees,
		PermManageHR,
		PermViewPayroll,
		PermManagePayroll,
		PermManageAccounts,
		PermViewAllInvoices,
		PermManageInvoices,
		PermApprovePaymentRequests,
		PermManagePaymentRequests,
		PermViewAllLeads,
		PermManageLeads,
		PermManageQuotations,
		PermViewAllOrders,
		PermManageOrders,
		PermViewAllProjects,
		PermViewOwnProjects,
		PermManageProjects,
		PermViewMaintenanceRequests,
		PermManageMaintenanceRequests,
		PermManageAssets,
		PermManageTenants,
		PermManageProperties,
		PermViewReports,
		PermGenerateReports,
		PermSendMessages,
		PermManageSystemSettings,
		PermManageCustomRoles,
		PermManagePermissions,
	}
}

// IsKnown reports whether the identifier names a catalog permission, either
// directly or through an alias.
func IsKnown(p Permission) bool {
	canonical := Canonical(p)
	for _, candidate := range AllPermissions() {
		if candidate == canonical {
			return true
		}
	}
	return false
}

// PermissionSet is a membership-only collection of canonical permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set, canonicalizing aliases on insert.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[Canonical(p)] = struct{}{}
	}
	return set
}

// Has reports membership, canonicalizing the probe first so that alias and
// canonical identifiers are indistinguishable to callers.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[Canonical(p)]
	return ok
}

// Slice returns the members in unspecified order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}
