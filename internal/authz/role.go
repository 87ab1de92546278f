package authz

// Role identifies a built-in principal category. The set of built-in roles is
// closed: every Role constant below has exactly one metadata record, one
// hierarchy level and one entry in the static permission matrix. Custom roles
// are deliberately NOT of this type; they travel as plain strings and are
// resolved through the Resolver.
type Role string

const (
	RoleSeniorAdmin             Role = "SENIOR_ADMIN"
	RoleJuniorAdmin             Role = "JUNIOR_ADMIN"
	RoleManager                 Role = "MANAGER"
	RoleAccountant              Role = "ACCOUNTANT"
	RoleTechnicalManager        Role = "TECHNICAL_MANAGER"
	RoleSupervisor              Role = "SUPERVISOR"
	RoleSalesAgent              Role = "SALES_AGENT"
	RoleArtisan                 Role = "ARTISAN"
	RolePropertyManager         Role = "PROPERTY_MANAGER"
	RoleStaff                   Role = "STAFF"
	RoleContractorSeniorManager Role = "CONTRACTOR_SENIOR_MANAGER"
	RoleContractorJuniorManager Role = "CONTRACTOR_JUNIOR_MANAGER"
	RoleContractor              Role = "CONTRACTOR"
	RoleTenant                  Role = "TENANT"
)

// LegacyAdminRole is an alias still present in old session records. It is
// normalized to the junior-administrator level for hierarchy checks only; it
// has no metadata and no matrix entry of its own.
const LegacyAdminRole = "ADMIN"

// Meta carries display metadata for a role.
type Meta struct {
	Label        string `json:"label"`
	Color        string `json:"color"`
	Description  string `json:"description"`
	DefaultRoute string `json:"defaultRoute"`
}

// AllRoles returns every built-in role ordered from most to least senior.
func AllRoles() []Role {
	return []Role{
		RoleSeniorAdmin,
		RoleJuniorAdmin,
		RoleManager,
		RoleAccountant,
		RoleTechnicalManager,
		RoleSupervisor,
		RoleSalesAgent,
		RoleArtisan,
		RolePropertyManager,
		RoleStaff,
		RoleContractorSeniorManager,
		RoleContractorJuniorManager,
		RoleContractor,
		RoleTenant,
	}
}

// IsBuiltIn reports whether the string names a built-in role. Custom roles
// whose name collides with a built-in identifier are never honoured; callers
// use this to enforce that rule.
func IsBuiltIn(role string) bool {
	_, ok := lookupMeta(Role(role))
	return ok
}

// MetaFor returns the display metadata for a built-in role.
func MetaFor(role Role) (Meta, bool) {
	return lookupMeta(role)
}

func lookupMeta(role Role) (Meta, bool) {
	switch role {
	case RoleSeniorAdmin:
		return Meta{Label: "Senior Administrator", Color: "red", Description: "Full control over the workspace including system settings", DefaultRoute: "/dashboard"}, true
	case RoleJuniorAdmin:
		return Meta{Label: "Junior Administrator", Color: "orange", Description: "Administers day-to-day operations without system settings", DefaultRoute: "/dashboard"}, true
	case RoleManager:
		return Meta{Label: "Manager", Color: "gold", Description: "Oversees projects, orders and staff", DefaultRoute: "/dashboard"}, true
	case RoleAccountant:
		return Meta{Label: "Accountant", Color: "green", Description: "Manages invoices, payments and financial records", DefaultRoute: "/finance"}, true
	case RoleTechnicalManager:
		return Meta{Label: "Technical Manager", Color: "geekblue", Description: "Coordinates maintenance and technical work", DefaultRoute: "/maintenance"}, true
	case RoleSupervisor:
		return Meta{Label: "Supervisor", Color: "cyan", Description: "Supervises field work and approves timesheets", DefaultRoute: "/projects"}, true
	case RoleSalesAgent:
		return Meta{Label: "Sales Agent", Color: "blue", Description: "Handles leads, quotations and customer contact", DefaultRoute: "/leads"}, true
	case RoleArtisan:
		return Meta{Label: "Artisan", Color: "purple", Description: "Executes assigned maintenance jobs on site", DefaultRoute: "/jobs"}, true
	case RolePropertyManager:
		return Meta{Label: "Property Manager", Color: "magenta", Description: "Manages assigned properties and tenant requests", DefaultRoute: "/properties"}, true
	case RoleStaff:
		return Meta{Label: "Staff", Color: "default", Description: "General back-office staff member", DefaultRoute: "/dashboard"}, true
	case RoleContractorSeniorManager:
		return Meta{Label: "Contractor Senior Manager", Color: "volcano", Description: "Senior manager at a contracted company", DefaultRoute: "/contractor"}, true
	case RoleContractorJuniorManager:
		return Meta{Label: "Contractor Junior Manager", Color: "lime", Description: "Junior manager at a contracted company", DefaultRoute: "/contractor"}, true
	case RoleContractor:
		return Meta{Label: "Contractor", Color: "default", Description: "External contractor with limited access", DefaultRoute: "/contractor"}, true
	case RoleTenant:
		return Meta{Label: "Tenant", Color: "default", Description: "Tenant or customer of a managed property", DefaultRoute: "/portal"}, true
	}
	return Meta{}, false
}
