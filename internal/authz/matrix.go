package authz

// DefaultPermissions returns the compiled-in permission set for a built-in
// role. The switch is total over AllRoles; the catalog test fails if a role
// is added without an entry here. Returns nil for anything that is not a
// built-in role.
func DefaultPermissions(role Role) []Permission {
	switch role {
	case RoleSeniorAdmin:
		return []Permission{
			PermViewDashboard,
			PermViewAllEmployees, PermManageAllEmployees, PermManageHR,
			PermViewPayroll, PermManagePayroll,
			PermManageAccounts, PermViewAllInvoices, PermManageInvoices,
			PermApprovePaymentRequests, PermManagePaymentRequests,
			PermViewAllLeads, PermManageLeads, PermManageQuotations,
			PermViewAllOrders, PermManageOrders,
			PermViewAllProjects, PermManageProjects,
			PermViewMaintenanceRequests, PermManageMaintenanceRequests,
			PermManageAssets, PermManageTenants, PermManageProperties,
			PermViewReports, PermGenerateReports, PermSendMessages,
			PermManageSystemSettings, PermManageCustomRoles, PermManagePermissions,
		}
	case RoleJuniorAdmin:
		return []Permission{
			PermViewDashboard,
			PermViewAllEmployees, PermManageAllEmployees, PermManageHR,
			PermViewPayroll,
			PermViewAllInvoices, PermManageInvoices, PermManagePaymentRequests,
			PermViewAllLeads, PermManageLeads, PermManageQuotations,
			PermViewAllOrders, PermManageOrders,
			PermViewAllProjects, PermManageProjects,
			PermViewMaintenanceRequests, PermManageMaintenanceRequests,
			PermManageAssets, PermManageTenants, PermManageProperties,
			PermViewReports, PermGenerateReports, PermSendMessages,
			PermManageCustomRoles,
		}
	case RoleManager:
		return []Permission{
			PermViewDashboard,
			PermViewAllEmployees,
			PermViewAllLeads, PermManageLeads, PermManageQuotations,
			PermViewAllOrders, PermManageOrders,
			PermViewAllProjects, PermManageProjects,
			PermViewMaintenanceRequests, PermManageMaintenanceRequests,
			PermViewReports, PermGenerateReports, PermSendMessages,
		}
	case RoleAccountant:
		return []Permission{
			PermViewDashboard,
			PermManageAccounts, PermViewAllInvoices, PermManageInvoices,
			PermApprovePaymentRequests, PermManagePaymentRequests,
			PermViewPayroll, PermManagePayroll,
			PermViewReports, PermGenerateReports,
		}
	case RoleTechnicalManager:
		return []Permission{
			PermViewDashboard,
			PermViewAllProjects, PermManageProjects,
			PermViewMaintenanceRequests, PermManageMaintenanceRequests,
			PermManageAssets,
			PermViewReports, PermSendMessages,
		}
	case RoleSupervisor:
		return []Permission{
			PermViewDashboard,
			PermViewAllProjects,
			PermViewMaintenanceRequests, PermManageMaintenanceRequests,
			PermSendMessages,
		}
	case RoleSalesAgent:
		return []Permission{
			PermViewDashboard,
			PermViewAllLeads, PermManageLeads, PermManageQuotations,
			PermViewAllOrders,
			PermSendMessages,
		}
	case RoleArtisan:
		return []Permission{
			PermViewDashboard,
			PermViewOwnProjects,
			PermViewMaintenanceRequests,
			PermSendMessages,
		}
	case RolePropertyManager:
		return []Permission{
			PermViewDashboard,
			PermManageProperties, PermManageTenants,
			PermViewMaintenanceRequests, PermManageMaintenanceRequests,
			PermViewReports, PermSendMessages,
		}
	case RoleStaff:
		return []Permission{
			PermViewDashboard,
			PermViewOwnProjects,
			PermSendMessages,
		}
	case RoleContractorSeniorManager:
		return []Permission{
			PermViewDashboard,
			PermViewAllOrders, PermManageOrders,
			PermViewOwnProjects,
			PermSendMessages,
		}
	case RoleContractorJuniorManager:
		return []Permission{
			PermViewDashboard,
			PermViewAllOrders,
			PermViewOwnProjects,
			PermSendMessages,
		}
	case RoleContractor:
		return []Permission{
			PermViewDashboard,
			PermViewOwnProjects,
			PermSendMessages,
		}
	case RoleTenant:
		return []Permission{
			PermViewDashboard,
			PermViewMaintenanceRequests,
			PermSendMessages,
		}
	}
	return nil
}

// StaticMatrix materializes the compiled-in matrix keyed by role string.
// Callers receive a fresh map; mutating it does not affect later calls.
func StaticMatrix() map[string]PermissionSet {
	matrix := make(map[string]PermissionSet, len(AllRoles()))
	for _, role := range AllRoles() {
		matrix[string(role)] = NewPermissionSet(DefaultPermissions(role)...)
	}
	return matrix
}

// StaticHasPermission answers a permission check against the compiled-in
// matrix only: no dynamic override, no custom roles, no store access. It
// exists for call paths that cannot tolerate a reload; its answer can lag
// the dynamic resolver and callers must treat it as the weaker check.
func StaticHasPermission(role string, perm Permission) bool {
	set := NewPermissionSet(DefaultPermissions(Role(role))...)
	return set.Has(perm)
}
