package authz

// Level returns the seniority level of a role string. Higher means more
// authority. Custom and unknown roles return 0: they carry no seniority and
// always fail hierarchy checks. The legacy "ADMIN" string maps to the
// junior-administrator level; it exists only in old session records.
func Level(role string) int {
	if role == LegacyAdminRole {
		role = string(RoleJuniorAdmin)
	}
	switch Role(role) {
	case RoleSeniorAdmin:
		return 100
	case RoleJuniorAdmin:
		return 90
	case RoleManager:
		return 80
	case RoleAccountant:
		return 70
	case RoleTechnicalManager:
		return 60
	case RoleSupervisor:
		return 50
	case RoleSalesAgent:
		return 40
	case RoleArtisan:
		return 30
	case RolePropertyManager:
		return 25
	case RoleStaff:
		return 20
	case RoleContractorSeniorManager:
		return 15
	case RoleContractorJuniorManager:
		return 12
	case RoleContractor:
		return 10
	case RoleTenant:
		return 5
	}
	return 0
}

// HasRoleLevel reports whether role carries at least the authority of the
// required built-in role. This is a coarse seniority check, not a permission
// check; feature gating goes through the Resolver.
func HasRoleLevel(role string, required Role) bool {
	requiredLevel := Level(string(required))
	if requiredLevel == 0 {
		// An unknown requirement would make the check vacuously true for
		// everyone; fail closed instead.
		return false
	}
	return Level(role) >= requiredLevel
}
