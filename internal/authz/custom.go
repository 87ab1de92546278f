package authz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CustomRole is an administrator-defined role. It shares the metadata shape
// of built-in roles and adds an explicit permission set. Custom roles are
// persisted as a JSON list under SettingCustomRoles and never shadow a
// built-in identifier.
type CustomRole struct {
	Name         string       `json:"name" validate:"required,min=2,max=64"`
	Label        string       `json:"label" validate:"required,max=128"`
	Color        string       `json:"color" validate:"max=32"`
	Description  string       `json:"description" validate:"max=512"`
	DefaultRoute string       `json:"defaultRoute" validate:"max=256"`
	Permissions  []Permission `json:"permissions" validate:"dive,min=1"`
}

// PermissionSet materializes the role's permissions with aliases resolved.
func (r CustomRole) PermissionSet() PermissionSet {
	return NewPermissionSet(r.Permissions...)
}

// NormalizeName produces the stored form of a custom role name: trimmed,
// upper-cased, spaces collapsed to underscores, matching the convention the
// built-in identifiers use.
func NormalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}

// decodeCustomRoles strictly parses the stored custom-role document. A
// payload that is not a JSON list of role objects is rejected as a whole;
// the caller falls back to an empty list.
func decodeCustomRoles(raw string) ([]CustomRole, error) {
	var roles []CustomRole
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&roles); err != nil {
		return nil, fmt.Errorf("authz: decode custom roles: %w", err)
	}
	for _, role := range roles {
		if role.Name == "" {
			return nil, fmt.Errorf("authz: decode custom roles: entry without name")
		}
	}
	return roles, nil
}

// decodeMatrix strictly parses the stored dynamic-matrix document: a JSON
// object from role string to permission list.
func decodeMatrix(raw string) (map[string][]Permission, error) {
	var matrix map[string][]Permission
	if err := json.Unmarshal([]byte(raw), &matrix); err != nil {
		return nil, fmt.Errorf("authz: decode dynamic matrix: %w", err)
	}
	if matrix == nil {
		return nil, fmt.Errorf("authz: decode dynamic matrix: null document")
	}
	return matrix, nil
}

// encodeCustomRoles serializes the list for storage.
func encodeCustomRoles(roles []CustomRole) (string, error) {
	data, err := json.Marshal(roles)
	if err != nil {
		return "", fmt.Errorf("authz: encode custom roles: %w", err)
	}
	return string(data), nil
}

// encodeMatrix serializes a dynamic matrix for storage.
func encodeMatrix(matrix map[string][]Permission) (string, error) {
	data, err := json.Marshal(matrix)
	if err != nil {
		return "", fmt.Errorf("authz: encode dynamic matrix: %w", err)
	}
	return string(data), nil
}
