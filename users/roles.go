package users

import "github.com/pkg/errors"

// RoleType represents a user's role within their store.
type RoleType string

const (
	RoleCashier RoleType = "cashier" // Rings up sales, reads inventory
	RoleManager RoleType = "manager" // Runs the store day to day
	RoleAdmin   RoleType = "admin"   // Full control, including staff accounts
)

// Permission names carried in token claims and checked at the HTTP boundary.
const (
	PermSaleCreate     = "sale:create"
	PermSaleRefund     = "sale:refund"
	PermInventoryRead  = "inventory:read"
	PermInventoryWrite = "inventory:write"
	PermReportView     = "report:view"
	PermStoreManage    = "store:manage"
	PermUserManage     = "user:manage"
)

// rolePermissions is the full permission set per role. Each role's set
// contains every set below it, so admin ⊇ manager ⊇ cashier.
var rolePermissions = map[RoleType][]string{
	RoleCashier: {
		PermSaleCreate,
		PermInventoryRead,
	},
	RoleManager: {
		PermSaleCreate,
		PermSaleRefund,
		PermInventoryRead,
		PermInventoryWrite,
		PermReportView,
		PermStoreManage,
	},
	RoleAdmin: {
		PermSaleCreate,
		PermSaleRefund,
		PermInventoryRead,
		PermInventoryWrite,
		PermReportView,
		PermStoreManage,
		PermUserManage,
	},
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role RoleType) bool {
	_, ok := rolePermissions[role]
	return ok
}

// AllowedPermissions returns the permissions granted by role.
// The result is a copy; callers may mutate it. Unknown roles yield nil.
func AllowedPermissions(role RoleType) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidatePermissions checks that every permission in perms is granted by
// role. A user may carry fewer permissions than their role allows, never more.
func ValidatePermissions(role RoleType, perms []string) error {
	if !ValidRole(role) {
		return errors.Errorf("unknown role %q", role)
	}
	allowed := rolePermissions[role]
	for _, p := range perms {
		if !HasPermission(allowed, p) {
			return errors.Errorf("permission %q is not granted by role %q", p, role)
		}
	}
	return nil
}

// HasPermission reports whether perm appears in perms.
func HasPermission(perms []string, perm string) bool {
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
