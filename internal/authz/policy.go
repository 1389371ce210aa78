// Package authz implements role based authorization for lifecycle operations.
package authz

import "strings"

// Role enumerates the account roles known to the system.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RolePRManager Role = "PR_MANAGER"
	RoleFinance   Role = "FINANCE"
	RoleVendor    Role = "VENDOR"
	RoleUser      Role = "USER"
)

// ParseRole normalizes a stored role string. Unknown values come back false.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RolePRManager:
		return RolePRManager, true
	case RoleFinance:
		return RoleFinance, true
	case RoleVendor:
		return RoleVendor, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// Operation keys consumed by the policy table. Every mutating route checks
// exactly one of these at the router choke point.
const (
	OpRFPCreate       = "rfp.create"
	OpRFPUpdate       = "rfp.update"
	OpRFPView         = "rfp.view"
	OpQuotationSubmit = "quotation.submit"
	OpPOCreate        = "po.create"
	OpPOView          = "po.view"
	OpVendorCreate    = "vendor.create"
	OpVendorApprove   = "vendor.approve"
	OpVendorView      = "vendor.view"
	OpAuditView       = "audit.view"
	OpUsersView       = "users.view"
)

// Policy maps operations to the roles permitted to perform them.
type Policy map[string][]Role

// DefaultPolicy is the static operation-to-roles table for the service.
func DefaultPolicy() Policy {
	return Policy{
		OpRFPCreate:       {RoleAdmin, RolePRManager, RoleUser},
		OpRFPUpdate:       {RolePRManager},
		OpRFPView:         {RoleAdmin, RolePRManager, RoleFinance, RoleVendor, RoleUser},
		OpQuotationSubmit: {RolePRManager, RoleVendor},
		OpPOCreate:        {RolePRManager},
		OpPOView:          {RoleAdmin, RolePRManager, RoleFinance},
		OpVendorCreate:    {RoleAdmin, RolePRManager},
		OpVendorApprove:   {RoleAdmin},
		OpVendorView:      {RoleAdmin, RolePRManager, RoleFinance},
		OpAuditView:       {RoleAdmin},
		OpUsersView:       {RoleAdmin, RolePRManager},
	}
}

// Allows reports whether the role may perform the operation. Unknown
// operations deny by default.
func (p Policy) Allows(op string, role Role) bool {
	roles, ok := p[op]
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}
