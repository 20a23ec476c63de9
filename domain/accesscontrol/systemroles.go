package accesscontrol

// systemRolePermissions defines the fixed permission set for each of the
// eight built-in roles, grounded on rbac.py's ROLE_PERMISSIONS table.
// System roles are immutable and undeletable (enforced in kernel.go).
var systemRolePermissions = map[SystemRoleID][]Permission{
	RoleAdmin: {
		PermTransactionCreate, PermTransactionProcess, PermTransactionReverse, PermTransactionRead,
		PermAccountCreate, PermAccountRead, PermAccountUpdate,
		PermCustomerRead, PermCustomerUpdate,
		PermLoanApprove, PermLoanOriginate,
		PermCollectionManage,
		PermComplianceReview, PermComplianceOverride,
		PermAuditRead, PermUserManage, PermRoleManage, PermReportGenerate,
	},
	RoleBranchManager: {
		PermTransactionCreate, PermTransactionProcess, PermTransactionReverse, PermTransactionRead,
		PermAccountCreate, PermAccountRead, PermAccountUpdate,
		PermCustomerRead, PermCustomerUpdate,
		PermLoanApprove,
		PermComplianceReview,
		PermReportGenerate,
	},
	RoleLoanOfficer: {
		PermTransactionCreate, PermTransactionRead,
		PermAccountRead,
		PermCustomerRead,
		PermLoanOriginate,
	},
	RoleTeller: {
		PermTransactionCreate, PermTransactionProcess, PermTransactionRead,
		PermAccountRead,
		PermCustomerRead,
	},
	RoleAuditor: {
		PermTransactionRead, PermAccountRead, PermCustomerRead, PermAuditRead, PermReportGenerate,
	},
	RoleComplianceOfficer: {
		PermTransactionRead, PermAccountRead, PermCustomerRead,
		PermComplianceReview, PermComplianceOverride,
		PermAuditRead, PermReportGenerate,
	},
	RoleCollector: {
		PermTransactionRead, PermAccountRead, PermCustomerRead, PermCollectionManage,
	},
	RoleReadOnly: {
		PermTransactionRead, PermAccountRead, PermCustomerRead,
	},
}

var systemRoleDescriptions = map[SystemRoleID]string{
	RoleAdmin:             "Full administrative access",
	RoleBranchManager:     "Branch-level operational and approval authority",
	RoleLoanOfficer:       "Originates loans and reads customer/account data",
	RoleTeller:            "Creates and processes day-to-day transactions",
	RoleAuditor:           "Read-only access plus audit trail review",
	RoleComplianceOfficer: "Compliance review and override authority",
	RoleCollector:         "Manages delinquent-account collection cases",
	RoleReadOnly:          "Read-only access across the system",
}

func newSystemRole(id SystemRoleID) Role {
	perms := make(map[Permission]struct{})
	for _, p := range systemRolePermissions[id] {
		perms[p] = struct{}{}
	}
	return Role{
		ID:           string(id),
		Name:         string(id),
		Description:  systemRoleDescriptions[id],
		Permissions:  perms,
		IsSystemRole: true,
	}
}

// AllSystemRoles returns the eight built-in roles, freshly constructed.
func AllSystemRoles() []Role {
	ids := []SystemRoleID{
		RoleAdmin, RoleBranchManager, RoleLoanOfficer, RoleTeller,
		RoleAuditor, RoleComplianceOfficer, RoleCollector, RoleReadOnly,
	}
	roles := make([]Role, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, newSystemRole(id))
	}
	return roles
}
