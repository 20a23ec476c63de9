// Package accesscontrol implements the access-control kernel: roles,
// permissions, users, sessions, and the password policy gating every
// write the processor and ledger expose. Grounded on
// original_source/core_banking/rbac.py — the scrypt-with-legacy-SHA256
// password scheme, the eight system roles, and the amount-limit check are
// all carried over from there since spec.md itself only describes their
// shape, not their exact values.
package accesscontrol

import (
	"time"

	"github.com/nexum-core/nexum/pkg/money"
)

// Permission is a single grantable capability.
type Permission string

const (
	PermTransactionCreate   Permission = "transaction.create"
	PermTransactionProcess  Permission = "transaction.process"
	PermTransactionReverse  Permission = "transaction.reverse"
	PermTransactionRead     Permission = "transaction.read"
	PermAccountCreate       Permission = "account.create"
	PermAccountRead         Permission = "account.read"
	PermAccountUpdate       Permission = "account.update"
	PermCustomerRead        Permission = "customer.read"
	PermCustomerUpdate      Permission = "customer.update"
	PermLoanApprove         Permission = "loan.approve"
	PermLoanOriginate       Permission = "loan.originate"
	PermCollectionManage    Permission = "collection.manage"
	PermComplianceReview    Permission = "compliance.review"
	PermComplianceOverride  Permission = "compliance.override"
	PermAuditRead           Permission = "audit.read"
	PermUserManage          Permission = "user.manage"
	PermRoleManage          Permission = "role.manage"
	PermReportGenerate      Permission = "report.generate"
)

// SystemRoleID names the eight built-in, immutable, undeletable roles.
type SystemRoleID string

const (
	RoleAdmin               SystemRoleID = "ADMIN"
	RoleBranchManager       SystemRoleID = "BRANCH_MANAGER"
	RoleLoanOfficer         SystemRoleID = "LOAN_OFFICER"
	RoleTeller              SystemRoleID = "TELLER"
	RoleAuditor             SystemRoleID = "AUDITOR"
	RoleComplianceOfficer   SystemRoleID = "COMPLIANCE_OFFICER"
	RoleCollector           SystemRoleID = "COLLECTOR"
	RoleReadOnly            SystemRoleID = "READ_ONLY"
)

// Role groups permissions and optional amount limits.
type Role struct {
	ID                 string
	Name               string
	Description        string
	Permissions        map[Permission]struct{}
	IsSystemRole       bool
	MaxTransactionAmount *money.Money
	MaxApprovalAmount    *money.Money
}

// HasPermission reports whether the role grants perm.
func (r Role) HasPermission(perm Permission) bool {
	_, ok := r.Permissions[perm]
	return ok
}

// User is an authenticable principal.
type User struct {
	ID                  string
	Username            string
	Email               string
	FullName            string
	Roles               []string
	IsActive            bool
	IsLocked            bool
	FailedLoginAttempts int
	LastLogin           *time.Time
	PasswordHash        string
	PasswordSalt        string
	PasswordAlgorithm   string // "scrypt" or "sha256-legacy"
	PasswordChangedAt   time.Time
	PasswordHistory     []string // bounded list of prior password hashes
	MFASecret           *string
	BranchID            *string
}

// Authenticable reports whether the user may currently authenticate.
func (u User) Authenticable() bool {
	return u.IsActive && !u.IsLocked
}

// Session is an authenticated principal's access window.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	IsActive  bool
	IPAddress string
	UserAgent string
}

// Valid reports whether the session is itself still usable (expiry and
// active flag only — owning-user authenticability is checked separately).
func (s Session) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// PasswordPolicy configures password strength and lockout behavior.
// Defaults below mirror the source's PasswordPolicy dataclass.
type PasswordPolicy struct {
	MinLength            int
	RequireUpper         bool
	RequireLower         bool
	RequireDigit         bool
	RequireSpecial       bool
	MaxAgeDays           int
	HistorySize          int
	MaxFailedAttempts    int
	LockoutDuration      time.Duration
	SessionTTL           time.Duration
}

// DefaultPasswordPolicy matches the original implementation's constants.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:         12,
		RequireUpper:      true,
		RequireLower:      true,
		RequireDigit:      true,
		RequireSpecial:    true,
		MaxAgeDays:        90,
		HistorySize:       5,
		MaxFailedAttempts: 5,
		LockoutDuration:   30 * time.Minute,
		SessionTTL:        8 * time.Hour,
	}
}
