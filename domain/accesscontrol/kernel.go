package accesscontrol

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nexum-core/nexum/domain/audit"
	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage"
)

// Kernel is the access-control kernel: roles, users, sessions, and the
// password policy gating every write. It seeds the eight system roles on
// first use.
type Kernel struct {
	store  storage.Store
	trail  *audit.Trail
	policy PasswordPolicy
	log    *logrus.Entry

	// authLimiter throttles authentication attempts to blunt
	// credential-stuffing. It is one limiter shared by all usernames,
	// independent of the lockout counter which is per-user persisted state. Grounded on the teacher's go.mod
	// dependency on golang.org/x/time for exactly this kind of call-rate
	// shaping.
	authLimiter *rate.Limiter

	// cache mirrors active sessions so ValidateSession can skip a store
	// round trip. Defaults to NoopSessionCache when Redis isn't configured.
	cache SessionCache
}

// New constructs a Kernel and seeds system roles if they are not already
// present in store. cache may be nil, in which case sessions are always
// read from store.
func New(ctx context.Context, store storage.Store, trail *audit.Trail, policy PasswordPolicy, log *logrus.Entry, cache SessionCache) (*Kernel, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cache == nil {
		cache = NoopSessionCache{}
	}
	k := &Kernel{
		store:       store,
		trail:       trail,
		policy:      policy,
		log:         log.WithField("component", "accesscontrol"),
		authLimiter: rate.NewLimiter(rate.Limit(50), 50),
		cache:       cache,
	}
	if err := k.seedSystemRoles(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kernel) seedSystemRoles(ctx context.Context) error {
	for _, role := range AllSystemRoles() {
		_, err := k.store.Load(ctx, storage.TableRoles, role.ID)
		if err == nil {
			continue
		}
		if err != storage.ErrNotFound {
			return nexumerrors.StorageUnavailable(err)
		}
		if err := k.saveRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

// --- Role operations ---

func (k *Kernel) saveRole(ctx context.Context, r Role) error {
	perms := make([]string, 0, len(r.Permissions))
	for p := range r.Permissions {
		perms = append(perms, string(p))
	}
	record := map[string]interface{}{
		"id":             r.ID,
		"name":           r.Name,
		"description":    r.Description,
		"permissions":    perms,
		"is_system_role": r.IsSystemRole,
	}
	if r.MaxTransactionAmount != nil {
		record["max_transaction_amount"] = r.MaxTransactionAmount.Amount.String()
		record["max_transaction_currency"] = string(r.MaxTransactionAmount.Currency)
	}
	if r.MaxApprovalAmount != nil {
		record["max_approval_amount"] = r.MaxApprovalAmount.Amount.String()
		record["max_approval_currency"] = string(r.MaxApprovalAmount.Currency)
	}
	if err := k.store.Save(ctx, storage.TableRoles, r.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

func roleFromRecord(rec map[string]interface{}) Role {
	r := Role{
		ID:           asString(rec["id"]),
		Name:         asString(rec["name"]),
		Description:  asString(rec["description"]),
		Permissions:  make(map[Permission]struct{}),
		IsSystemRole: asBool(rec["is_system_role"]),
	}
	for _, p := range asStringSlice(rec["permissions"]) {
		r.Permissions[Permission(p)] = struct{}{}
	}
	if amt := asString(rec["max_transaction_amount"]); amt != "" {
		m, err := money.Parse(amt, money.Currency(asString(rec["max_transaction_currency"])))
		if err == nil {
			r.MaxTransactionAmount = &m
		}
	}
	if amt := asString(rec["max_approval_amount"]); amt != "" {
		m, err := money.Parse(amt, money.Currency(asString(rec["max_approval_currency"])))
		if err == nil {
			r.MaxApprovalAmount = &m
		}
	}
	return r
}

// CreateRole creates a custom (non-system) role.
func (k *Kernel) CreateRole(ctx context.Context, name, description string, perms []Permission, maxTxn, maxApproval *money.Money) (Role, error) {
	r := Role{
		ID:                   uuid.NewString(),
		Name:                 name,
		Description:          description,
		Permissions:          make(map[Permission]struct{}),
		IsSystemRole:         false,
		MaxTransactionAmount: maxTxn,
		MaxApprovalAmount:    maxApproval,
	}
	for _, p := range perms {
		r.Permissions[p] = struct{}{}
	}
	if err := k.saveRole(ctx, r); err != nil {
		return Role{}, err
	}
	k.audit(ctx, audit.EventRoleCreated, "role", r.ID, "system", nil)
	return r, nil
}

func (k *Kernel) GetRole(ctx context.Context, id string) (Role, error) {
	rec, err := k.store.Load(ctx, storage.TableRoles, id)
	if err == storage.ErrNotFound {
		return Role{}, nexumerrors.NotFound("role", id)
	} else if err != nil {
		return Role{}, nexumerrors.StorageUnavailable(err)
	}
	return roleFromRecord(rec), nil
}

func (k *Kernel) ListRoles(ctx context.Context) ([]Role, error) {
	recs, err := k.store.LoadAll(ctx, storage.TableRoles)
	if err != nil {
		return nil, nexumerrors.StorageUnavailable(err)
	}
	roles := make([]Role, 0, len(recs))
	for _, rec := range recs {
		roles = append(roles, roleFromRecord(rec))
	}
	return roles, nil
}

// UpdateRole replaces a custom role's name/description/permissions.
// System roles cannot be updated.
func (k *Kernel) UpdateRole(ctx context.Context, id, name, description string, perms []Permission) (Role, error) {
	r, err := k.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if r.IsSystemRole {
		return Role{}, nexumerrors.PermissionDenied("system roles are immutable")
	}
	r.Name = name
	r.Description = description
	r.Permissions = make(map[Permission]struct{})
	for _, p := range perms {
		r.Permissions[p] = struct{}{}
	}
	if err := k.saveRole(ctx, r); err != nil {
		return Role{}, err
	}
	k.audit(ctx, audit.EventRoleUpdated, "role", r.ID, "system", nil)
	return r, nil
}

// DeleteRole fails with PolicyError if the role is a system role or if any
// user still holds it.
func (k *Kernel) DeleteRole(ctx context.Context, id string) error {
	r, err := k.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if r.IsSystemRole {
		return nexumerrors.PermissionDenied("system roles cannot be deleted")
	}
	users, err := k.store.LoadAll(ctx, storage.TableUsers)
	if err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	for _, rec := range users {
		for _, roleID := range asStringSlice(rec["roles"]) {
			if roleID == id {
				return nexumerrors.RoleHasUsers(id)
			}
		}
	}
	if _, err := k.store.Delete(ctx, storage.TableRoles, id); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	k.audit(ctx, audit.EventRoleDeleted, "role", id, "system", nil)
	return nil
}

// --- User operations ---

func (k *Kernel) saveUser(ctx context.Context, u User) error {
	record := map[string]interface{}{
		"id":                  u.ID,
		"username":            u.Username,
		"email":               u.Email,
		"full_name":           u.FullName,
		"roles":               u.Roles,
		"is_active":           u.IsActive,
		"is_locked":           u.IsLocked,
		"failed_login_count":  u.FailedLoginAttempts,
		"password_hash":       u.PasswordHash,
		"password_salt":       u.PasswordSalt,
		"password_algorithm":  u.PasswordAlgorithm,
		"password_changed_at": u.PasswordChangedAt,
		"password_history":    u.PasswordHistory,
	}
	if u.LastLogin != nil {
		record["last_login"] = *u.LastLogin
	}
	if u.MFASecret != nil {
		record["mfa_secret"] = *u.MFASecret
	}
	if u.BranchID != nil {
		record["branch_id"] = *u.BranchID
	}
	if err := k.store.Save(ctx, storage.TableUsers, u.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

func userFromRecord(rec map[string]interface{}) User {
	u := User{
		ID:                asString(rec["id"]),
		Username:          asString(rec["username"]),
		Email:             asString(rec["email"]),
		FullName:          asString(rec["full_name"]),
		Roles:             asStringSlice(rec["roles"]),
		IsActive:          asBool(rec["is_active"]),
		IsLocked:          asBool(rec["is_locked"]),
		PasswordHash:      asString(rec["password_hash"]),
		PasswordSalt:      asString(rec["password_salt"]),
		PasswordAlgorithm: asString(rec["password_algorithm"]),
		PasswordHistory:   asStringSlice(rec["password_history"]),
	}
	if n, ok := rec["failed_login_count"].(int); ok {
		u.FailedLoginAttempts = n
	} else if f, ok := rec["failed_login_count"].(float64); ok {
		u.FailedLoginAttempts = int(f)
	}
	if t, ok := rec["last_login"].(time.Time); ok {
		u.LastLogin = &t
	}
	if t, ok := rec["password_changed_at"].(time.Time); ok {
		u.PasswordChangedAt = t
	}
	if s := asString(rec["mfa_secret"]); s != "" {
		u.MFASecret = &s
	}
	if s := asString(rec["branch_id"]); s != "" {
		u.BranchID = &s
	}
	return u
}

// CreateUser provisions a new user with an initial password.
func (k *Kernel) CreateUser(ctx context.Context, username, email, fullName, password string, roles []string) (User, error) {
	if err := ValidatePasswordPolicy(password, k.policy); err != nil {
		return User{}, err
	}
	existing, err := k.store.Find(ctx, storage.TableUsers, storage.Filter{"username": username})
	if err != nil {
		return User{}, nexumerrors.StorageUnavailable(err)
	}
	if len(existing) > 0 {
		return User{}, nexumerrors.AlreadyExists("user", username)
	}
	hash, salt, err := NewPasswordHash(password)
	if err != nil {
		return User{}, nexumerrors.Internal("hash password", err)
	}
	u := User{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		FullName:          fullName,
		Roles:             roles,
		IsActive:          true,
		PasswordHash:      hash,
		PasswordSalt:      salt,
		PasswordAlgorithm: "scrypt",
		PasswordChangedAt: time.Now().UTC(),
		PasswordHistory:   []string{hash},
	}
	if err := k.saveUser(ctx, u); err != nil {
		return User{}, err
	}
	k.audit(ctx, audit.EventUserCreated, "user", u.ID, "system", map[string]interface{}{"username": username})
	return u, nil
}

func (k *Kernel) GetUser(ctx context.Context, id string) (User, error) {
	rec, err := k.store.Load(ctx, storage.TableUsers, id)
	if err == storage.ErrNotFound {
		return User{}, nexumerrors.NotFound("user", id)
	} else if err != nil {
		return User{}, nexumerrors.StorageUnavailable(err)
	}
	return userFromRecord(rec), nil
}

func (k *Kernel) getUserByUsername(ctx context.Context, username string) (User, error) {
	recs, err := k.store.Find(ctx, storage.TableUsers, storage.Filter{"username": username})
	if err != nil {
		return User{}, nexumerrors.StorageUnavailable(err)
	}
	if len(recs) == 0 {
		return User{}, nexumerrors.NotFound("user", username)
	}
	return userFromRecord(recs[0]), nil
}

func (k *Kernel) ListUsers(ctx context.Context) ([]User, error) {
	recs, err := k.store.LoadAll(ctx, storage.TableUsers)
	if err != nil {
		return nil, nexumerrors.StorageUnavailable(err)
	}
	users := make([]User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, userFromRecord(rec))
	}
	return users, nil
}

func (k *Kernel) AssignRole(ctx context.Context, userID, roleID string) (User, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if _, err := k.GetRole(ctx, roleID); err != nil {
		return User{}, err
	}
	for _, r := range u.Roles {
		if r == roleID {
			return u, nil
		}
	}
	u.Roles = append(u.Roles, roleID)
	if err := k.saveUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (k *Kernel) RemoveRole(ctx context.Context, userID, roleID string) (User, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	out := u.Roles[:0]
	for _, r := range u.Roles {
		if r != roleID {
			out = append(out, r)
		}
	}
	u.Roles = out
	if err := k.saveUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (k *Kernel) setActive(ctx context.Context, userID string, active bool) (User, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.IsActive = active
	if !active {
		if err := k.revokeAllSessions(ctx, userID); err != nil {
			return User{}, err
		}
	} else {
		u.IsLocked = false
		u.FailedLoginAttempts = 0
	}
	if err := k.saveUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (k *Kernel) ActivateUser(ctx context.Context, userID string) (User, error)   { return k.setActive(ctx, userID, true) }
func (k *Kernel) DeactivateUser(ctx context.Context, userID string) (User, error) { return k.setActive(ctx, userID, false) }

func (k *Kernel) LockUser(ctx context.Context, userID string) (User, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.IsLocked = true
	if err := k.saveUser(ctx, u); err != nil {
		return User{}, err
	}
	if err := k.revokeAllSessions(ctx, userID); err != nil {
		return User{}, err
	}
	return u, nil
}

func (k *Kernel) UnlockUser(ctx context.Context, userID string) (User, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.IsLocked = false
	u.FailedLoginAttempts = 0
	if err := k.saveUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// --- Authentication ---

// Authenticate validates credentials and issues a Session. Failed
// attempts increment User.FailedLoginAttempts; reaching
// policy.MaxFailedAttempts locks the user and revokes active sessions.
// A successful authentication resets the counter.
func (k *Kernel) Authenticate(ctx context.Context, username, password, ipAddress, userAgent string) (Session, error) {
	_ = k.authLimiter.Wait(ctx)

	u, err := k.getUserByUsername(ctx, username)
	if err != nil {
		k.audit(ctx, audit.EventAuthFailure, "user", username, username, map[string]interface{}{"reason": "no such user"})
		return Session{}, nexumerrors.InvalidCredentials()
	}
	if !u.Authenticable() {
		k.audit(ctx, audit.EventAuthFailure, "user", u.ID, username, map[string]interface{}{"reason": "account unavailable"})
		return Session{}, nexumerrors.AccountUnavailable()
	}

	ok, needsRehash := VerifyPassword(password, u)
	if !ok {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= k.policy.MaxFailedAttempts {
			u.IsLocked = true
		}
		if err := k.saveUser(ctx, u); err != nil {
			return Session{}, err
		}
		if u.IsLocked {
			if err := k.revokeAllSessions(ctx, u.ID); err != nil {
				return Session{}, err
			}
		}
		k.audit(ctx, audit.EventAuthFailure, "user", u.ID, username, map[string]interface{}{"reason": "bad password"})
		return Session{}, nexumerrors.InvalidCredentials()
	}

	if needsRehash {
		hash, salt, err := NewPasswordHash(password)
		if err == nil {
			u.PasswordHash, u.PasswordSalt, u.PasswordAlgorithm = hash, salt, "scrypt"
		}
	}
	now := time.Now().UTC()
	u.FailedLoginAttempts = 0
	u.LastLogin = &now
	if err := k.saveUser(ctx, u); err != nil {
		return Session{}, err
	}

	session := Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(k.policy.SessionTTL),
		IsActive:  true,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := k.saveSession(ctx, session); err != nil {
		return Session{}, err
	}
	k.cache.Put(ctx, session, k.policy.SessionTTL)
	k.audit(ctx, audit.EventAuthSuccess, "user", u.ID, username, nil)
	k.audit(ctx, audit.EventSessionIssued, "session", session.ID, username, nil)
	return session, nil
}

// ValidateSession returns the owning user iff the session is active,
// unexpired, and the owning user remains authenticable.
func (k *Kernel) ValidateSession(ctx context.Context, sessionID string) (User, error) {
	s, ok := k.cache.Get(ctx, sessionID)
	if !ok {
		var err error
		s, err = k.getSession(ctx, sessionID)
		if err != nil {
			return User{}, err
		}
		if ttl := time.Until(s.ExpiresAt); ttl > 0 {
			k.cache.Put(ctx, s, ttl)
		}
	}
	if !s.Valid(time.Now().UTC()) {
		return User{}, nexumerrors.SessionExpired()
	}
	u, err := k.GetUser(ctx, s.UserID)
	if err != nil {
		return User{}, err
	}
	if !u.Authenticable() {
		return User{}, nexumerrors.AccountUnavailable()
	}
	return u, nil
}

// Logout revokes a single session.
func (k *Kernel) Logout(ctx context.Context, sessionID string) error {
	s, err := k.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	s.IsActive = false
	if err := k.saveSession(ctx, s); err != nil {
		return err
	}
	k.cache.Invalidate(ctx, sessionID)
	k.audit(ctx, audit.EventSessionRevoked, "session", sessionID, s.UserID, nil)
	return nil
}

func (k *Kernel) revokeAllSessions(ctx context.Context, userID string) error {
	recs, err := k.store.Find(ctx, storage.TableSessions, storage.Filter{"user_id": userID})
	if err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	for _, rec := range recs {
		s := sessionFromRecord(rec)
		if !s.IsActive {
			continue
		}
		s.IsActive = false
		if err := k.saveSession(ctx, s); err != nil {
			return err
		}
		k.cache.Invalidate(ctx, s.ID)
	}
	return nil
}

func (k *Kernel) saveSession(ctx context.Context, s Session) error {
	record := map[string]interface{}{
		"id":         s.ID,
		"user_id":    s.UserID,
		"issued_at":  s.IssuedAt,
		"expires_at": s.ExpiresAt,
		"is_active":  s.IsActive,
		"ip_address": s.IPAddress,
		"user_agent": s.UserAgent,
	}
	if err := k.store.Save(ctx, storage.TableSessions, s.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

func (k *Kernel) getSession(ctx context.Context, id string) (Session, error) {
	rec, err := k.store.Load(ctx, storage.TableSessions, id)
	if err == storage.ErrNotFound {
		return Session{}, nexumerrors.NotFound("session", id)
	} else if err != nil {
		return Session{}, nexumerrors.StorageUnavailable(err)
	}
	return sessionFromRecord(rec), nil
}

func sessionFromRecord(rec map[string]interface{}) Session {
	s := Session{
		ID:        asString(rec["id"]),
		UserID:    asString(rec["user_id"]),
		IsActive:  asBool(rec["is_active"]),
		IPAddress: asString(rec["ip_address"]),
		UserAgent: asString(rec["user_agent"]),
	}
	if t, ok := rec["issued_at"].(time.Time); ok {
		s.IssuedAt = t
	}
	if t, ok := rec["expires_at"].(time.Time); ok {
		s.ExpiresAt = t
	}
	return s
}

// --- Password management ---

func (k *Kernel) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	ok, _ := VerifyPassword(oldPassword, u)
	if !ok {
		return nexumerrors.InvalidCredentials()
	}
	return k.setPassword(ctx, u, newPassword)
}

// ResetPassword issues a one-time temporary password, used by an admin on
// behalf of a locked-out user.
func (k *Kernel) ResetPassword(ctx context.Context, userID, adminID string) (string, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	temp, err := randomTempPassword()
	if err != nil {
		return "", nexumerrors.Internal("generate temporary password", err)
	}
	if err := k.setPassword(ctx, u, temp); err != nil {
		return "", err
	}
	k.audit(ctx, audit.EventPasswordReset, "user", userID, adminID, nil)
	return temp, nil
}

func (k *Kernel) setPassword(ctx context.Context, u User, newPassword string) error {
	if err := ValidatePasswordPolicy(newPassword, k.policy); err != nil {
		return err
	}
	hash, salt, err := NewPasswordHash(newPassword)
	if err != nil {
		return nexumerrors.Internal("hash password", err)
	}
	if InHistory(hash, u.PasswordHistory) {
		return nexumerrors.PasswordPolicy("password was used recently and cannot be reused")
	}
	u.PasswordHash = hash
	u.PasswordSalt = salt
	u.PasswordAlgorithm = "scrypt"
	u.PasswordChangedAt = time.Now().UTC()
	u.PasswordHistory = PushHistory(u.PasswordHistory, hash, k.policy.HistorySize)
	if err := k.saveUser(ctx, u); err != nil {
		return err
	}
	k.audit(ctx, audit.EventPasswordChanged, "user", u.ID, u.ID, nil)
	return nil
}

func randomTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "Tmp-" + hex.EncodeToString(buf), nil
}

// --- Permission and limit checks ---

// CheckPermission reports whether any role held by user grants perm.
func (k *Kernel) CheckPermission(ctx context.Context, userID string, perm Permission) (bool, error) {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, roleID := range u.Roles {
		r, err := k.GetRole(ctx, roleID)
		if err != nil {
			continue
		}
		if r.HasPermission(perm) {
			return true, nil
		}
	}
	return false, nil
}

// LimitKind distinguishes the transaction-amount limit from the
// approval-amount limit; a role may define either, both, or neither.
type LimitKind string

const (
	LimitTransaction LimitKind = "transaction"
	LimitApproval    LimitKind = "approval"
)

// CheckAmountLimit fails with a PolicyError if ANY role held by the user
// defines a limit of kind that amount exceeds, matching rbac.py's
// check_amount_limit (a single over-limit role is enough to block).
func (k *Kernel) CheckAmountLimit(ctx context.Context, userID string, kind LimitKind, amount money.Money) error {
	u, err := k.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, roleID := range u.Roles {
		r, err := k.GetRole(ctx, roleID)
		if err != nil {
			continue
		}
		var limit *money.Money
		if kind == LimitTransaction {
			limit = r.MaxTransactionAmount
		} else {
			limit = r.MaxApprovalAmount
		}
		if limit == nil {
			continue
		}
		cmp, err := amount.Cmp(*limit)
		if err != nil {
			continue
		}
		if cmp > 0 {
			return nexumerrors.AmountLimitExceeded(string(kind), limit.String(), amount.String())
		}
	}
	return nil
}

func (k *Kernel) audit(ctx context.Context, eventType audit.EventType, entityType, entityID, actor string, metadata map[string]interface{}) {
	if k.trail == nil {
		return
	}
	if _, err := k.trail.Record(ctx, eventType, entityType, entityID, actor, metadata); err != nil {
		k.log.WithError(err).Warn("failed to record audit event")
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
