package accesscontrol

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage/memory"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	store := memory.New()
	k, err := New(context.Background(), store, nil, DefaultPasswordPolicy(), nil, nil)
	require.NoError(t, err)
	return k
}

func TestSeedsEightSystemRoles(t *testing.T) {
	k := newTestKernel(t)
	roles, err := k.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 8)
}

func TestSystemRoleIsImmutable(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.UpdateRole(context.Background(), string(RoleTeller), "x", "y", nil)
	require.Error(t, err)
	err = k.DeleteRole(context.Background(), string(RoleTeller))
	require.Error(t, err)
}

func TestCreateUserWeakPasswordRejected(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CreateUser(context.Background(), "jdoe", "jdoe@example.com", "Jane Doe", "short", []string{string(RoleTeller)})
	require.Error(t, err)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CreateUser(context.Background(), "jdoe", "jdoe@example.com", "Jane Doe", "Str0ng!Passw0rd", []string{string(RoleTeller)})
	require.NoError(t, err)

	session, err := k.Authenticate(context.Background(), "jdoe", "Str0ng!Passw0rd", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.True(t, session.IsActive)

	user, err := k.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, "jdoe", user.Username)

	require.NoError(t, k.Logout(context.Background(), session.ID))
	_, err = k.ValidateSession(context.Background(), session.ID)
	require.Error(t, err)
}

func TestAuthenticateWrongPasswordLocksAfterMaxAttempts(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.CreateUser(context.Background(), "jdoe", "jdoe@example.com", "Jane Doe", "Str0ng!Passw0rd", nil)
	require.NoError(t, err)

	for i := 0; i < DefaultPasswordPolicy().MaxFailedAttempts; i++ {
		_, err = k.Authenticate(context.Background(), "jdoe", "wrong-password", "10.0.0.1", "test-agent")
		require.Error(t, err)
	}

	_, err = k.Authenticate(context.Background(), "jdoe", "Str0ng!Passw0rd", "10.0.0.1", "test-agent")
	require.Error(t, err)
}

func TestSessionCacheServesValidateSession(t *testing.T) {
	store := memory.New()
	cache := &countingCache{}
	k, err := New(context.Background(), store, nil, DefaultPasswordPolicy(), nil, cache)
	require.NoError(t, err)

	_, err = k.CreateUser(context.Background(), "jdoe", "jdoe@example.com", "Jane Doe", "Str0ng!Passw0rd", nil)
	require.NoError(t, err)
	session, err := k.Authenticate(context.Background(), "jdoe", "Str0ng!Passw0rd", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	_, err = k.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, 1, cache.hits)
}

func TestCheckAmountLimitBlocksOverLimitRole(t *testing.T) {
	k := newTestKernel(t)
	limit := money.New(decimal.RequireFromString("1000"), money.USD)
	role, err := k.CreateRole(context.Background(), "micro-teller", "limited teller", []Permission{PermTransactionCreate}, &limit, nil)
	require.NoError(t, err)

	_, err = k.CreateUser(context.Background(), "jdoe", "jdoe@example.com", "Jane Doe", "Str0ng!Passw0rd", []string{role.ID})
	require.NoError(t, err)
	users, err := k.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)

	over := money.New(decimal.RequireFromString("5000"), money.USD)
	err = k.CheckAmountLimit(context.Background(), users[0].ID, LimitTransaction, over)
	require.Error(t, err)

	under := money.New(decimal.RequireFromString("500"), money.USD)
	require.NoError(t, k.CheckAmountLimit(context.Background(), users[0].ID, LimitTransaction, under))
}

// countingCache is a minimal in-memory SessionCache stand-in that counts
// hits, used to assert ValidateSession actually consults the cache rather
// than the store it wraps.
type countingCache struct {
	sessions map[string]Session
	hits     int
}

func (c *countingCache) Get(ctx context.Context, id string) (Session, bool) {
	if c.sessions == nil {
		return Session{}, false
	}
	s, ok := c.sessions[id]
	if ok {
		c.hits++
	}
	return s, ok
}

func (c *countingCache) Put(ctx context.Context, s Session, ttl time.Duration) {
	if c.sessions == nil {
		c.sessions = make(map[string]Session)
	}
	c.sessions[s.ID] = s
}

func (c *countingCache) Invalidate(ctx context.Context, id string) {
	delete(c.sessions, id)
}
