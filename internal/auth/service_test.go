package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/pkg/common"
)

type fakeUsers struct {
	byID     map[int64]*domain.SysUser
	grants   map[int64][]string
	lastSeen map[int64]bool
}

func newFakeUsers(users ...*domain.SysUser) *fakeUsers {
	f := &fakeUsers{
		byID:     map[int64]*domain.SysUser{},
		grants:   map[int64][]string{},
		lastSeen: map[int64]bool{},
	}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*domain.SysUser, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*domain.SysUser, error) {
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) Create(ctx context.Context, u *domain.SysUser) error {
	if _, err := f.GetByUsername(ctx, u.Username); err == nil {
		return errors.New("duplicate username")
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) TouchLastLogin(ctx context.Context, id int64) error {
	f.lastSeen[id] = true
	return nil
}

func (f *fakeUsers) Permissions(ctx context.Context, userID int64) ([]string, error) {
	out := f.grants[userID]
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestService(t *testing.T, users *fakeUsers) *Service {
	t.Helper()
	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokens.Close() })
	return NewService(users, tokens, "unit-test-secret")
}

func enabledCashier(t *testing.T, id int64, username, password string) *domain.SysUser {
	return &domain.SysUser{
		ID:       id,
		Username: username,
		Password: hashOf(t, password),
		Role:     domain.RoleCashier,
		Status:   common.ENABLED,
	}
}

func TestAuthenticate(t *testing.T) {
	users := newFakeUsers(enabledCashier(t, 1, "maria", "tindahan99"))
	svc := newTestService(t, users)

	u, err := svc.Authenticate(context.Background(), "maria", "tindahan99")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.True(t, users.lastSeen[1])

	_, err = svc.Authenticate(context.Background(), "maria", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown user and wrong password are indistinguishable to the caller.
	_, err = svc.Authenticate(context.Background(), "nobody", "tindahan99")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	u := enabledCashier(t, 1, "maria", "tindahan99")
	u.Status = common.DISABLED
	svc := newTestService(t, newFakeUsers(u))

	_, err := svc.Authenticate(context.Background(), "maria", "tindahan99")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestPermissionsDefaultDeny(t *testing.T) {
	users := newFakeUsers(enabledCashier(t, 1, "maria", "x"))
	svc := newTestService(t, users)

	// No grant rows means no permissions at all.
	perms, err := svc.PermissionsFor(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, perms)

	ok, err := svc.HasPermission(context.Background(), 1, domain.PermProcessSales)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown users also resolve to an empty set, never an error.
	perms, err = svc.PermissionsFor(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestPermissionsGrantedRows(t *testing.T) {
	users := newFakeUsers(enabledCashier(t, 1, "maria", "x"))
	users.grants[1] = []string{domain.PermProcessSales, domain.PermViewProducts}
	svc := newTestService(t, users)

	perms, err := svc.PermissionsFor(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.PermProcessSales, domain.PermViewProducts}, perms)

	ok, err := svc.HasPermission(context.Background(), 1, domain.PermProcessSales)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(context.Background(), 1, domain.PermDeleteProducts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionsAdminRoleGetsFullSet(t *testing.T) {
	admin := &domain.SysUser{ID: 2, Username: "admin", Role: domain.RoleAdmin, Status: common.ENABLED}
	svc := newTestService(t, newFakeUsers(admin))

	perms, err := svc.PermissionsFor(context.Background(), 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, domain.AllPermissions, perms)

	// The returned slice is a copy; mutating it must not poison the set.
	perms[0] = "tampered"
	again, err := svc.PermissionsFor(context.Background(), 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, domain.AllPermissions, again)
}

func TestRegister(t *testing.T) {
	users := newFakeUsers(enabledCashier(t, 1, "maria", "x"))
	svc := newTestService(t, users)

	u, err := svc.Register(context.Background(), "jose", "jose@palengke.ph", "secret99")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, u.Role)
	assert.Equal(t, common.ENABLED, u.Status)
	assert.NotEqual(t, "secret99", u.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret99")))

	_, err = svc.Register(context.Background(), "maria", "maria@palengke.ph", "secret99")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.Register(context.Background(), "ana", "ana@palengke.ph", "short")
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), "", "ana@palengke.ph", "secret99")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	u := enabledCashier(t, 42, "maria", "x")
	svc := newTestService(t, newFakeUsers(u))

	signed, claims, err := svc.IssueToken(u)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := svc.ParseToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "maria", parsed.Username)
	assert.Equal(t, domain.RoleCashier, parsed.Role)

	id, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	u := enabledCashier(t, 42, "maria", "x")
	issuer := newTestService(t, newFakeUsers(u))
	verifier := NewService(newFakeUsers(u), issuer.tokens, "a-different-secret")

	signed, _, err := issuer.IssueToken(u)
	require.NoError(t, err)

	_, err = verifier.ParseToken(signed)
	assert.Error(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	u := enabledCashier(t, 42, "maria", "x")
	svc := newTestService(t, newFakeUsers(u))

	signed, claims, err := svc.IssueToken(u)
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(claims.ID, claims.ExpiresAt.Time))

	_, err = svc.ParseToken(signed)
	assert.Error(t, err)
}

func TestTokenStorePurge(t *testing.T) {
	tokens, err := NewTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	defer tokens.Close()

	now := time.Now()
	require.NoError(t, tokens.Revoke("expired", now.Add(-time.Hour)))
	require.NoError(t, tokens.Revoke("live", now.Add(time.Hour)))

	require.NoError(t, tokens.Purge(now))

	revoked, err := tokens.IsRevoked("expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = tokens.IsRevoked("live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
