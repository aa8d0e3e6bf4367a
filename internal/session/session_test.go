package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairsby-console/internal/domain"
	"hairsby-console/internal/store"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func specialistClaims(exp time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sp-1", ExpiresAt: jwt.NewNumericDate(exp)},
		Role:             "specialist",
		Name:             "Ada",
	}
}

func newTestContext(t *testing.T) (*Context, *store.BoltStore) {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, nil, nil), st
}

func TestContext_LoginPersistsAndHydrates(t *testing.T) {
	c, st := newTestContext(t)
	ctx := context.Background()
	token := signToken(t, specialistClaims(time.Now().Add(time.Hour)))

	info, err := c.Login(ctx, token)
	require.NoError(t, err)
	assert.True(t, info.SignedIn)
	assert.Equal(t, domain.RoleSpecialist, info.Role)
	assert.Equal(t, "sp-1", info.ProviderID)
	assert.Equal(t, token, c.Token())

	restarted := New(st, nil, nil)
	info, err = restarted.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sp-1", info.UserID)

	p, err := restarted.Provider()
	require.NoError(t, err)
	assert.Equal(t, "sp-1", p.ProviderID())
}

func TestContext_HydrateWithoutSavedSession(t *testing.T) {
	c, _ := newTestContext(t)
	info, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	assert.False(t, info.SignedIn)

	_, err = c.Actor()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestContext_ExpiredTokenIsDiscardedOnHydrate(t *testing.T) {
	c, st := newTestContext(t)
	ctx := context.Background()
	require.NoError(t, st.SaveSession(ctx, store.SessionRecord{
		Token: signToken(t, specialistClaims(time.Now().Add(-time.Minute))),
	}))

	_, err := c.Hydrate(ctx)
	assert.ErrorIs(t, err, ErrTokenExpired)
	_, err = st.LoadSession(ctx)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestContext_SessionExpiresWhileRunning(t *testing.T) {
	c, _ := newTestContext(t)
	now := time.Now()
	c.now = func() time.Time { return now }
	_, err := c.Login(context.Background(), signToken(t, specialistClaims(now.Add(time.Minute))))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Actor()
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Empty(t, c.Token())
	assert.False(t, c.Info().SignedIn)
}

func TestContext_LogoutRunsTeardownAndClears(t *testing.T) {
	c, st := newTestContext(t)
	ctx := context.Background()
	_, err := c.Login(ctx, signToken(t, specialistClaims(time.Now().Add(time.Hour))))
	require.NoError(t, err)
	c.Notifier().Info("hello", "")

	var order []string
	c.OnLogout(func() { order = append(order, "dialogs") })
	c.OnLogout(func() { order = append(order, "previews") })

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, []string{"dialogs", "previews"}, order)
	assert.Empty(t, c.Token())
	assert.Zero(t, c.Notifier().Pending())
	_, err = st.LoadSession(ctx)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestParseToken_BusinessEmployee(t *testing.T) {
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "emp-7"},
		Role:             "business",
		BusinessID:       "biz-1",
		Name:             "Sam",
	})
	actor, _, err := parseToken("Bearer "+token, time.Now())
	require.NoError(t, err)

	biz, ok := actor.(domain.Business)
	require.True(t, ok)
	assert.Equal(t, "biz-1", biz.ProviderID())
	assert.Equal(t, "emp-7", biz.UserID())
	assert.Equal(t, "Sam", biz.Employee.Name)
}

func TestParseToken_Rejects(t *testing.T) {
	_, _, err := parseToken("not-a-jwt", time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = parseToken(signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x"},
		Role:             "admin",
	}), time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)

	c, _ := newTestContext(t)
	_, err = c.Login(context.Background(), signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "c1"},
		Role:             "customer",
	}))
	require.NoError(t, err)
	_, err = c.Provider()
	assert.ErrorIs(t, err, domain.ErrNotProvider)
}
