package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

type stubResolver struct {
	identities map[int64]Identity
}

func (r *stubResolver) ResolveIdentity(ctx context.Context, userID int64) (Identity, error) {
	identity, ok := r.identities[userID]
	if !ok {
		return Identity{}, errors.New("unknown user")
	}
	return identity, nil
}

func newTestMiddleware(t *testing.T) (Middleware, *stubResolver) {
	t.Helper()
	resolver := &stubResolver{identities: map[int64]Identity{
		1: {ID: 1, Name: "Root", Role: RoleAdmin},
		2: {ID: 2, Name: "Priya", Role: RolePRManager},
		3: {ID: 3, Name: "Vikram", Role: RoleUser},
	}}
	return Middleware{Policy: DefaultPolicy(), Resolver: resolver}, resolver
}

func requestAs(t *testing.T, userID int64) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "sourcedesk_session", "secret", time.Hour, false)

	r := httptest.NewRequest(http.MethodGet, "/rfp", nil)
	sess, err := sm.Load(r.Context(), r)
	require.NoError(t, err)
	if userID != 0 {
		sess.SetUser(strconv.FormatInt(userID, 10))
	}
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		identity, ok := IdentityFromContext(r.Context())
		if !ok || identity.ID == 0 {
			http.Error(w, "identity missing", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAllowsPermittedRole(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	hit := false

	rec := httptest.NewRecorder()
	mw.Require(OpRFPUpdate)(okHandler(&hit)).ServeHTTP(rec, requestAs(t, 2))

	require.True(t, hit)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireDeniesForbiddenRole(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	hit := false

	rec := httptest.NewRecorder()
	mw.Require(OpRFPUpdate)(okHandler(&hit)).ServeHTTP(rec, requestAs(t, 3))

	require.False(t, hit)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireResourceObscuresDenial(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	hit := false

	rec := httptest.NewRecorder()
	mw.RequireResource(OpRFPUpdate)(okHandler(&hit)).ServeHTTP(rec, requestAs(t, 3))

	require.False(t, hit)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireRejectsAnonymous(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	hit := false

	rec := httptest.NewRecorder()
	mw.Require(OpRFPView)(okHandler(&hit)).ServeHTTP(rec, requestAs(t, 0))

	require.False(t, hit)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireStashesIdentity(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	var got Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	})
	rec := httptest.NewRecorder()
	mw.Require(OpAuditView)(handler).ServeHTTP(rec, requestAs(t, 1))

	require.Equal(t, int64(1), got.ID)
	require.Equal(t, RoleAdmin, got.Role)
}
