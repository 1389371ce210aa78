package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sourcedesk_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, first)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	sess.SetUser("42")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, first, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sourcedesk_session", cookies[0].Name)

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "42", loaded.User())
	require.Equal(t, "dark", loaded.Get("theme"))
}

func TestSessionDestroyClearsState(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, first)
	require.NoError(t, err)
	sess.SetUser("42")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, first, sess))
	cookie := rec.Result().Cookies()[0]

	sm.Destroy(sess)
	destroyRec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, destroyRec, first, sess))

	expired := destroyRec.Result().Cookies()
	require.Len(t, expired, 1)
	require.Equal(t, -1, expired[0].MaxAge)

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookie)
	fresh, err := sm.Load(ctx, again)
	require.NoError(t, err)
	require.Empty(t, fresh.User())
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm := newTestManager(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sourcedesk_session", Value: "does-not-exist"})

	sess, err := sm.Load(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, "does-not-exist", sess.ID)
	require.Empty(t, sess.User())
}
