package authz

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// Identity is the resolved caller: account id plus display name and role.
type Identity struct {
	ID   int64
	Name string
	Role Role
}

// Resolver loads the identity behind a session user id.
type Resolver interface {
	ResolveIdentity(ctx context.Context, userID int64) (Identity, error)
}

// Middleware wires the policy table into HTTP handlers.
type Middleware struct {
	Policy   Policy
	Resolver Resolver
	Logger   *slog.Logger
	// Obscure makes role mismatches answer 404 instead of 403, so resource
	// routes do not reveal whether the target exists.
	Obscure bool
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity placed by Require.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Require authorizes the request against a single operation key and stashes
// the caller identity in the request context on success.
func (m Middleware) Require(op string) func(http.Handler) http.Handler {
	return m.require(op, m.Obscure)
}

// RequireResource behaves like Require but always answers role mismatches
// with 404, so callers cannot tell "missing" from "not allowed".
func (m Middleware) RequireResource(op string) func(http.Handler) http.Handler {
	return m.require(op, true)
}

func (m Middleware) require(op string, obscure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.currentUserID(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			identity, err := m.Resolver.ResolveIdentity(r.Context(), userID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz resolve identity", slog.Any("error", err), slog.Int64("user_id", userID))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !m.Policy.Allows(op, identity.Role) {
				m.deny(w, obscure)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, obscure bool) {
	if obscure {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
