package middleware

// identity.go holds the authenticated caller as placed in the Echo context
// by JWTAuth, plus the key helpers the rate limiter and cache build on.

import (
	"context"

	"github.com/labstack/echo/v4"
)

type ctxKey struct{}

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

// Identity is the caller proven by a verified access token.
type Identity struct {
	UserID   string
	Username string
}

// SetIdentity stores id in c and in the request context.  The bare user
// id is also kept under "user_id" for code that only needs the key.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, id)))
}

// IdentityFromContext is IdentityFrom for code below the HTTP layer.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// IdentityFrom returns the identity stored by JWTAuth, if any.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// userID returns the caller's id or "anon" for unauthenticated requests.
func userID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
