package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the caller's Identity in the context.  Every failure (no
// header, wrong scheme, malformed, bad signature, expired) is answered
// with 403 and the handler never runs.  The exact verification failure is
// only logged.
func JWTAuth(tokens *utils.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return forbidden(c, "missing bearer token")
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				log := logutil.GetOrDefault(c.Request().Context())
				log.Debug().Err(err).Msg("access token rejected")
				return forbidden(c, "invalid token")
			}
			SetIdentity(c, Identity{UserID: claims.Subject, Username: claims.Username})
			return next(c)
		}
	}
}

// bearerToken extracts the token from "Bearer <token>".  The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
}
