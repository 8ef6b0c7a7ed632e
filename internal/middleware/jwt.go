package middleware // package middleware contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/query-system/internal/utils"
)

// Context keys set by JWTAuth.
const (
    ctxAccountID = "account_id"
    ctxRole      = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers read
// the values back through AccountID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return deny(c, http.StatusUnauthorized, "missing bearer token", "unauthorized")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return deny(c, http.StatusUnauthorized, "invalid token", "unauthorized")
            }
            c.Set(ctxAccountID, claims.Subject)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}

func deny(c echo.Context, status int, msg, code string) error {
    return c.JSON(status, echo.Map{"error": msg, "code": code})
}
