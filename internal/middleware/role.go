package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/query-system/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated account has one of the specified roles.  It assumes JWTAuth
// ran first; a missing or foreign role is answered with 403 Forbidden.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[string(r)] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return deny(c, http.StatusForbidden, "forbidden", "forbidden")
            }
            return next(c)
        }
    }
}
