package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// AccountID returns the token subject stored by JWTAuth, or "" when the
// request is unauthenticated.
func AccountID(c echo.Context) string {
    v, _ := c.Get(ctxAccountID).(string)
    return v
}

// Role returns the role claim stored by JWTAuth.
func Role(c echo.Context) string {
    v, _ := c.Get(ctxRole).(string)
    return v
}

// RequireSelf rejects requests whose path parameter param differs from the
// token subject.  Routes without the parameter pass through.
func RequireSelf(param string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if id := c.Param(param); id != "" && id != AccountID(c) {
                return deny(c, http.StatusForbidden, "forbidden", "forbidden")
            }
            return next(c)
        }
    }
}
