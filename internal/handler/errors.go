package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/query-system/internal/logging"
    "github.com/iliyamo/query-system/internal/service"
)

// errorMapping pairs a service sentinel with its HTTP status and the stable
// code clients switch on.
var errorMapping = []struct {
    err    error
    status int
    code   string
}{
    {service.ErrDuplicateAccount, http.StatusConflict, "duplicate_account"},
    {service.ErrNotFound, http.StatusNotFound, "not_found"},
    {service.ErrQueryNotFound, http.StatusNotFound, "query_not_found"},
    {service.ErrOwnerNotFound, http.StatusNotFound, "owner_not_found"},
    {service.ErrNotActive, http.StatusForbidden, "not_active"},
    {service.ErrInvalidOTP, http.StatusUnauthorized, "invalid_otp"},
    {service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
}

func jsonError(c echo.Context, status int, msg, code string) error {
    return c.JSON(status, echo.Map{"error": msg, "code": code})
}

func badRequest(c echo.Context, msg string) error {
    return jsonError(c, http.StatusBadRequest, msg, "validation")
}

// serviceError writes the response for an error returned by the service
// layer.  Unknown errors are logged and hidden behind a 500.
func serviceError(c echo.Context, log logging.Logger, err error) error {
    for _, m := range errorMapping {
        if errors.Is(err, m.err) {
            return jsonError(c, m.status, m.err.Error(), m.code)
        }
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return jsonError(c, http.StatusGatewayTimeout, "request timed out", "timeout")
    }
    log.Error(c.Request().Context(), "request failed", "path", c.Path(), "err", err)
    return jsonError(c, http.StatusInternalServerError, "internal error", "internal")
}
