package middleware

import (
    "context"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/query-system/internal/logging"
)

// RequestLogger logs one line per request through log.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURIPath:   true,
        LogRoutePath: true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            args := []any{
                "method", v.Method,
                "path", v.URIPath,
                "route", v.RoutePath,
                "status", v.Status,
                "latency_ms", v.Latency.Milliseconds(),
                "request_id", v.RequestID,
            }
            if id := AccountID(c); id != "" {
                args = append(args, "account_id", id)
            }
            ctx := context.WithoutCancel(c.Request().Context())
            if v.Error != nil {
                log.Error(ctx, "request", append(args, "err", v.Error)...)
                return nil
            }
            log.Info(ctx, "request", args...)
            return nil
        },
    })
}
