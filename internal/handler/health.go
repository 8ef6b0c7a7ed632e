package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

var startedAt = time.Now()

// Health reports liveness for load balancers along with process uptime.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "status": "ok",
        "uptime": time.Since(startedAt).Round(time.Second).String(),
    })
}
