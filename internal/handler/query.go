package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/query-system/internal/logging"
    "github.com/iliyamo/query-system/internal/middleware"
    "github.com/iliyamo/query-system/internal/service"
)

// QueryHandler serves the user-facing query endpoints.
type QueryHandler struct {
    Svc *service.QueryService
    Log logging.Logger
}

func NewQueryHandler(svc *service.QueryService, log logging.Logger) *QueryHandler {
    return &QueryHandler{Svc: svc, Log: log}
}

// Priority is always derived from the text; a "priority" field in the body
// is ignored.
type submitReq struct {
    Category  string `json:"category" validate:"required,max=100"`
    QueryText string `json:"queryText" validate:"required"`
}

// Submit files a query on behalf of the authenticated user.
func (h *QueryHandler) Submit(c echo.Context) error {
    var req submitReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    q, err := h.Svc.Submit(ctx, middleware.AccountID(c), req.Category, req.QueryText)
    if err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":  "Query submitted successfully",
        "queryId":  q.ID,
        "priority": q.Priority,
        "query":    q,
    })
}

// Mine lists the caller's queries and marks them read.  It also serves
// /queries/user/:userId, which RequireSelf restricts to the caller's own id.
func (h *QueryHandler) Mine(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    list, err := h.Svc.ListForUser(ctx, middleware.AccountID(c))
    if err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}
