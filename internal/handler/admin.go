package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/query-system/internal/logging"
    "github.com/iliyamo/query-system/internal/service"
)

// AdminHandler serves the administrator's query endpoints.
type AdminHandler struct {
    Svc *service.QueryService
    Log logging.Logger
}

func NewAdminHandler(svc *service.QueryService, log logging.Logger) *AdminHandler {
    return &AdminHandler{Svc: svc, Log: log}
}

type replyReq struct {
    QueryID string `json:"queryId" validate:"required"`
    Reply   string `json:"reply" validate:"required"`
}

// List returns every query, filtered by the optional ?status= parameter.
func (h *AdminHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    list, err := h.Svc.ListAll(ctx, c.QueryParam("status"))
    if err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Reply resolves a query and emails the owner.
func (h *AdminHandler) Reply(c echo.Context) error {
    var req replyReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    q, err := h.Svc.Resolve(ctx, req.QueryID, req.Reply)
    if err != nil {
        if errors.Is(err, service.ErrOwnerNotFound) {
            // the reply is stored; only the email could not be sent
            return c.JSON(http.StatusNotFound, echo.Map{
                "error": err.Error(),
                "code":  "owner_not_found",
                "query": q,
            })
        }
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Reply sent successfully", "query": q})
}
