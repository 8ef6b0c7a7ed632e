package handler

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/query-system/internal/logging"
    "github.com/iliyamo/query-system/internal/middleware"
    "github.com/iliyamo/query-system/internal/model"
    "github.com/iliyamo/query-system/internal/service"
)

const requestTimeout = 5 * time.Second

// AuthHandler exposes the OTP flows of one role.
type AuthHandler struct {
    Svc *service.AuthService
    Log logging.Logger
}

func NewAuthHandler(svc *service.AuthService, log logging.Logger) *AuthHandler {
    return &AuthHandler{Svc: svc, Log: log}
}

// ----- DTOs -----

type emailReq struct {
    Email string `json:"email" validate:"required,email"`
}
type otpReq struct {
    Email string `json:"email" validate:"required,email"`
    OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

// accountView is the public shape of an account; OTP state is never exposed.
type accountView struct {
    ID        string        `json:"id"`
    Email     string        `json:"email"`
    Role      model.Role    `json:"role"`
    Active    bool          `json:"active"`
    Profile   model.Profile `json:"profile"`
    CreatedAt time.Time     `json:"createdAt"`
}

func viewOf(a *model.Account) accountView {
    p := a.Profile
    if p == nil {
        p = model.Profile{}
    }
    return accountView{ID: a.ID, Email: a.Email, Role: a.Role, Active: a.Active, Profile: p, CreatedAt: a.CreatedAt}
}

// idField names the id in login responses: user_id, mentor_id or admin_id.
func (h *AuthHandler) idField() string {
    return strings.ToLower(string(h.Svc.Role())) + "_id"
}

// Signup accepts an email plus any profile attributes (name, age, college,
// expertise, ...) as a flat JSON object.
func (h *AuthHandler) Signup(c echo.Context) error {
    var body map[string]interface{}
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid body")
    }
    email, _ := body["email"].(string)
    email = strings.TrimSpace(email)
    if msg, ok := validEmail(c, email); !ok {
        return badRequest(c, msg)
    }
    profile := model.Profile{}
    for k, v := range body {
        if k == "email" || v == nil {
            continue
        }
        profile[k] = fmt.Sprint(v)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    id, err := h.Svc.Signup(ctx, email, profile)
    if err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "OTP sent to email for verification",
        h.idField(): id,
    })
}

func validEmail(c echo.Context, email string) (string, bool) {
    if err := c.Validate(&emailReq{Email: email}); err != nil {
        return describe(err), false
    }
    return "", true
}

// VerifySignup activates a freshly registered account.
func (h *AuthHandler) VerifySignup(c echo.Context) error {
    var req otpReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Svc.VerifySignupOTP(ctx, req.Email, req.OTP); err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Account verified successfully"})
}

// Login sends a login code to the account's email.
func (h *AuthHandler) Login(c echo.Context) error {
    var req emailReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    if err := h.Svc.Login(ctx, req.Email); err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to email for login"})
}

// VerifyLogin exchanges a login code for an access token.
func (h *AuthHandler) VerifyLogin(c echo.Context) error {
    var req otpReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    sess, err := h.Svc.VerifyLoginOTP(ctx, req.Email, req.OTP)
    if err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":   "Login successful",
        h.idField(): sess.AccountID,
        "access":    tokenPart{Token: sess.AccessToken, Expires: sess.ExpiresAt},
    })
}

// Get returns the account named by the :id path parameter.
func (h *AuthHandler) Get(c echo.Context) error {
    return h.account(c, c.Param("id"))
}

// Me returns the caller's own account.
func (h *AuthHandler) Me(c echo.Context) error {
    return h.account(c, middleware.AccountID(c))
}

func (h *AuthHandler) account(c echo.Context, id string) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
    defer cancel()

    acc, err := h.Svc.Account(ctx, id)
    if err != nil {
        return serviceError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, viewOf(acc))
}
