package handler

import (
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    // report fields by their JSON names
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

func (r *RequestValidator) Validate(i interface{}) error {
    return r.v.Struct(i)
}

// bindValid binds the request body into req and validates it.  The returned
// message is suitable for a 400 response.
func bindValid(c echo.Context, req interface{}) (string, bool) {
    if err := c.Bind(req); err != nil {
        return "invalid body", false
    }
    if err := c.Validate(req); err != nil {
        return describe(err), false
    }
    return "", true
}

func describe(err error) string {
    verrs, ok := err.(validator.ValidationErrors)
    if !ok {
        return err.Error()
    }
    parts := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        switch fe.Tag() {
        case "required":
            parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
        case "email":
            parts = append(parts, fmt.Sprintf("%s must be a valid email", fe.Field()))
        default:
            parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
        }
    }
    return strings.Join(parts, "; ")
}
