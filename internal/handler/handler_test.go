package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/service"
)

func newContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServiceError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrDuplicateAccount, http.StatusConflict, "duplicate_account"},
		{fmt.Errorf("wrapped: %w", service.ErrNotFound), http.StatusNotFound, "not_found"},
		{service.ErrQueryNotFound, http.StatusNotFound, "query_not_found"},
		{service.ErrNotActive, http.StatusForbidden, "not_active"},
		{service.ErrInvalidOTP, http.StatusUnauthorized, "invalid_otp"},
		{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			c, rec := newContext("")
			require.NoError(t, serviceError(c, logging.Discard(), tc.err))
			assert.Equal(t, tc.status, rec.Code)
			out := decode(t, rec)
			assert.Equal(t, tc.code, out["code"])
			assert.NotContains(t, out["error"], "disk")
		})
	}
}

func TestBindValid(t *testing.T) {
	c, _ := newContext(`{"email":"a@b.co","otp":"123456"}`)
	var ok otpReq
	msg, valid := bindValid(c, &ok)
	assert.True(t, valid, msg)
	assert.Equal(t, "123456", ok.OTP)

	c, _ = newContext(`{"otp":"1"}`)
	var bad otpReq
	msg, valid = bindValid(c, &bad)
	assert.False(t, valid)
	assert.Contains(t, msg, "email is required")
	assert.Contains(t, msg, "otp failed len")

	c, _ = newContext(`{not json`)
	msg, valid = bindValid(c, &bad)
	assert.False(t, valid)
	assert.Equal(t, "invalid body", msg)
}

func TestSubmitReq_CategoryLength(t *testing.T) {
	c, _ := newContext(`{"category":"` + strings.Repeat("x", 101) + `","queryText":"hi"}`)
	var req submitReq
	msg, valid := bindValid(c, &req)
	assert.False(t, valid)
	assert.Equal(t, "category failed max", msg)
}

func TestHealth(t *testing.T) {
	c, rec := newContext("")
	require.NoError(t, Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
