package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/query-system/internal/config"
	"github.com/iliyamo/query-system/internal/handler"
	"github.com/iliyamo/query-system/internal/idgen"
	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/model"
	"github.com/iliyamo/query-system/internal/notify"
	"github.com/iliyamo/query-system/internal/otp"
	"github.com/iliyamo/query-system/internal/repository"
	"github.com/iliyamo/query-system/internal/service"
)

const (
	secret     = "router-secret"
	adminEmail = "root@example.com"
)

var codeRe = regexp.MustCompile(`Your OTP is: (\d{6})`)

type mailbox struct {
	mu   sync.Mutex
	mail map[string][]string
}

func (m *mailbox) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mail[to] = append(m.mail[to], subject+"\n"+body)
	return nil
}

func (m *mailbox) lastCode(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.mail[to]
	require.NotEmpty(t, msgs, "no mail for %s", to)
	match := codeRe.FindStringSubmatch(msgs[len(msgs)-1])
	require.Len(t, match, 2)
	return match[1]
}

type app struct {
	e    *echo.Echo
	mail *mailbox
	t    *testing.T
}

func newApp(t *testing.T) *app {
	log := logging.Discard()
	mail := &mailbox{mail: map[string][]string{}}
	dispatcher := notify.NewDispatcher(mail, log, adminEmail, 5*time.Minute)
	issuer := otp.NewIssuer(5 * time.Minute)

	users := repository.NewMemoryAccountRepo(model.RoleUser)
	authFor := func(role model.Role, store repository.AccountStore, prefix string) *handler.AuthHandler {
		return handler.NewAuthHandler(service.NewAuthService(service.AuthConfig{
			Role: role, AdminEmail: adminEmail, JWTSecret: secret, AccessTTLMin: 10,
		}, store, idgen.New(prefix), issuer, dispatcher, log), log)
	}
	qs := service.NewQueryService(repository.NewMemoryQueryRepo(), users, idgen.New("Q"), dispatcher, log)

	e := New(Deps{
		Users:     authFor(model.RoleUser, users, "U"),
		Mentors:   authFor(model.RoleMentor, repository.NewMemoryAccountRepo(model.RoleMentor), "M"),
		Admins:    authFor(model.RoleAdmin, repository.NewMemoryAccountRepo(model.RoleAdmin), "A"),
		Queries:   handler.NewQueryHandler(qs, log),
		Admin:     handler.NewAdminHandler(qs, log),
		JWTSecret: secret,
		Cache:     config.CacheConfig{Enabled: false},
		Log:       log,
	})
	return &app{e: e, mail: mail, t: t}
}

func (a *app) call(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (a *app) list(path, token string) []map[string]any {
	a.t.Helper()
	rec, _ := a.call(http.MethodGet, path, token, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out []map[string]any
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// loginUser signs up, verifies and logs in; it returns the id and token.
func (a *app) loginUser(prefix, email string) (string, string) {
	a.t.Helper()
	rec, _ := a.call(http.MethodPost, prefix+"/signup", "", map[string]any{"email": email, "name": "Ann", "age": 30})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, _ = a.call(http.MethodPost, prefix+"/verify-signup-otp", "", map[string]string{"email": email, "otp": a.mail.lastCode(a.t, email)})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = a.call(http.MethodPost, prefix+"/login", "", map[string]string{"email": email})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	rec, out := a.call(http.MethodPost, prefix+"/verify-login-otp", "", map[string]string{"email": email, "otp": a.mail.lastCode(a.t, email)})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	access := out["access"].(map[string]any)
	for k, v := range out {
		if k != "message" && k != "access" {
			return v.(string), access["token"].(string)
		}
	}
	a.t.Fatal("no id in login response")
	return "", ""
}

func (a *app) loginAdmin() string {
	a.t.Helper()
	rec, _ := a.call(http.MethodPost, "/v1/admin/auth/login", "", map[string]string{"email": adminEmail})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	rec, out := a.call(http.MethodPost, "/v1/admin/auth/verify", "", map[string]string{"email": adminEmail, "otp": a.mail.lastCode(a.t, adminEmail)})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(a.t, out["admin_id"])
	return out["access"].(map[string]any)["token"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)
	rec, _ := a.call(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec, _ = a.call(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "querydesk_http_requests_total")
}

func TestQueryLifecycleOverHTTP(t *testing.T) {
	a := newApp(t)
	userID, userTok := a.loginUser("/v1/auth", "ann@example.com")
	assert.Regexp(t, `^U[0-9A-Z]{26}$`, userID)

	rec, out := a.call(http.MethodPost, "/v1/queries", userTok, map[string]string{
		"category": "infra", "queryText": "server crash, need immediate fix", "priority": "LOW",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "HIGH", out["priority"])
	queryID := out["queryId"].(string)

	// the admin got the alert
	a.mail.mu.Lock()
	assert.Len(t, a.mail.mail[adminEmail], 1)
	a.mail.mu.Unlock()

	mine := a.list("/v1/queries/mine", userTok)
	require.Len(t, mine, 1)
	assert.Equal(t, false, mine[0]["isRead"])
	mine = a.list("/v1/queries/user/"+userID, userTok)
	assert.Equal(t, true, mine[0]["isRead"])

	adminTok := a.loginAdmin()
	rec, _ = a.call(http.MethodPost, "/v1/admin/reply", adminTok, map[string]string{"queryId": queryID, "reply": "fixed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resolved := a.list("/v1/admin/queries?status=RESOLVED", adminTok)
	require.Len(t, resolved, 1)
	assert.Equal(t, "fixed", resolved[0]["adminReply"])
	assert.Equal(t, false, resolved[0]["isRead"])
	assert.Empty(t, a.list("/v1/admin/queries?status=NEW", adminTok))

	a.mail.mu.Lock()
	last := a.mail.mail["ann@example.com"][len(a.mail.mail["ann@example.com"])-1]
	a.mail.mu.Unlock()
	assert.Contains(t, last, "Reply to Your Query (ID: "+queryID+")")
}

func TestAuthorization(t *testing.T) {
	a := newApp(t)
	userID, userTok := a.loginUser("/v1/auth", "ann@example.com")
	_, otherTok := a.loginUser("/v1/auth", "bob@example.com")
	_, mentorTok := a.loginUser("/v1/mentor/auth", "mentor@example.com")

	rec, _ := a.call(http.MethodGet, "/v1/admin/queries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = a.call(http.MethodGet, "/v1/admin/queries", userTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.call(http.MethodPost, "/v1/queries", mentorTok, map[string]string{"category": "c", "queryText": "q"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.call(http.MethodGet, "/v1/queries/user/"+userID, otherTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.call(http.MethodGet, "/v1/auth/user/"+userID, otherTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out := a.call(http.MethodGet, "/v1/auth/user/"+userID, userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann@example.com", out["email"])
	assert.Equal(t, "30", out["profile"].(map[string]any)["age"])
	assert.NotContains(t, rec.Body.String(), "otp")

	rec, out = a.call(http.MethodGet, "/v1/mentor/me", mentorTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MENTOR", out["role"])
}

func TestAuthErrorMapping(t *testing.T) {
	a := newApp(t)
	_, _ = a.loginUser("/v1/auth", "ann@example.com")

	cases := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"duplicate signup", "/v1/auth/signup", map[string]string{"email": "ann@example.com"}, http.StatusConflict, "duplicate_account"},
		{"bad email", "/v1/auth/signup", map[string]string{"email": "nope"}, http.StatusBadRequest, "validation"},
		{"unknown login", "/v1/auth/login", map[string]string{"email": "ghost@example.com"}, http.StatusNotFound, "not_found"},
		{"wrong otp", "/v1/auth/verify-login-otp", map[string]string{"email": "ann@example.com", "otp": "000000"}, http.StatusUnauthorized, "invalid_otp"},
		{"short otp", "/v1/auth/verify-login-otp", map[string]string{"email": "ann@example.com", "otp": "12"}, http.StatusBadRequest, "validation"},
		{"foreign admin", "/v1/admin/auth/login", map[string]string{"email": "x@example.com"}, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, out := a.call(http.MethodPost, tc.path, "", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, out["code"])
		})
	}

	rec, _ := a.call(http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "pending@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, out := a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "pending@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_active", out["code"])
}

func TestReplyErrors(t *testing.T) {
	a := newApp(t)
	adminTok := a.loginAdmin()

	rec, out := a.call(http.MethodPost, "/v1/admin/reply", adminTok, map[string]string{"queryId": "Q404", "reply": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "query_not_found", out["code"])

	rec, out = a.call(http.MethodPost, "/v1/admin/reply", adminTok, map[string]string{"queryId": "Q1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "reply is required", out["error"])
}
