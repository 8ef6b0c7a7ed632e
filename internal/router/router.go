package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/query-system/internal/config"
	"github.com/iliyamo/query-system/internal/handler"
	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/middleware"
	"github.com/iliyamo/query-system/internal/model"
)

// Deps carries everything the route table needs.  Redis may be nil, which
// disables the admin listing cache.
type Deps struct {
	Users     *handler.AuthHandler
	Mentors   *handler.AuthHandler
	Admins    *handler.AuthHandler
	Queries   *handler.QueryHandler
	Admin     *handler.AdminHandler
	JWTSecret string
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       logging.Logger
}

// New builds the Echo instance with the shared middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics())

	RegisterRoutes(e)
	RegisterAuth(e, d)
	RegisterQueries(e, d)
	RegisterAdmin(e, d)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the OTP flows of the three roles.  Only the
// profile lookups need a token.
func RegisterAuth(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.JWTSecret)

	u := e.Group("/v1/auth")
	u.POST("/signup", d.Users.Signup)
	u.POST("/verify-signup-otp", d.Users.VerifySignup)
	u.POST("/login", d.Users.Login)
	u.POST("/verify-login-otp", d.Users.VerifyLogin)
	u.GET("/user/:id", d.Users.Get, jwt, middleware.RequireRole(model.RoleUser), middleware.RequireSelf("id"))

	m := e.Group("/v1/mentor/auth")
	m.POST("/signup", d.Mentors.Signup)
	m.POST("/verify-signup-otp", d.Mentors.VerifySignup)
	m.POST("/login", d.Mentors.Login)
	m.POST("/verify-login-otp", d.Mentors.VerifyLogin)
	e.GET("/v1/mentor/me", d.Mentors.Me, jwt, middleware.RequireRole(model.RoleMentor))

	a := e.Group("/v1/admin/auth")
	a.POST("/login", d.Admins.Login)
	a.POST("/verify", d.Admins.VerifyLogin)
}

// RegisterQueries registers the user query endpoints.  Each of them changes
// stored queries (new record or read flags), so each drops the admin cache.
func RegisterQueries(e *echo.Echo, d Deps) {
	g := e.Group("/v1/queries",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleUser),
		middleware.InvalidateCache(d.Cache, d.Redis))
	g.POST("", d.Queries.Submit)
	g.GET("/mine", d.Queries.Mine)
	g.GET("/user/:userId", d.Queries.Mine, middleware.RequireSelf("userId"))
}

// RegisterAdmin registers the administrator endpoints.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleAdmin))
	g.GET("/queries", d.Admin.List, middleware.NewRedisCache(d.Cache, d.Redis))
	g.POST("/reply", d.Admin.Reply, middleware.InvalidateCache(d.Cache, d.Redis))
}
