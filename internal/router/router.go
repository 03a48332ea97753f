package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/recipe-box/internal/config"
	"github.com/iliyamo/recipe-box/internal/handler"
	"github.com/iliyamo/recipe-box/internal/middleware"
	"github.com/iliyamo/recipe-box/internal/utils"
)

// Deps is everything the route table needs.  RateLimit and Cache may be
// nil, in which case the routes run without them.
type Deps struct {
	Cfg       config.Config
	Logger    zerolog.Logger
	Tokens    *utils.TokenService
	Auth      *handler.AuthHandler
	Recipes   *handler.RecipeHandler
	Health    echo.HandlerFunc
	Metrics   *middleware.Metrics
	RateLimit echo.MiddlewareFunc
	Cache     *middleware.OwnerCache
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if d.Cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.Cfg.BodyLimit))
	}

	RegisterRoutes(e, d.Health, d.Metrics)
	RegisterAuth(e, d.Auth, d.Tokens, d.RateLimit)
	RegisterRecipes(e, d.Recipes, d.Tokens, d.Cache)
	return e
}

// RegisterRoutes registers the operational endpoints: health check and,
// when metrics are enabled, the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics *middleware.Metrics) {
	if health == nil {
		health = handler.Health(nil)
	}
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", metrics.Handler())
	}
}

// RegisterAuth registers the credential endpoints.  /users is kept as an
// alias of /register for older clients.  The rate limiter, when given,
// guards only these routes.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *utils.TokenService, limiter echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if limiter != nil {
		mws = append(mws, limiter)
	}
	e.POST("/register", a.Register, mws...)
	e.POST("/users", a.Register, mws...)
	e.POST("/login", a.Login, mws...)

	e.GET("/me", a.Me, middleware.JWTAuth(tokens))
}
