package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-box/internal/handler"
	"github.com/iliyamo/recipe-box/internal/middleware"
	"github.com/iliyamo/recipe-box/internal/utils"
)

// RegisterRecipes registers the owner-scoped recipe endpoints.  All routes
// require a valid access token; the response cache sits after the token
// check so entries are always keyed by a verified owner.
func RegisterRecipes(e *echo.Echo, r *handler.RecipeHandler, tokens *utils.TokenService, cache *middleware.OwnerCache) {
	mws := []echo.MiddlewareFunc{middleware.JWTAuth(tokens)}
	if cache != nil {
		mws = append(mws, cache.Middleware())
	}
	g := e.Group("/recipes", mws...)

	g.POST("", r.Create)
	g.GET("", r.List)
	g.GET("/:id", r.Get)
	g.PUT("/:id", r.Update)
	g.PATCH("/:id", r.Update) // same merge semantics as PUT
	g.DELETE("/:id", r.Delete)
}
