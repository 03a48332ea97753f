package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-box/internal/middleware"
	"github.com/iliyamo/recipe-box/internal/model"
	"github.com/iliyamo/recipe-box/internal/service"
)

// RecipeHandler serves the owner-scoped recipe endpoints.  Every route sits
// behind JWTAuth, so the owner always comes from the verified token.
type RecipeHandler struct {
	Recipes *service.RecipeService
}

func NewRecipeHandler(recipes *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{Recipes: recipes}
}

func ownerID(c echo.Context) (string, bool) {
	id, ok := middleware.IdentityFrom(c)
	return id.UserID, ok
}

// Create handles POST /recipes.
func (h *RecipeHandler) Create(c echo.Context) error {
	owner, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var in model.RecipeInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Recipes.Create(ctx, owner, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// List handles GET /recipes.  The caller's recipes in insertion order; an
// empty array when there are none.
func (h *RecipeHandler) List(c echo.Context) error {
	owner, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Recipes.List(ctx, owner)
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []model.Recipe{}
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /recipes/:id.
func (h *RecipeHandler) Get(c echo.Context) error {
	owner, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Recipes.Get(ctx, owner, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Update handles PUT and PATCH /recipes/:id.  Both merge: fields left out
// of the body keep their stored values.
func (h *RecipeHandler) Update(c echo.Context) error {
	owner, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var patch model.RecipePatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Recipes.Update(ctx, owner, c.Param("id"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /recipes/:id.
func (h *RecipeHandler) Delete(c echo.Context) error {
	owner, ok := ownerID(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Recipes.Delete(ctx, owner, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "recipe deleted"})
}
