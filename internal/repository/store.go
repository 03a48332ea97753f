package repository

import (
	"context"

	"github.com/iliyamo/recipe-box/internal/model"
)

// maxCASAttempts bounds the read-mutate-swap loop of UpdateByIDAndOwner.
const maxCASAttempts = 5

// UserStore persists user identities.  Create must guarantee username
// uniqueness itself rather than relying on a prior lookup.
type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// MutateFunc edits a recipe in place during an update.  Returning an error
// aborts the update and the error is passed through unchanged.
type MutateFunc func(r *model.Recipe) error

// RecipeStore persists recipes.  Every read and write is scoped by owner.
type RecipeStore interface {
	Create(ctx context.Context, r model.Recipe) (model.Recipe, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Recipe, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Recipe, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, mutate MutateFunc) (model.Recipe, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}
