package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/recipe-box/internal/database"
	"github.com/iliyamo/recipe-box/internal/model"
)

const recipeColumns = `id, owner_id, name, ingredients, instructions, category,
	preparation_time, cooking_time, servings, picture, version, created_at, updated_at`

// RecipeRepo is the SQL RecipeStore.  Updates are a compare-and-swap on
// the version column so concurrent writers never silently overwrite each
// other.
type RecipeRepo struct {
	db *sql.DB
}

func NewRecipeRepo(db *sql.DB) *RecipeRepo {
	return &RecipeRepo{db: db}
}

// Create inserts a new recipe with a fresh id.  A missing owner row is
// reported as ErrUnknownOwner.
func (r *RecipeRepo) Create(ctx context.Context, rec model.Recipe) (model.Recipe, error) {
	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.Version = 1
	if rec.Ingredients == nil {
		rec.Ingredients = model.Ingredients{}
	}
	ingredients, err := json.Marshal([]string(rec.Ingredients))
	if err != nil {
		return model.Recipe{}, err
	}
	const q = `INSERT INTO recipes (id, owner_id, name, ingredients, instructions, category,
		preparation_time, cooking_time, servings, picture, version, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err = r.db.ExecContext(ctx, q, rec.ID, rec.OwnerID, rec.Name, string(ingredients), rec.Instructions,
		rec.Category, rec.PreparationTime, rec.CookingTime, rec.Servings, rec.Picture, rec.Version,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.Recipe{}, ErrUnknownOwner
		}
		return model.Recipe{}, fmt.Errorf("insert recipe: %w", err)
	}
	return rec, nil
}

// ListByOwner returns all recipes of ownerID in insertion order.  The
// result is never nil.
func (r *RecipeRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Recipe, error) {
	q := `SELECT ` + recipeColumns + ` FROM recipes WHERE owner_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	out := []model.Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return out, nil
}

// GetByIDAndOwner fetches a recipe by id but only if it belongs to the
// specified owner; otherwise ErrNotFound.
func (r *RecipeRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Recipe, error) {
	q := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = ? AND owner_id = ?`
	rec, err := scanRecipe(r.db.QueryRowContext(ctx, q, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recipe{}, ErrNotFound
	}
	return rec, err
}

// UpdateByIDAndOwner reads the recipe, applies mutate and writes it back
// only if nobody else changed it in between.  Losing the race re-reads and
// retries up to maxCASAttempts times before giving up with ErrConflict.
func (r *RecipeRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, mutate MutateFunc) (model.Recipe, error) {
	const q = `UPDATE recipes
	           SET name = ?, ingredients = ?, instructions = ?, category = ?, preparation_time = ?,
	               cooking_time = ?, servings = ?, picture = ?, version = version + 1, updated_at = ?
	           WHERE id = ? AND owner_id = ? AND version = ?`
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		cur, err := r.GetByIDAndOwner(ctx, id, ownerID)
		if err != nil {
			return model.Recipe{}, err
		}
		next := cur
		next.Ingredients = append(model.Ingredients{}, cur.Ingredients...)
		if err := mutate(&next); err != nil {
			return model.Recipe{}, err
		}
		// identity and bookkeeping fields are not the mutator's to change
		next.ID, next.OwnerID, next.CreatedAt = cur.ID, cur.OwnerID, cur.CreatedAt
		next.UpdatedAt = time.Now().UTC()
		next.Version = cur.Version + 1

		ingredients, err := json.Marshal([]string(next.Ingredients))
		if err != nil {
			return model.Recipe{}, err
		}
		res, err := r.db.ExecContext(ctx, q, next.Name, string(ingredients), next.Instructions, next.Category,
			next.PreparationTime, next.CookingTime, next.Servings, next.Picture, next.UpdatedAt,
			id, ownerID, cur.Version)
		if err != nil {
			return model.Recipe{}, fmt.Errorf("update recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return next, nil
		}
	}
	return model.Recipe{}, ErrConflict
}

// DeleteByIDAndOwner removes the recipe if ownerID owns it.
func (r *RecipeRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s rowScanner) (model.Recipe, error) {
	var (
		rec         model.Recipe
		ingredients string
	)
	err := s.Scan(&rec.ID, &rec.OwnerID, &rec.Name, &ingredients, &rec.Instructions, &rec.Category,
		&rec.PreparationTime, &rec.CookingTime, &rec.Servings, &rec.Picture, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Recipe{}, err
		}
		return model.Recipe{}, fmt.Errorf("scan recipe: %w", err)
	}
	var list []string
	if err := json.Unmarshal([]byte(ingredients), &list); err != nil {
		return model.Recipe{}, fmt.Errorf("decode ingredients of %s: %w", rec.ID, err)
	}
	rec.Ingredients = model.Ingredients(list)
	if rec.Ingredients == nil {
		rec.Ingredients = model.Ingredients{}
	}
	rec.CreatedAt, rec.UpdatedAt = rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()
	return rec, nil
}
