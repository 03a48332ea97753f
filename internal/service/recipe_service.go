package service

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/model"
	"github.com/iliyamo/recipe-box/internal/queue"
	"github.com/iliyamo/recipe-box/internal/repository"
)

// RecipeService validates recipe input and scopes every operation to the
// calling owner.  Successful writes are announced through the publisher.
type RecipeService struct {
	store  repository.RecipeStore
	events queue.Publisher
}

func NewRecipeService(store repository.RecipeStore, events queue.Publisher) *RecipeService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &RecipeService{store: store, events: events}
}

func (s *RecipeService) Create(ctx context.Context, ownerID string, in model.RecipeInput) (model.Recipe, error) {
	rec := model.Recipe{
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(in.Name),
		Ingredients:     in.Ingredients,
		Instructions:    strings.TrimSpace(in.Instructions),
		Category:        strings.TrimSpace(in.Category),
		PreparationTime: strings.TrimSpace(in.PreparationTime),
		CookingTime:     strings.TrimSpace(in.CookingTime),
		Servings:        strings.TrimSpace(in.Servings),
		Picture:         strings.TrimSpace(in.Picture),
	}
	if err := validateRecipe(rec); err != nil {
		return model.Recipe{}, err
	}
	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return model.Recipe{}, err
	}
	s.publish(ctx, queue.EventRecipeCreated, created)
	return created, nil
}

func (s *RecipeService) List(ctx context.Context, ownerID string) ([]model.Recipe, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

func (s *RecipeService) Get(ctx context.Context, ownerID, id string) (model.Recipe, error) {
	return s.store.GetByIDAndOwner(ctx, id, ownerID)
}

// Update merges patch into the stored recipe.  Absent fields are kept; an
// empty or absent picture keeps the current one.  Other fields sent empty
// are rejected.
func (s *RecipeService) Update(ctx context.Context, ownerID, id string, patch model.RecipePatch) (model.Recipe, error) {
	if err := validatePatch(patch); err != nil {
		return model.Recipe{}, err
	}
	updated, err := s.store.UpdateByIDAndOwner(ctx, id, ownerID, func(r *model.Recipe) error {
		applyPatch(r, patch)
		return nil
	})
	if err != nil {
		return model.Recipe{}, err
	}
	s.publish(ctx, queue.EventRecipeUpdated, updated)
	return updated, nil
}

func (s *RecipeService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteByIDAndOwner(ctx, id, ownerID); err != nil {
		return err
	}
	s.publish(ctx, queue.EventRecipeDeleted, model.Recipe{ID: id, OwnerID: ownerID})
	return nil
}

// publish never fails the request; a broker outage only costs audit lines.
func (s *RecipeService) publish(ctx context.Context, typ string, r model.Recipe) {
	ev := queue.RecipeEvent{
		Type:       typ,
		RecipeID:   r.ID,
		OwnerID:    r.OwnerID,
		Name:       r.Name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).
			Str("event", typ).Str("recipe_id", r.ID).
			Msg("failed to publish recipe event")
	}
}

func validateRecipe(r model.Recipe) error {
	for _, f := range []struct{ name, value string }{
		{"name", r.Name},
		{"instructions", r.Instructions},
		{"category", r.Category},
		{"preparationTime", r.PreparationTime},
		{"cookingTime", r.CookingTime},
		{"servings", r.Servings},
	} {
		if f.value == "" {
			return missing(f.name)
		}
	}
	if len(r.Ingredients) == 0 {
		return missing("ingredients")
	}
	if r.Picture == "" {
		return missing("picture")
	}
	return validatePicture(r.Picture)
}

func validatePatch(p model.RecipePatch) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", p.Name},
		{"instructions", p.Instructions},
		{"category", p.Category},
		{"preparationTime", p.PreparationTime},
		{"cookingTime", p.CookingTime},
		{"servings", p.Servings},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return missing(f.name)
		}
	}
	if p.Ingredients != nil && len(*p.Ingredients) == 0 {
		return missing("ingredients")
	}
	if p.Picture != nil {
		if pic := strings.TrimSpace(*p.Picture); pic != "" {
			return validatePicture(pic)
		}
	}
	return nil
}

func applyPatch(r *model.Recipe, p model.RecipePatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&r.Name, p.Name)
	set(&r.Instructions, p.Instructions)
	set(&r.Category, p.Category)
	set(&r.PreparationTime, p.PreparationTime)
	set(&r.CookingTime, p.CookingTime)
	set(&r.Servings, p.Servings)
	if p.Ingredients != nil {
		r.Ingredients = append(model.Ingredients{}, (*p.Ingredients)...)
	}
	if p.Picture != nil {
		if pic := strings.TrimSpace(*p.Picture); pic != "" {
			r.Picture = pic
		}
	}
}

// validatePicture accepts base64 image data URLs such as
// "data:image/png;base64,iVBORw0KGgo=".
func validatePicture(pic string) error {
	bad := func(reason string) error { return &ValidationError{Field: "picture", Reason: reason} }

	rest, ok := strings.CutPrefix(pic, "data:")
	if !ok {
		return bad("must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return bad("must be a data URL")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return bad("must be base64 encoded")
	}
	if !strings.HasPrefix(strings.ToLower(mediaType), "image/") {
		return bad("must be an image")
	}
	if payload == "" {
		return bad("is empty")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return bad("is not valid base64")
	}
	return nil
}
