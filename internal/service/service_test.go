package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/model"
	"github.com/iliyamo/recipe-box/internal/queue"
	"github.com/iliyamo/recipe-box/internal/repository"
	"github.com/iliyamo/recipe-box/internal/utils"
)

const png = "data:image/png;base64,iVBORw0KGgo="

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RecipeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.RecipeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newServices(t *testing.T) (*AuthService, *RecipeService, *recordingPublisher) {
	t.Helper()
	fdb, err := repository.OpenFileDB(t.TempDir())
	require.NoError(t, err)
	hasher, err := utils.NewPasswordHasher(4)
	require.NoError(t, err)
	pub := &recordingPublisher{}
	return NewAuthService(fdb.Users(), hasher), NewRecipeService(fdb.Recipes(), pub), pub
}

func validInput(name string) model.RecipeInput {
	return model.RecipeInput{
		Name:            name,
		Ingredients:     model.Ingredients{"eggs", "milk"},
		Instructions:    "whisk and fry",
		Category:        "breakfast",
		PreparationTime: "5 min",
		CookingTime:     "5 min",
		Servings:        "2",
		Picture:         png,
	}
}

func strp(s string) *string { return &s }

func TestRegisterAndAuthenticate(t *testing.T) {
	auth, _, _ := newServices(t)
	ctx := context.Background()

	u, err := auth.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "pw1", u.PasswordHash)

	_, err = auth.Register(ctx, "a@x.com", "other")
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	got, err := auth.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = auth.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Authenticate(ctx, "nobody@x.com", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Authenticate(ctx, "A@X.COM", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	auth, _, _ := newServices(t)
	ctx := context.Background()

	cases := map[string]struct {
		username, password, field string
	}{
		"empty username":  {"", "pw", "username"},
		"blank username":  {"   ", "pw", "username"},
		"empty password":  {"bob", "", "password"},
		"password > 72 B": {"bob", string(make([]byte, 73)), "password"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.username, tc.password)
			var v *ValidationError
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Equal(t, tc.field, v.Field)
		})
	}
}

func TestCreateValidation(t *testing.T) {
	auth, recipes, pub := newServices(t)
	ctx := context.Background()
	u, err := auth.Register(ctx, "cook", "pw")
	require.NoError(t, err)

	mutate := map[string]func(*model.RecipeInput){
		"name":         func(in *model.RecipeInput) { in.Name = "  " },
		"ingredients":  func(in *model.RecipeInput) { in.Ingredients = nil },
		"instructions": func(in *model.RecipeInput) { in.Instructions = "" },
		"servings":     func(in *model.RecipeInput) { in.Servings = "" },
		"picture":      func(in *model.RecipeInput) { in.Picture = "" },
	}
	for field, fn := range mutate {
		t.Run(field, func(t *testing.T) {
			in := validInput("x")
			fn(&in)
			_, err := recipes.Create(ctx, u.ID, in)
			var v *ValidationError
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Equal(t, field, v.Field)
		})
	}

	list, err := recipes.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, pub.types())
}

func TestValidatePicture(t *testing.T) {
	ok := []string{
		png,
		"data:image/jpeg;base64,/9j/4AAQSkZJRg==",
	}
	for _, p := range ok {
		assert.NoError(t, validatePicture(p), p)
	}
	bad := []string{
		"http://example.com/cat.png",
		"data:image/png,plain",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,",
		"data:image/png;base64,!!!not-base64",
		"data:image/png;base64",
	}
	for _, p := range bad {
		err := validatePicture(p)
		var v *ValidationError
		require.True(t, errors.As(err, &v), p)
		assert.Equal(t, "picture", v.Field)
	}
}

func TestRecipeLifecycleEmitsEvents(t *testing.T) {
	auth, recipes, pub := newServices(t)
	ctx := context.Background()
	u, err := auth.Register(ctx, "cook", "pw")
	require.NoError(t, err)

	in := validInput("  Omelette ")
	r, err := recipes.Create(ctx, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", r.Name)
	assert.Equal(t, u.ID, r.OwnerID)

	got, err := recipes.Get(ctx, u.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	updated, err := recipes.Update(ctx, u.ID, r.ID, model.RecipePatch{Servings: strp("3"), Picture: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "3", updated.Servings)
	assert.Equal(t, png, updated.Picture, "empty picture keeps the old one")
	assert.Equal(t, "Omelette", updated.Name)

	require.NoError(t, recipes.Delete(ctx, u.ID, r.ID))
	_, err = recipes.Get(ctx, u.ID, r.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, []string{queue.EventRecipeCreated, queue.EventRecipeUpdated, queue.EventRecipeDeleted}, pub.types())
}

func TestUpdateRejectsEmptyRequiredField(t *testing.T) {
	auth, recipes, _ := newServices(t)
	ctx := context.Background()
	u, err := auth.Register(ctx, "cook", "pw")
	require.NoError(t, err)
	r, err := recipes.Create(ctx, u.ID, validInput("Pie"))
	require.NoError(t, err)

	_, err = recipes.Update(ctx, u.ID, r.ID, model.RecipePatch{Name: strp("")})
	assert.True(t, IsValidation(err))

	empty := model.Ingredients{}
	_, err = recipes.Update(ctx, u.ID, r.ID, model.RecipePatch{Ingredients: &empty})
	assert.True(t, IsValidation(err))

	_, err = recipes.Update(ctx, u.ID, r.ID, model.RecipePatch{Picture: strp("not-a-data-url")})
	assert.True(t, IsValidation(err))

	got, err := recipes.Get(ctx, u.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pie", got.Name)
}

func TestOtherOwnerSeesNotFound(t *testing.T) {
	auth, recipes, _ := newServices(t)
	ctx := context.Background()
	alice, err := auth.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := auth.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	r, err := recipes.Create(ctx, alice.ID, validInput("Secret"))
	require.NoError(t, err)

	_, err = recipes.Get(ctx, bob.ID, r.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = recipes.Update(ctx, bob.ID, r.ID, model.RecipePatch{Name: strp("mine")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, recipes.Delete(ctx, bob.ID, r.ID), repository.ErrNotFound)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	auth, recipes, pub := newServices(t)
	pub.err = errors.New("broker down")
	var logs bytes.Buffer
	ctx := logutil.WithLogger(context.Background(), logutil.New(&logs, "info", "json"))
	u, err := auth.Register(ctx, "cook", "pw")
	require.NoError(t, err)

	r, err := recipes.Create(ctx, u.ID, validInput("Toast"))
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), "failed to publish recipe event")
	assert.Contains(t, logs.String(), "broker down")
	assert.Contains(t, logs.String(), r.ID)
}
