package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/recipe-box/internal/model"
)

// FileDB keeps users and recipes in two JSON documents inside a directory.
// It is meant for local development and tests: every operation re-reads
// and rewrites a whole file, so a single mutex serializes all access and
// writes go through a temp file plus rename.  It is not safe to share the
// directory between processes.
type FileDB struct {
	mu          sync.Mutex
	usersPath   string
	recipesPath string
}

type usersDoc struct {
	Users []model.User `json:"users"`
}

type recipesDoc struct {
	Recipes []model.Recipe `json:"recipes"`
}

// OpenFileDB prepares dir for use, creating it if needed.
func OpenFileDB(dir string) (*FileDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create data dir %v, cause %w", dir, err)
	}
	return &FileDB{
		usersPath:   filepath.Join(dir, "users.json"),
		recipesPath: filepath.Join(dir, "recipes.json"),
	}, nil
}

// Users returns the UserStore view of the database.
func (f *FileDB) Users() *FileUserStore { return &FileUserStore{db: f} }

// Recipes returns the RecipeStore view of the database.
func (f *FileDB) Recipes() *FileRecipeStore { return &FileRecipeStore{db: f} }

func (f *FileDB) readUsers() (usersDoc, error) {
	var doc usersDoc
	return doc, readJSON(f.usersPath, &doc)
}

func (f *FileDB) readRecipes() (recipesDoc, error) {
	var doc recipesDoc
	return doc, readJSON(f.recipesPath, &doc)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %v: %w", path, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %v: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %v: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %v: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %v: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %v: %w", path, err)
	}
	return nil
}

// FileUserStore implements UserStore on a FileDB.
type FileUserStore struct{ db *FileDB }

// Create checks and inserts under the same lock, so duplicates cannot race.
func (s *FileUserStore) Create(ctx context.Context, u model.User) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	doc, err := s.db.readUsers()
	if err != nil {
		return model.User{}, err
	}
	for _, existing := range doc.Users {
		if existing.Username == u.Username {
			return model.User{}, ErrUsernameTaken
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	doc.Users = append(doc.Users, u)
	if err := writeJSON(s.db.usersPath, doc); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *FileUserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.Username == username })
}

func (s *FileUserStore) GetByID(ctx context.Context, id string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s *FileUserStore) find(match func(model.User) bool) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	doc, err := s.db.readUsers()
	if err != nil {
		return model.User{}, err
	}
	for _, u := range doc.Users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// FileRecipeStore implements RecipeStore on a FileDB.  The global lock
// makes every update atomic, so the mutate callback runs exactly once.
type FileRecipeStore struct{ db *FileDB }

func (s *FileRecipeStore) Create(ctx context.Context, rec model.Recipe) (model.Recipe, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	users, err := s.db.readUsers()
	if err != nil {
		return model.Recipe{}, err
	}
	known := false
	for _, u := range users.Users {
		if u.ID == rec.OwnerID {
			known = true
			break
		}
	}
	if !known {
		return model.Recipe{}, ErrUnknownOwner
	}

	doc, err := s.db.readRecipes()
	if err != nil {
		return model.Recipe{}, err
	}
	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.Version = 1
	if rec.Ingredients == nil {
		rec.Ingredients = model.Ingredients{}
	}
	doc.Recipes = append(doc.Recipes, rec)
	if err := writeJSON(s.db.recipesPath, doc); err != nil {
		return model.Recipe{}, err
	}
	return rec, nil
}

func (s *FileRecipeStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Recipe, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	doc, err := s.db.readRecipes()
	if err != nil {
		return nil, err
	}
	out := []model.Recipe{}
	for _, r := range doc.Recipes {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *FileRecipeStore) GetByIDAndOwner(ctx context.Context, id, ownerID string) (model.Recipe, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	doc, err := s.db.readRecipes()
	if err != nil {
		return model.Recipe{}, err
	}
	if i := indexOf(doc.Recipes, id, ownerID); i >= 0 {
		return doc.Recipes[i], nil
	}
	return model.Recipe{}, ErrNotFound
}

func (s *FileRecipeStore) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, mutate MutateFunc) (model.Recipe, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	doc, err := s.db.readRecipes()
	if err != nil {
		return model.Recipe{}, err
	}
	i := indexOf(doc.Recipes, id, ownerID)
	if i < 0 {
		return model.Recipe{}, ErrNotFound
	}
	cur := doc.Recipes[i]
	next := cur
	next.Ingredients = append(model.Ingredients{}, cur.Ingredients...)
	if err := mutate(&next); err != nil {
		return model.Recipe{}, err
	}
	next.ID, next.OwnerID, next.CreatedAt = cur.ID, cur.OwnerID, cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.Version = cur.Version + 1
	doc.Recipes[i] = next
	if err := writeJSON(s.db.recipesPath, doc); err != nil {
		return model.Recipe{}, err
	}
	return next, nil
}

func (s *FileRecipeStore) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	doc, err := s.db.readRecipes()
	if err != nil {
		return err
	}
	i := indexOf(doc.Recipes, id, ownerID)
	if i < 0 {
		return ErrNotFound
	}
	doc.Recipes = append(doc.Recipes[:i], doc.Recipes[i+1:]...)
	return writeJSON(s.db.recipesPath, doc)
}

func indexOf(recipes []model.Recipe, id, ownerID string) int {
	for i, r := range recipes {
		if r.ID == id && r.OwnerID == ownerID {
			return i
		}
	}
	return -1
}
