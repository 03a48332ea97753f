package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Recipe is a single recipe owned by one user.  Version is the
// compare-and-swap counter used by the stores and is not serialized to
// API clients.
type Recipe struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"ownerId"`
	Name            string      `json:"name"`
	Ingredients     Ingredients `json:"ingredients"`
	Instructions    string      `json:"instructions"`
	Category        string      `json:"category"`
	PreparationTime string      `json:"preparationTime"`
	CookingTime     string      `json:"cookingTime"`
	Servings        string      `json:"servings"`
	Picture         string      `json:"picture"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	Version         int64       `json:"-"`
}

// Ingredients is an ordered list of ingredient lines.  Clients may send it
// as a JSON array or as a single comma-separated string.
type Ingredients []string

func (in *Ingredients) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*in = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*in = cleanIngredients(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("ingredients must be a string or an array of strings")
	}
	*in = cleanIngredients(strings.Split(s, ","))
	return nil
}

// MarshalJSON always emits an array, never null.
func (in Ingredients) MarshalJSON() ([]byte, error) {
	if in == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(in))
}

func cleanIngredients(raw []string) Ingredients {
	out := make(Ingredients, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RecipeInput carries every field of a new recipe.
type RecipeInput struct {
	Name            string      `json:"name"`
	Ingredients     Ingredients `json:"ingredients"`
	Instructions    string      `json:"instructions"`
	Category        string      `json:"category"`
	PreparationTime string      `json:"preparationTime"`
	CookingTime     string      `json:"cookingTime"`
	Servings        string      `json:"servings"`
	Picture         string      `json:"picture"`
}

// RecipePatch carries a partial update.  A nil field is left unchanged.
type RecipePatch struct {
	Name            *string      `json:"name"`
	Ingredients     *Ingredients `json:"ingredients"`
	Instructions    *string      `json:"instructions"`
	Category        *string      `json:"category"`
	PreparationTime *string      `json:"preparationTime"`
	CookingTime     *string      `json:"cookingTime"`
	Servings        *string      `json:"servings"`
	Picture         *string      `json:"picture"`
}
