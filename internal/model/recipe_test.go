package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientsAcceptsArrayAndString(t *testing.T) {
	for name, tc := range map[string]struct {
		in   string
		want Ingredients
	}{
		"array":        {`["flour", " sugar ", ""]`, Ingredients{"flour", "sugar"}},
		"comma string": {`"flour, sugar,,eggs "`, Ingredients{"flour", "sugar", "eggs"}},
		"empty string": {`""`, Ingredients{}},
	} {
		t.Run(name, func(t *testing.T) {
			var got Ingredients
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIngredientsRejectsOtherTypes(t *testing.T) {
	var got Ingredients
	assert.Error(t, json.Unmarshal([]byte(`42`), &got))
}

func TestRecipeJSONHidesVersionAndNeverNullIngredients(t *testing.T) {
	b, err := json.Marshal(Recipe{ID: "r1", Version: 7})
	require.NoError(t, err)
	s := string(b)
	assert.NotContains(t, s, "ersion")
	assert.Contains(t, s, `"ingredients":[]`)
}

func TestPatchDistinguishesAbsentFromEmpty(t *testing.T) {
	var p RecipePatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Soup","picture":""}`), &p))
	require.NotNil(t, p.Name)
	assert.Equal(t, "Soup", *p.Name)
	require.NotNil(t, p.Picture)
	assert.Nil(t, p.Category)
}

func TestUserSummaryDropsHash(t *testing.T) {
	s := User{ID: "u", Username: "a", PasswordHash: "h"}.Summary()
	b, _ := json.Marshal(s)
	assert.NotContains(t, string(b), "passwordHash")
	assert.Equal(t, "a", s.Username)
}
