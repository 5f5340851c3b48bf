package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/crawler/internal/hash/sha256"
)

func sampleRecipe() Recipe {
	qty := 2.5
	return Recipe{
		Title:    "Borscht",
		URL:      "https://example.test/recipes/show/10/",
		Cuisine:  "Russian",
		DishType: "Soup",
		Purpose:  "Lunch",
		Nutrition: Nutrition{
			Calories: "120",
			Proteins: "5",
		},
		Ingredients: []Ingredient{
			{Name: "Beets", Quantity: &qty, Unit: "pcs"},
			{Name: "Water", Unit: "to taste", GroupLabel: "for the broth", IsGrouped: true},
		},
		Instructions: "Boil.\nServe.",
	}
}

func TestContentHashStable(t *testing.T) {
	h := sha256.New()

	first, err := ContentHash(h, sampleRecipe())
	require.NoError(t, err)
	second, err := ContentHash(h, sampleRecipe())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestContentHashSensitiveToFields(t *testing.T) {
	h := sha256.New()
	base, err := ContentHash(h, sampleRecipe())
	require.NoError(t, err)

	mutations := map[string]func(*Recipe){
		"title":            func(r *Recipe) { r.Title = "Borsch" },
		"cuisine":          func(r *Recipe) { r.Cuisine = "Ukrainian" },
		"instructions":     func(r *Recipe) { r.Instructions = "Boil longer." },
		"calories":         func(r *Recipe) { r.Nutrition.Calories = "121" },
		"ingredient name":  func(r *Recipe) { r.Ingredients[0].Name = "Beetroot" },
		"ingredient qty":   func(r *Recipe) { *r.Ingredients[0].Quantity = 3 },
		"ingredient group": func(r *Recipe) { r.Ingredients[1].GroupLabel = "broth" },
		"drop ingredient":  func(r *Recipe) { r.Ingredients = r.Ingredients[:1] },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecipe()
			mutate(&rec)
			got, err := ContentHash(h, rec)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestContentHashIgnoresIncidentalFields(t *testing.T) {
	h := sha256.New()
	base, err := ContentHash(h, sampleRecipe())
	require.NoError(t, err)

	rec := sampleRecipe()
	rec.ImageURL = "https://cdn.example.test/other.jpg"
	rec.CategoryID = 42
	got, err := ContentHash(h, rec)
	require.NoError(t, err)

	assert.Equal(t, base, got)
}
