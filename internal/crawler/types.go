// Package crawler defines core types shared across subsystems.
package crawler

import (
	"time"
)

// TaxonomyAxis names a classification table with get-or-create semantics.
type TaxonomyAxis string

// Taxonomy axes persisted as separate lookup tables.
const (
	AxisCuisine  TaxonomyAxis = "cuisines"
	AxisDishType TaxonomyAxis = "dish_types"
	AxisPurpose  TaxonomyAxis = "purposes"
)

// Outcome is the result of saving one extracted recipe.
type Outcome string

// Upsert outcomes. Only inserted and updated perform writes.
const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Category is one node of the site's category tree.
type Category struct {
	ID          int64
	Name        string
	URL         string
	ParentID    *int64
	RecipeCount int
	Path        string
}

// Ingredient is a single line of a recipe's ingredient list.
type Ingredient struct {
	Name       string
	Quantity   *float64
	Unit       string
	GroupLabel string
	IsGrouped  bool
}

// Nutrition holds the per-serving nutrition facts advertised on a detail page.
// Values are kept as the site renders them; units vary across recipes.
type Nutrition struct {
	Calories      string
	Proteins      string
	Fats          string
	Carbohydrates string
}

// Recipe is the normalized record extracted from one detail page.
type Recipe struct {
	Title        string
	URL          string
	ImageURL     string
	CategoryID   int64
	Cuisine      string
	DishType     string
	Purpose      string
	Nutrition    Nutrition
	Ingredients  []Ingredient
	Instructions string
}

// RecipeRef identifies a stored recipe row for the upsert decision.
type RecipeRef struct {
	ID          int64
	ContentHash string
}

// Page is the raw result of fetching one URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// RunSummary aggregates the counters of one crawl run.
type RunSummary struct {
	RunID      string
	Started    time.Time
	Finished   time.Time
	Fetched    int64
	Inserted   int
	Updated    int
	Unchanged  int
	FailedURLs []string
}

// Failed reports the number of URLs that could not be processed this run.
func (s RunSummary) Failed() int {
	return len(s.FailedURLs)
}
