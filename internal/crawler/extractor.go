package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrTitleMissing marks a detail page whose required title could not be
// extracted. The whole page is skipped; no partial record is written.
var ErrTitleMissing = errors.New("recipe title missing")

// RecipeExtractor turns a fetched detail page into a normalized Recipe.
type RecipeExtractor struct {
	rules SiteRules
}

// NewRecipeExtractor builds an extractor for the given site rules.
func NewRecipeExtractor(rules SiteRules) *RecipeExtractor {
	return &RecipeExtractor{rules: rules}
}

// Extract parses the detail page into a Recipe owned by categoryID. Optional
// fields (image, taxonomy axes, nutrition) yield absent values when their
// selectors do not match; a missing title is a hard failure.
func (e *RecipeExtractor) Extract(page Page, categoryID int64) (Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Recipe{}, fmt.Errorf("parse detail page: %w", err)
	}

	title := strings.TrimSpace(doc.Find(e.rules.Title).First().Text())
	if title == "" {
		return Recipe{}, fmt.Errorf("%w: %s", ErrTitleMissing, page.URL)
	}

	rec := Recipe{
		Title:        title,
		URL:          page.URL,
		CategoryID:   categoryID,
		Cuisine:      firstText(doc, e.rules.CuisineLink),
		DishType:     firstText(doc, e.rules.DishTypeLink),
		Purpose:      firstText(doc, e.rules.PurposeLink),
		Nutrition:    e.extractNutrition(doc),
		Ingredients:  e.extractIngredients(doc),
		Instructions: e.extractInstructions(doc),
	}

	if src, ok := doc.Find(e.rules.Image).First().Attr("src"); ok {
		rec.ImageURL = ResolveRef(page.FinalURL, strings.TrimSpace(src))
	}

	return rec, nil
}

func (e *RecipeExtractor) extractIngredients(doc *goquery.Document) []Ingredient {
	var out []Ingredient
	list := doc.Find(e.rules.IngredientList)
	list.Find(e.rules.IngredientItems).Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find(e.rules.IngredientName).First().Text())
		if name == "" {
			return
		}
		ing := Ingredient{Name: name}

		amount := strings.TrimSpace(item.Find(e.rules.IngredientAmount).First().Text())
		if value, ok, unit := ParseQuantity(amount); ok {
			ing.Quantity = &value
			ing.Unit = unit
		} else {
			ing.Unit = unit
		}

		group := item.ParentsFiltered(e.rules.IngredientGroups).First()
		if group.Length() > 0 {
			ing.GroupLabel = strings.TrimSpace(group.Find(e.rules.GroupName).First().Text())
			ing.IsGrouped = true
		}

		out = append(out, ing)
	})
	return out
}

func (e *RecipeExtractor) extractInstructions(doc *goquery.Document) string {
	var steps []string
	doc.Find(e.rules.InstructionSteps).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			steps = append(steps, text)
		}
	})
	return strings.Join(steps, "\n")
}

func (e *RecipeExtractor) extractNutrition(doc *goquery.Document) Nutrition {
	var n Nutrition
	doc.Find(e.rules.NutritionRows).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		key := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		value := strings.TrimSpace(cells.Eq(1).Text())
		switch {
		case strings.Contains(key, "калорийность"), strings.Contains(key, "calories"):
			n.Calories = value
		case strings.Contains(key, "белки"), strings.Contains(key, "protein"):
			n.Proteins = value
		case strings.Contains(key, "жиры"), strings.Contains(key, "fat"):
			n.Fats = value
		case strings.Contains(key, "углеводы"), strings.Contains(key, "carbohydrate"):
			n.Carbohydrates = value
		}
	})
	return n
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
