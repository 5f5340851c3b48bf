package crawler

// SiteRules declares where each extracted field lives in the site's markup.
// The crawler never assumes a selector matches; a missing optional field
// yields an absent value.
type SiteRules struct {
	// Category tree pages.
	CategoryLinks string
	CategoryCount string

	// Listing pages.
	RecipeLinks string

	// Detail pages.
	Title            string
	Image            string
	CuisineLink      string
	DishTypeLink     string
	PurposeLink      string
	IngredientList   string
	IngredientGroups string
	GroupName        string
	IngredientItems  string
	IngredientName   string
	IngredientAmount string
	InstructionSteps string
	NutritionRows    string
}

// DefaultSiteRules matches the recipe site's current layout.
func DefaultSiteRules() SiteRules {
	return SiteRules{
		CategoryLinks:    "ul.category-list li a[href*='/recipes/category/']",
		CategoryCount:    "span.count",
		RecipeLinks:      "article.item a[href*='/recipes/show/']",
		Title:            `h1[itemprop="name"]`,
		Image:            "img.recipe-image",
		CuisineLink:      `a[href*="/recipes/kitchen/"]`,
		DishTypeLink:     `a[href*="/recipes/dishes/"]`,
		PurposeLink:      `a[href*="/recipes/destiny/"]`,
		IngredientList:   "div.ingredients-list",
		IngredientGroups: "div.ingredient-group",
		GroupName:        "div.group-name",
		IngredientItems:  "li.ingredient",
		IngredientName:   "span.ingredient-name",
		IngredientAmount: "span.ingredient-amount",
		InstructionSteps: "div.recipe-steps div.step-text",
		NutritionRows:    "div.nutrition-facts table tr",
	}
}
