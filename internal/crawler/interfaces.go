package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves a page over the network. Implementations own politeness
// delays and retry behavior; callers treat a returned error as final for the
// current run.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// CatalogStore is the persistence boundary. All mutating calls must be issued
// by a single logical writer; concurrent readers of committed data are fine.
type CatalogStore interface {
	// InsertCategoryIfAbsent inserts the category unless its URL already
	// exists and returns the row id either way.
	InsertCategoryIfAbsent(ctx context.Context, cat Category) (int64, error)

	// GetOrCreateTaxonomyTerm atomically looks up or creates a term on the
	// given axis and returns its id.
	GetOrCreateTaxonomyTerm(ctx context.Context, axis TaxonomyAxis, name string) (int64, error)

	// FindRecipeByURL returns the stored id and content hash for a URL.
	FindRecipeByURL(ctx context.Context, url string) (RecipeRef, bool, error)

	// UpsertRecipe inserts or updates the recipe row and replaces its
	// ingredient set in the same transaction. The outcome decides which.
	UpsertRecipe(ctx context.Context, rec Recipe, contentHash string, outcome Outcome) (int64, error)

	// ListCategories returns all known categories in path order.
	ListCategories(ctx context.Context) ([]Category, error)

	// HasCategories reports whether any category rows exist.
	HasCategories(ctx context.Context) (bool, error)
}

// Hasher computes digests for change detection.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// PageArchive stores raw page bodies for offline inspection.
type PageArchive interface {
	Put(ctx context.Context, url string, body []byte) (string, error)
}
