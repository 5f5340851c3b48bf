// Package postgres provides the Postgres-backed catalog store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"recipebook/crawler/internal/crawler"
)

// CatalogStoreConfig controls the Postgres connection pool.
type CatalogStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// CatalogStore implements crawler.CatalogStore on Postgres. Mutating calls
// must come from a single logical writer; the store itself does not serialize.
type CatalogStore struct {
	pool pgxPool
}

// NewCatalogStore connects a pool from config.
func NewCatalogStore(ctx context.Context, cfg CatalogStoreConfig) (*CatalogStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &CatalogStore{pool: pool}, nil
}

// NewCatalogStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewCatalogStoreWithPool(pool pgxPool) (*CatalogStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &CatalogStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *CatalogStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the catalog tables when they do not exist.
func (s *CatalogStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertCategoryIfAbsent inserts the category unless its URL exists and
// returns the row id either way. The conflict clause is a no-op update so a
// single round trip always yields the id.
func (s *CatalogStore) InsertCategoryIfAbsent(ctx context.Context, cat crawler.Category) (int64, error) {
	const query = `
INSERT INTO categories (name, url, parent_id, recipe_count, path)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query, cat.Name, cat.URL, cat.ParentID, cat.RecipeCount, cat.Path).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert category %s: %w", cat.URL, err)
	}
	return id, nil
}

// GetOrCreateTaxonomyTerm atomically looks up or creates a term and returns
// its id. One statement, so there is no read-then-insert race to lose.
func (s *CatalogStore) GetOrCreateTaxonomyTerm(ctx context.Context, axis crawler.TaxonomyAxis, name string) (int64, error) {
	table, err := axisTable(axis)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, table)

	var id int64
	if err := s.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("get or create %s term %q: %w", axis, name, err)
	}
	return id, nil
}

// FindRecipeByURL returns the stored id and content hash for a URL.
func (s *CatalogStore) FindRecipeByURL(ctx context.Context, url string) (crawler.RecipeRef, bool, error) {
	const query = `SELECT id, content_hash FROM recipes WHERE url = $1`

	var ref crawler.RecipeRef
	err := s.pool.QueryRow(ctx, query, url).Scan(&ref.ID, &ref.ContentHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawler.RecipeRef{}, false, nil
	}
	if err != nil {
		return crawler.RecipeRef{}, false, fmt.Errorf("find recipe %s: %w", url, err)
	}
	return ref, true, nil
}

// UpsertRecipe inserts or updates the recipe row and replaces its ingredient
// set, all in one transaction. Taxonomy terms are resolved inside the same
// transaction so a rollback leaves no dangling ids behind.
func (s *CatalogStore) UpsertRecipe(ctx context.Context, rec crawler.Recipe, contentHash string, outcome crawler.Outcome) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cuisineID, err := resolveTerm(ctx, tx, crawler.AxisCuisine, rec.Cuisine)
	if err != nil {
		return 0, err
	}
	dishTypeID, err := resolveTerm(ctx, tx, crawler.AxisDishType, rec.DishType)
	if err != nil {
		return 0, err
	}
	purposeID, err := resolveTerm(ctx, tx, crawler.AxisPurpose, rec.Purpose)
	if err != nil {
		return 0, err
	}

	var recipeID int64
	switch outcome {
	case crawler.OutcomeInserted:
		const insert = `
INSERT INTO recipes (
	title, url, image_url, category_id, cuisine_id, dish_type_id, purpose_id,
	calories, proteins, fats, carbohydrates, content_hash, instructions, last_seen_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
RETURNING id`
		err = tx.QueryRow(ctx, insert,
			rec.Title, rec.URL, rec.ImageURL, nullableID(rec.CategoryID),
			cuisineID, dishTypeID, purposeID,
			rec.Nutrition.Calories, rec.Nutrition.Proteins,
			rec.Nutrition.Fats, rec.Nutrition.Carbohydrates,
			contentHash, rec.Instructions,
		).Scan(&recipeID)
		if err != nil {
			return 0, fmt.Errorf("insert recipe %s: %w", rec.URL, err)
		}
	case crawler.OutcomeUpdated:
		const update = `
UPDATE recipes SET
	title = $1, image_url = $2, category_id = $3, cuisine_id = $4,
	dish_type_id = $5, purpose_id = $6, calories = $7, proteins = $8,
	fats = $9, carbohydrates = $10, content_hash = $11, instructions = $12,
	last_seen_at = NOW()
WHERE url = $13
RETURNING id`
		err = tx.QueryRow(ctx, update,
			rec.Title, rec.ImageURL, nullableID(rec.CategoryID),
			cuisineID, dishTypeID, purposeID,
			rec.Nutrition.Calories, rec.Nutrition.Proteins,
			rec.Nutrition.Fats, rec.Nutrition.Carbohydrates,
			contentHash, rec.Instructions, rec.URL,
		).Scan(&recipeID)
		if err != nil {
			return 0, fmt.Errorf("update recipe %s: %w", rec.URL, err)
		}
		// The full ingredient set is replaced, never patched, so a
		// shrunken remote list cannot leave orphaned rows.
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
			return 0, fmt.Errorf("clear ingredients for %s: %w", rec.URL, err)
		}
	default:
		return 0, fmt.Errorf("upsert called with outcome %q", outcome)
	}

	const insertIngredient = `
INSERT INTO recipe_ingredients (recipe_id, name, quantity, unit, group_label, is_grouped)
VALUES ($1, $2, $3, $4, $5, $6)`
	for _, ing := range rec.Ingredients {
		if _, err := tx.Exec(ctx, insertIngredient,
			recipeID, ing.Name, ing.Quantity, ing.Unit,
			nullableText(ing.GroupLabel), ing.IsGrouped,
		); err != nil {
			return 0, fmt.Errorf("insert ingredient %q for %s: %w", ing.Name, rec.URL, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert for %s: %w", rec.URL, err)
	}
	return recipeID, nil
}

// ListCategories returns all categories ordered by path.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]crawler.Category, error) {
	const query = `
SELECT id, name, url, parent_id, recipe_count, path
FROM categories
ORDER BY path`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []crawler.Category
	for rows.Next() {
		var cat crawler.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.URL, &cat.ParentID, &cat.RecipeCount, &cat.Path); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// HasCategories reports whether any category rows exist.
func (s *CatalogStore) HasCategories(ctx context.Context) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM categories)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("check categories: %w", err)
	}
	return exists, nil
}

// resolveTerm resolves an optional taxonomy name to a nullable id inside tx.
func resolveTerm(ctx context.Context, tx pgx.Tx, axis crawler.TaxonomyAxis, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	table, err := axisTable(axis)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, table)

	var id int64
	if err := tx.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("resolve %s term %q: %w", axis, name, err)
	}
	return &id, nil
}

// axisTable maps an axis to its table name. The allowlist keeps axis values
// out of SQL injection territory since table names cannot be parameterized.
func axisTable(axis crawler.TaxonomyAxis) (string, error) {
	switch axis {
	case crawler.AxisCuisine, crawler.AxisDishType, crawler.AxisPurpose:
		return string(axis), nil
	default:
		return "", fmt.Errorf("unknown taxonomy axis %q", axis)
	}
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
