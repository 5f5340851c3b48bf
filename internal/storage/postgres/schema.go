package postgres

// Schema is the DDL for the catalog tables. url uniqueness on categories and
// recipes is the sole deduplication mechanism at the storage layer; foreign
// keys keep ingredient rows owned by their recipe.
const Schema = `
CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	parent_id BIGINT REFERENCES categories(id),
	recipe_count INTEGER NOT NULL DEFAULT 0,
	path TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cuisines (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS dish_types (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS purposes (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS recipes (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	image_url TEXT NOT NULL DEFAULT '',
	category_id BIGINT REFERENCES categories(id),
	cuisine_id BIGINT REFERENCES cuisines(id),
	dish_type_id BIGINT REFERENCES dish_types(id),
	purpose_id BIGINT REFERENCES purposes(id),
	calories TEXT NOT NULL DEFAULT '',
	proteins TEXT NOT NULL DEFAULT '',
	fats TEXT NOT NULL DEFAULT '',
	carbohydrates TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	instructions TEXT NOT NULL DEFAULT '',
	last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS recipe_ingredients (
	id BIGSERIAL PRIMARY KEY,
	recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	quantity DOUBLE PRECISION,
	unit TEXT NOT NULL DEFAULT '',
	group_label TEXT,
	is_grouped BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS recipe_ingredients_recipe_id_idx
	ON recipe_ingredients (recipe_id);
`
