package crawler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"recipebook/crawler/internal/hash/sha256"
)

func sha256Hasher(t *testing.T) Hasher {
	t.Helper()
	return sha256.New()
}

// fakeFetcher serves canned bodies by URL and records every fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fail    map[string]error
	fetched []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		fail:  make(map[string]error),
	}
}

func (f *fakeFetcher) set(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = body
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, url)
	if err, ok := f.fail[url]; ok {
		return Page{}, err
	}
	body, ok := f.pages[url]
	if !ok {
		return Page{}, &HTTPStatusError{URL: url, Code: 404}
	}
	return Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *fakeFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == url {
			n++
		}
	}
	return n
}

func (f *fakeFetcher) totalFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// memStore is an in-memory CatalogStore for pipeline tests. Method calls are
// mutex-guarded so misuse by parallel writers still yields coherent state.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[string]Category
	terms      map[TaxonomyAxis]map[string]int64
	recipes    map[string]storedRecipe
	outcomes   []Outcome
	upsertErr  error
}

type storedRecipe struct {
	id   int64
	hash string
	rec  Recipe
}

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[string]Category),
		terms:      make(map[TaxonomyAxis]map[string]int64),
		recipes:    make(map[string]storedRecipe),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) InsertCategoryIfAbsent(_ context.Context, cat Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.categories[cat.URL]; ok {
		return existing.ID, nil
	}
	cat.ID = s.id()
	s.categories[cat.URL] = cat
	return cat.ID, nil
}

func (s *memStore) GetOrCreateTaxonomyTerm(_ context.Context, axis TaxonomyAxis, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terms[axis] == nil {
		s.terms[axis] = make(map[string]int64)
	}
	if id, ok := s.terms[axis][name]; ok {
		return id, nil
	}
	id := s.id()
	s.terms[axis][name] = id
	return id, nil
}

func (s *memStore) FindRecipeByURL(_ context.Context, url string) (RecipeRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.recipes[url]
	if !ok {
		return RecipeRef{}, false, nil
	}
	return RecipeRef{ID: stored.id, ContentHash: stored.hash}, true, nil
}

func (s *memStore) UpsertRecipe(_ context.Context, rec Recipe, hash string, outcome Outcome) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.outcomes = append(s.outcomes, outcome)
	switch outcome {
	case OutcomeInserted:
		id := s.id()
		s.recipes[rec.URL] = storedRecipe{id: id, hash: hash, rec: rec}
		return id, nil
	case OutcomeUpdated:
		stored, ok := s.recipes[rec.URL]
		if !ok {
			return 0, fmt.Errorf("update of unknown recipe %s", rec.URL)
		}
		stored.hash = hash
		stored.rec = rec
		s.recipes[rec.URL] = stored
		return stored.id, nil
	default:
		return 0, fmt.Errorf("unexpected outcome %q", outcome)
	}
}

func (s *memStore) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, cat := range s.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *memStore) HasCategories(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.categories) > 0, nil
}
