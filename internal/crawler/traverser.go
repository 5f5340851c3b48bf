package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// CategoryTraverser walks the category tree, inserting one row per newly
// discovered category. Traversal runs on a single goroutine during the
// discovery phase, which keeps every store write serialized.
type CategoryTraverser struct {
	fetcher  Fetcher
	store    CatalogStore
	visited  *VisitTracker
	rules    SiteRules
	maxDepth int
	logger   *zap.Logger
}

// NewCategoryTraverser wires a traverser. maxDepth bounds recursion depth;
// non-positive values fall back to 3.
func NewCategoryTraverser(
	fetcher Fetcher,
	store CatalogStore,
	visited *VisitTracker,
	rules SiteRules,
	maxDepth int,
	logger *zap.Logger,
) *CategoryTraverser {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &CategoryTraverser{
		fetcher:  fetcher,
		store:    store,
		visited:  visited,
		rules:    rules,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// TraverseRoot starts a full traversal from the catalog root. An unreachable
// root is the only fatal condition: no work is possible without it.
func (t *CategoryTraverser) TraverseRoot(ctx context.Context, rootURL string) error {
	if !t.visited.MarkIfNew(rootURL) {
		return nil
	}
	page, err := t.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootUnreachable, rootURL, err)
	}
	t.descend(ctx, page, nil, 0, "")
	return nil
}

// traverse fetches one category page and recurses into its children.
// A failed fetch skips the subtree for this run; the fetcher already retried.
func (t *CategoryTraverser) traverse(ctx context.Context, url string, parentID *int64, depth int, path string) {
	if depth > t.maxDepth {
		return
	}
	if ctx.Err() != nil {
		return
	}
	if !t.visited.MarkIfNew(url) {
		return
	}

	page, err := t.fetcher.Fetch(ctx, url)
	if err != nil {
		t.logger.Warn("category fetch failed, skipping subtree",
			zap.String("url", url),
			zap.Int("depth", depth),
			zap.Error(err),
		)
		return
	}
	t.descend(ctx, page, parentID, depth, path)
}

func (t *CategoryTraverser) descend(ctx context.Context, page Page, parentID *int64, depth int, path string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		t.logger.Warn("category page unparsable", zap.String("url", page.URL), zap.Error(err))
		return
	}

	// Children are visited in page order; this fixes path display order only.
	doc.Find(t.rules.CategoryLinks).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		name := strings.TrimSpace(link.Text())
		if name == "" {
			return
		}

		childURL, err := NormalizeURL(ResolveRef(page.FinalURL, href))
		if err != nil {
			t.logger.Warn("bad category link", zap.String("href", href), zap.Error(err))
			return
		}

		count := parseAdvertisedCount(link.Parent().Find(t.rules.CategoryCount).First().Text())
		childPath := name
		if path != "" {
			childPath = path + "/" + name
		}

		id, err := t.store.InsertCategoryIfAbsent(ctx, Category{
			Name:        name,
			URL:         childURL,
			ParentID:    parentID,
			RecipeCount: count,
			Path:        childPath,
		})
		if err != nil {
			t.logger.Error("insert category failed", zap.String("url", childURL), zap.Error(err))
			return
		}

		t.traverse(ctx, childURL, &id, depth+1, childPath)
	})
}

// parseAdvertisedCount extracts the advertised recipe count from text like
// "(120)". Unparsable text counts as zero.
func parseAdvertisedCount(text string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
