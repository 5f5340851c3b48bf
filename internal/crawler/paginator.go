package crawler

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ListingPaginator walks the result pages of one category and hands every
// newly discovered recipe URL to a callback.
type ListingPaginator struct {
	fetcher Fetcher
	visited *VisitTracker
	rules   SiteRules
	logger  *zap.Logger
}

// NewListingPaginator wires a paginator over the shared visited set.
func NewListingPaginator(fetcher Fetcher, visited *VisitTracker, rules SiteRules, logger *zap.Logger) *ListingPaginator {
	return &ListingPaginator{
		fetcher: fetcher,
		visited: visited,
		rules:   rules,
		logger:  logger,
	}
}

// Paginate fetches page 1, 2, 3, ... of the category listing until a page
// yields zero recipe links. Termination never relies on a "next page"
// affordance; those are unreliable across layout variants. Each recipe URL
// is claimed in the visited set exactly once, so a URL handed to handle is
// never handed out again this run.
func (p *ListingPaginator) Paginate(ctx context.Context, cat Category, handle func(url string)) error {
	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageURL := ListingPageURL(cat.URL, pageNum)
		page, err := p.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("fetch listing page %d of %s: %w", pageNum, cat.URL, err)
		}

		links, err := p.recipeLinks(page)
		if err != nil {
			return fmt.Errorf("parse listing page %d of %s: %w", pageNum, cat.URL, err)
		}
		if len(links) == 0 {
			p.logger.Debug("listing exhausted",
				zap.String("category", cat.Path),
				zap.Int("pages", pageNum-1),
			)
			return nil
		}

		for _, link := range links {
			if p.visited.MarkIfNew(link) {
				handle(link)
			}
		}
	}
}

func (p *ListingPaginator) recipeLinks(page Page) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, err
	}
	var links []string
	doc.Find(p.rules.RecipeLinks).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		normalized, err := NormalizeURL(ResolveRef(page.FinalURL, href))
		if err != nil {
			p.logger.Warn("bad recipe link", zap.String("href", href), zap.Error(err))
			return
		}
		links = append(links, normalized)
	})
	return links, nil
}
