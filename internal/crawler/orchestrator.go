package crawler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrchestratorConfig controls a crawl run.
type OrchestratorConfig struct {
	RootURL string
	Workers int
}

// Orchestrator composes traversal, pagination, extraction, and persistence
// into one crawl run. Fetch-and-extract work fans out over a bounded worker
// pool; every store write is serialized through a single writer goroutine,
// because taxonomy get-or-create is a read-then-write sequence that is unsafe
// under concurrent writers.
type Orchestrator struct {
	cfg       OrchestratorConfig
	fetcher   Fetcher
	store     CatalogStore
	traverser *CategoryTraverser
	paginator *ListingPaginator
	extractor *RecipeExtractor
	hasher    Hasher
	clock     Clock
	archive   PageArchive
	logger    *zap.Logger
}

// NewOrchestrator wires a run driver. archive may be nil.
func NewOrchestrator(
	cfg OrchestratorConfig,
	fetcher Fetcher,
	store CatalogStore,
	traverser *CategoryTraverser,
	paginator *ListingPaginator,
	extractor *RecipeExtractor,
	hasher Hasher,
	clock Clock,
	archive PageArchive,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		store:     store,
		traverser: traverser,
		paginator: paginator,
		extractor: extractor,
		hasher:    hasher,
		clock:     clock,
		archive:   archive,
		logger:    logger,
	}
}

type itemJob struct {
	URL        string
	CategoryID int64
}

type writeJob struct {
	rec  Recipe
	hash string
}

// runState collects run-wide counters behind one mutex.
type runState struct {
	mu         sync.Mutex
	inserted   int
	updated    int
	unchanged  int
	failedURLs map[string]struct{}
}

func (s *runState) fail(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedURLs[url] = struct{}{}
}

func (s *runState) record(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch outcome {
	case OutcomeInserted:
		s.inserted++
	case OutcomeUpdated:
		s.updated++
	case OutcomeUnchanged:
		s.unchanged++
	}
}

// Run executes one full crawl. Cancellation is cooperative: no new fetches
// are issued once ctx is done, in-flight item work finishes, and the summary
// reflects everything committed so far. Every write is already durable per
// item, so partial progress is never discarded.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{
		RunID:   uuid.NewString(),
		Started: o.clock.Now(),
	}
	log := o.logger.With(zap.String("run_id", summary.RunID))
	log.Info("crawl run starting", zap.String("root", o.cfg.RootURL))

	hasCategories, err := o.store.HasCategories(ctx)
	if err != nil {
		return summary, err
	}
	if !hasCategories {
		if err := o.traverser.TraverseRoot(ctx, o.cfg.RootURL); err != nil {
			// The only fatal fetch error: nothing can be crawled
			// without the catalog root.
			return summary, err
		}
	}

	categories, err := o.store.ListCategories(ctx)
	if err != nil {
		return summary, err
	}

	state := &runState{failedURLs: make(map[string]struct{})}
	o.processItems(ctx, categories, state)

	summary.Finished = o.clock.Now()
	summary.Inserted = state.inserted
	summary.Updated = state.updated
	summary.Unchanged = state.unchanged
	summary.FailedURLs = sortedKeys(state.failedURLs)
	if counter, ok := o.fetcher.(interface{ Requests() int64 }); ok {
		summary.Fetched = counter.Requests()
	}

	log.Info("crawl run finished",
		zap.Int64("fetched", summary.Fetched),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("failed", summary.Failed()),
	)
	return summary, ctx.Err()
}

func (o *Orchestrator) processItems(ctx context.Context, categories []Category, state *runState) {
	itemCh := make(chan itemJob)
	writeCh := make(chan writeJob)

	// Producer: paginate categories in stored path order.
	producerDone := make(chan struct{})
	go func() {
		defer close(itemCh)
		defer close(producerDone)
		for _, cat := range categories {
			if ctx.Err() != nil {
				return
			}
			if cat.RecipeCount == 0 {
				continue
			}
			cat := cat
			err := o.paginator.Paginate(ctx, cat, func(url string) {
				select {
				case itemCh <- itemJob{URL: url, CategoryID: cat.ID}:
				case <-ctx.Done():
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				o.logger.Warn("listing pagination failed",
					zap.String("category", cat.Path),
					zap.Error(err),
				)
				state.fail(cat.URL)
			}
		}
	}()

	// Writer: the single actor performing all store mutations.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for job := range writeCh {
			o.persist(ctx, job, state)
		}
	}()

	// Workers: fetch and extract concurrently.
	var g errgroup.Group
	for i := 0; i < o.cfg.Workers; i++ {
		g.Go(func() error {
			for job := range itemCh {
				if ctx.Err() != nil {
					continue
				}
				o.handleItem(ctx, job, writeCh, state)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(writeCh)
	<-writerDone
	<-producerDone
}

func (o *Orchestrator) handleItem(ctx context.Context, job itemJob, writeCh chan<- writeJob, state *runState) {
	page, err := o.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		o.logger.Warn("recipe fetch failed", zap.String("url", job.URL), zap.Error(err))
		state.fail(job.URL)
		return
	}

	rec, err := o.extractor.Extract(page, job.CategoryID)
	if err != nil {
		extractionFailuresTotal.Inc()
		o.logger.Warn("recipe extraction failed", zap.String("url", job.URL), zap.Error(err))
		state.fail(job.URL)
		o.archivePage(ctx, page)
		return
	}

	hash, err := ContentHash(o.hasher, rec)
	if err != nil {
		o.logger.Error("content hash failed", zap.String("url", job.URL), zap.Error(err))
		state.fail(job.URL)
		return
	}

	select {
	case writeCh <- writeJob{rec: rec, hash: hash}:
	case <-ctx.Done():
	}
}

// persist applies the three-way upsert protocol: inserted on first sighting,
// unchanged when the stored hash matches, updated otherwise.
func (o *Orchestrator) persist(ctx context.Context, job writeJob, state *runState) {
	ref, found, err := o.store.FindRecipeByURL(ctx, job.rec.URL)
	if err != nil {
		o.logger.Error("recipe lookup failed", zap.String("url", job.rec.URL), zap.Error(err))
		state.fail(job.rec.URL)
		return
	}

	outcome := OutcomeInserted
	switch {
	case found && ref.ContentHash == job.hash:
		outcome = OutcomeUnchanged
	case found:
		outcome = OutcomeUpdated
	}

	if outcome != OutcomeUnchanged {
		if _, err := o.store.UpsertRecipe(ctx, job.rec, job.hash, outcome); err != nil {
			// A single bad row must never abort the run.
			o.logger.Error("recipe upsert failed",
				zap.String("url", job.rec.URL),
				zap.String("outcome", string(outcome)),
				zap.Error(err),
			)
			state.fail(job.rec.URL)
			return
		}
	}

	state.record(outcome)
	outcomesTotal.WithLabelValues(string(outcome)).Inc()
	o.logger.Debug("recipe persisted",
		zap.String("url", job.rec.URL),
		zap.String("outcome", string(outcome)),
	)
}

func (o *Orchestrator) archivePage(ctx context.Context, page Page) {
	if o.archive == nil {
		return
	}
	uri, err := o.archive.Put(ctx, page.URL, page.Body)
	if err != nil {
		o.logger.Warn("page archive failed", zap.String("url", page.URL), zap.Error(err))
		return
	}
	o.logger.Info("failed page archived", zap.String("url", page.URL), zap.String("uri", uri))
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
