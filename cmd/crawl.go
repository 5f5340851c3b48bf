package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipebook/crawler/internal/archive/local"
	"recipebook/crawler/internal/clock/system"
	"recipebook/crawler/internal/config"
	"recipebook/crawler/internal/crawler"
	"recipebook/crawler/internal/hash/sha256"
	"recipebook/crawler/internal/logging"
	"recipebook/crawler/internal/storage/postgres"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one full crawl of the recipe catalog",
		Long: `Discovers the category tree when the store is empty, then walks every
category's paginated listing, extracting and upserting recipe detail pages.
Interrupting the run stops new fetches but lets in-flight work finish; every
completed item is already committed.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewCatalogStore(ctx, postgres.CatalogStoreConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	orchestrator, err := buildOrchestrator(cfg, store, logger)
	if err != nil {
		return err
	}

	summary, err := orchestrator.Run(ctx)
	printSummary(cmd, summary)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildOrchestrator(cfg config.Config, store *postgres.CatalogStore, logger *zap.Logger) (*crawler.Orchestrator, error) {
	backoffInitial, backoffMax := cfg.BackoffBounds()
	retry := crawler.NewExponentialRetryPolicy(cfg.HTTP.MaxRetries, backoffInitial, backoffMax)

	delayMin, delayMax := cfg.DelayInterval()
	fetcher, err := crawler.NewCollyFetcher(crawler.FetcherConfig{
		UserAgent:      cfg.Site.UserAgent,
		RequestTimeout: cfg.RequestTimeout(),
		Parallelism:    cfg.Crawler.Workers,
		DelayMin:       delayMin,
		DelayMax:       delayMax,
		CaptchaMarker:  cfg.Site.CaptchaMarker,
	}, retry, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	var pageArchive crawler.PageArchive
	if cfg.Archive.Enabled {
		a, err := local.New(local.Config{BaseDir: cfg.Archive.Dir})
		if err != nil {
			return nil, fmt.Errorf("init page archive: %w", err)
		}
		pageArchive = a
	}

	rules := crawler.DefaultSiteRules()
	visited := crawler.NewVisitTracker()
	traverser := crawler.NewCategoryTraverser(fetcher, store, visited, rules, cfg.Crawler.MaxDepth, logger)
	paginator := crawler.NewListingPaginator(fetcher, visited, rules, logger)
	extractor := crawler.NewRecipeExtractor(rules)

	return crawler.NewOrchestrator(
		crawler.OrchestratorConfig{
			RootURL: cfg.Site.RootURL,
			Workers: cfg.Crawler.Workers,
		},
		fetcher,
		store,
		traverser,
		paginator,
		extractor,
		sha256.New(),
		system.New(),
		pageArchive,
		logger,
	), nil
}

func printSummary(cmd *cobra.Command, summary crawler.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: fetched=%d inserted=%d updated=%d unchanged=%d failed=%d\n",
		summary.RunID, summary.Fetched, summary.Inserted, summary.Updated,
		summary.Unchanged, summary.Failed())
	for _, url := range summary.FailedURLs {
		fmt.Fprintf(out, "failed: %s\n", url)
	}
}
