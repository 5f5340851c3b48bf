package crawler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// FetcherConfig controls transport behavior of the Colly-backed fetcher.
type FetcherConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	Parallelism    int
	// DelayMin/DelayMax bound the randomized politeness delay applied
	// before every request.
	DelayMin time.Duration
	DelayMax time.Duration
	// CaptchaMarker is the site-specific substring that identifies a
	// captcha challenge page.
	CaptchaMarker string
}

// CollyFetcher implements Fetcher on top of a Colly collector, adding the
// retry policy and captcha detection around the raw transport.
type CollyFetcher struct {
	baseCollector *colly.Collector
	retry         *ExponentialRetryPolicy
	pauser        pauseController
	captchaMarker string
	requests      atomic.Int64
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(cfg FetcherConfig, retry *ExponentialRetryPolicy, logger *zap.Logger) (*CollyFetcher, error) {
	base := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	randomExtra := cfg.DelayMax - cfg.DelayMin
	if randomExtra < 0 {
		randomExtra = 0
	}
	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: max(1, cfg.Parallelism),
		Delay:       cfg.DelayMin,
		RandomDelay: randomExtra,
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{
		baseCollector: base,
		retry:         retry,
		pauser:        &timerPauseController{},
		captchaMarker: cfg.CaptchaMarker,
		logger:        logger,
	}, nil
}

// Requests returns the number of HTTP requests dispatched so far.
func (f *CollyFetcher) Requests() int64 {
	return f.requests.Load()
}

// Fetch retrieves a page, retrying transient faults per the retry policy.
// A captcha challenge is surfaced immediately and never retried.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}

		page, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			if f.captchaMarker != "" && strings.Contains(string(page.Body), f.captchaMarker) {
				return Page{}, ErrCaptchaDetected
			}
			return page, nil
		}
		lastErr = err

		if !f.retry.ShouldRetry(err, attempt) {
			break
		}
		wait := f.retry.Backoff(attempt, IsRateLimited(err))
		f.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		f.pauser.Pause(ctx, wait)
	}
	return Page{}, lastErr
}

func (f *CollyFetcher) fetchOnce(_ context.Context, rawURL string) (Page, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		page := Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}
		send(fetchResult{page: page})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			send(fetchResult{err: &HTTPStatusError{URL: rawURL, Code: r.StatusCode}})
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	f.requests.Add(1)
	fetchesTotal.Inc()
	if err := collector.Visit(rawURL); err != nil {
		fetchErrorsTotal.Inc()
		// OnError already ran for HTTP-level failures; its status-coded
		// error is more useful than the raw one Visit returns.
		select {
		case res := <-resultCh:
			if res.err != nil {
				return Page{}, res.err
			}
		default:
		}
		return Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if res.err != nil {
			fetchErrorsTotal.Inc()
		}
		return res.page, res.err
	default:
		return Page{}, errors.New("fetch produced no result")
	}
}

type fetchResult struct {
	page Page
	err  error
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
