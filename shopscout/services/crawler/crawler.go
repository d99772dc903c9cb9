package crawler

import (
	"context"
	"shopscout/shopscout/services/fetch"
	"shopscout/shopscout/services/scraper"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultWorkers           = 10
	DefaultListingPathFormat = "/page/%d/"
)

// Fetcher is the retrying GET shared by every stage.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// RunRecorder stores finished runs, e.g. in the run-history database.
type RunRecorder interface {
	RecordRun(ctx context.Context, req types.CrawlRequest, summary types.RunSummary, products []types.ProductRecord) error
}

// RunArchiver uploads the product records of a finished run.
type RunArchiver interface {
	ArchiveRun(ctx context.Context, runID string, products []types.ProductRecord) error
}

type Options struct {
	Fetcher           Fetcher
	Parser            *scraper.Parser
	Cache             CacheStore
	Recorder          RunRecorder
	Archiver          RunArchiver
	Workers           int
	ListingPathFormat string
}

// Crawler runs the crawl-and-match pipeline. It holds no per-run state, so
// one instance serves concurrent runs.
type Crawler struct {
	fetcher           Fetcher
	parser            *scraper.Parser
	cache             CacheStore
	recorder          RunRecorder
	archiver          RunArchiver
	workers           int
	listingPathFormat string

	// serializes the load-merge-save of the discovery cache
	cacheMu sync.Mutex
}

func New(opts Options) *Crawler {
	c := &Crawler{
		fetcher:           opts.Fetcher,
		parser:            opts.Parser,
		cache:             opts.Cache,
		recorder:          opts.Recorder,
		archiver:          opts.Archiver,
		workers:           opts.Workers,
		listingPathFormat: opts.ListingPathFormat,
	}
	if c.fetcher == nil {
		c.fetcher = fetch.NewClient(fetch.DefaultOptions())
	}
	if c.parser == nil {
		c.parser = scraper.NewParser(scraper.DefaultSelectors())
	}
	if c.cache == nil {
		c.cache = NewMemoryCacheStore(nil)
	}
	if c.workers <= 0 {
		c.workers = DefaultWorkers
	}
	if c.listingPathFormat == "" {
		c.listingPathFormat = DefaultListingPathFormat
	}
	return c
}

// LoadCache returns the current discovery cache.
func (c *Crawler) LoadCache(ctx context.Context) (DiscoveryCache, error) {
	return c.cache.Load(ctx)
}

// runState is everything one run mutates. It is created per run and never
// shared between runs.
type runState struct {
	runID string
	req   types.CrawlRequest
	emit  func(types.Event)

	matcher         *Matcher
	brandPagesFound map[string]map[int]struct{}
	matched         []types.ListingCard
	seen            map[string]struct{}
	unusedBrands    *keywordSet
	unusedProducts  *keywordSet

	totalLinks   int
	pagesVisited int
	pagesSkipped int
	scanned      int
	matchedCount int
}

func newRunState(req types.CrawlRequest, emit func(types.Event)) *runState {
	return &runState{
		runID:           uuid.NewString(),
		req:             req,
		emit:            emit,
		matcher:         NewMatcher(),
		brandPagesFound: map[string]map[int]struct{}{},
		seen:            map[string]struct{}{},
		unusedBrands:    newKeywordSet(req.Brands),
		unusedProducts:  newKeywordSet(req.Products),
	}
}

// Start runs the pipeline in its own goroutine and returns the event
// stream. The channel is unbuffered and closed after the summary event.
// ctx should already be detached from the caller; a client disconnect must
// not abort in-flight work.
func (c *Crawler) Start(ctx context.Context, req types.CrawlRequest) <-chan types.Event {
	events := make(chan types.Event)
	go func() {
		defer close(events)
		c.Run(ctx, req, func(ev types.Event) { events <- ev })
	}()
	return events
}

// Run executes one crawl synchronously, passing every event to emit in
// production order. The summary is both the last event and the return value.
func (c *Crawler) Run(ctx context.Context, req types.CrawlRequest, emit func(types.Event)) types.RunSummary {
	st := newRunState(req, emit)
	ctx = logging.WithRunID(ctx, st.runID)
	defer logging.LogDuration(ctx, "crawl_run")()

	logging.AppLogger.Info("crawl started",
		zap.String("run_id", st.runID),
		zap.String("base_url", req.BaseURL),
		zap.Int("page_limit", req.PageLimit),
		zap.Strings("brands", req.Brands),
		zap.Strings("products", req.Products),
	)

	cache, err := c.cache.Load(ctx)
	if err != nil {
		logging.ErrorLogger.Warn("discovery cache unavailable, scanning full range",
			zap.String("run_id", st.runID),
			zap.Error(err),
		)
		cache = DiscoveryCache{}
	}

	plan := BuildPlan(req, cache)
	c.scanListings(ctx, st, plan)
	outcomes := c.fetchDetails(ctx, st)

	summary := types.RunSummary{
		RunID:          st.runID,
		Scanned:        st.scanned,
		Matched:        st.matchedCount,
		TotalLinks:     st.totalLinks,
		TotalPages:     req.PageLimit,
		PagesVisited:   st.pagesVisited,
		PagesSkipped:   st.pagesSkipped,
		Strategy:       string(st.matcher.Current()),
		UnusedBrands:   st.unusedBrands.remaining(),
		UnusedProducts: st.unusedProducts.remaining(),
	}

	c.persist(ctx, st, summary, products(outcomes))

	logging.AppLogger.Info("crawl finished",
		zap.String("run_id", st.runID),
		zap.Int("scanned", summary.Scanned),
		zap.Int("matched", summary.Matched),
		zap.Int("total_links", summary.TotalLinks),
		zap.String("strategy", summary.Strategy),
	)
	st.emit(types.SummaryEvent(summary))
	return summary
}

// persist saves the observed brand pages and records the run. Failures are
// logged only; they never fail the run. It runs even when ctx is already
// cancelled, so an interrupted run keeps what it observed.
func (c *Crawler) persist(ctx context.Context, st *runState, summary types.RunSummary, records []types.ProductRecord) {
	ctx = context.WithoutCancel(ctx)
	if err := c.mergeCache(ctx, st.brandPagesFound); err != nil {
		logging.ErrorLogger.Error("saving discovery cache",
			zap.String("run_id", st.runID),
			zap.Error(err),
		)
	}
	if c.recorder != nil {
		if err := c.recorder.RecordRun(ctx, st.req, summary, records); err != nil {
			logging.ErrorLogger.Error("recording run",
				zap.String("run_id", st.runID),
				zap.Error(err),
			)
		}
	}
	if c.archiver != nil {
		if err := c.archiver.ArchiveRun(ctx, st.runID, records); err != nil {
			logging.ErrorLogger.Error("archiving run",
				zap.String("run_id", st.runID),
				zap.Error(err),
			)
		}
	}
}

// mergeCache reloads before merging so concurrent runs in this process keep
// each other's observations.
func (c *Crawler) mergeCache(ctx context.Context, observed map[string]map[int]struct{}) error {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	cache, err := c.cache.Load(ctx)
	if err != nil {
		return err
	}
	if cache == nil {
		cache = DiscoveryCache{}
	}
	cache.Merge(observed)
	return c.cache.Save(ctx, cache)
}

func products(outcomes []DetailOutcome) []types.ProductRecord {
	out := []types.ProductRecord{}
	for _, o := range outcomes {
		if o.Product != nil {
			out = append(out, *o.Product)
		}
	}
	return out
}
