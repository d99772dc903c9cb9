package crawler

import (
	"context"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DetailOutcome is the result of fetching one matched product page.
type DetailOutcome struct {
	URL     string
	Product *types.ProductRecord
	Status  OutcomeStatus
	Err     error
}

// fetchDetails fetches every matched URL with at most c.workers in flight.
// Events are emitted in completion order by a single collector; a failing URL
// never cancels its siblings.
func (c *Crawler) fetchDetails(ctx context.Context, st *runState) []DetailOutcome {
	defer logging.LogDuration(ctx, "fetch_details")()

	total := len(st.matched)
	results := make(chan DetailOutcome)

	var g errgroup.Group
	g.SetLimit(c.workers)
	go func() {
		for _, card := range st.matched {
			url := card.URL
			g.Go(func() error {
				results <- c.fetchDetail(ctx, st, url)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var scanned, matched atomic.Int64
	outcomes := make([]DetailOutcome, 0, total)
	for out := range results {
		s := int(scanned.Add(1))
		m := int(matched.Load())
		if out.Status == OutcomeOK {
			m = int(matched.Add(1))
		}
		stats := types.Stats{Scanned: s, Matched: m, Total: total}
		st.emit(types.DetailEvent(out.Product, stats))
		outcomes = append(outcomes, out)
	}

	st.scanned = int(scanned.Load())
	st.matchedCount = int(matched.Load())
	return outcomes
}

func (c *Crawler) fetchDetail(ctx context.Context, st *runState, url string) DetailOutcome {
	resp, err := c.fetcher.Get(ctx, url)
	if err != nil {
		logging.ErrorLogger.Error("product page skipped",
			zap.String("run_id", st.runID),
			zap.String("url", url),
			zap.Error(err),
		)
		return DetailOutcome{URL: url, Status: OutcomeSkipped, Err: err}
	}

	rec, err := c.parser.ParseProduct(resp.Body, resp.ContentType(), resp.URL)
	if err != nil {
		logging.ErrorLogger.Error("product page unreadable",
			zap.String("run_id", st.runID),
			zap.String("url", url),
			zap.Error(err),
		)
		return DetailOutcome{URL: url, Status: OutcomeFailed, Err: err}
	}
	return DetailOutcome{URL: url, Product: &rec, Status: OutcomeOK}
}
