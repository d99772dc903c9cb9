package crawler

import (
	"context"
	"fmt"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"
	"strings"

	"go.uber.org/zap"
)

// OutcomeStatus tells "done" apart from "skipped because the fetch failed"
// and "fetched but unusable".
type OutcomeStatus string

const (
	OutcomeOK      OutcomeStatus = "ok"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// PageOutcome is the result of scanning one listing page.
type PageOutcome struct {
	Page       int
	Cards      int
	NewMatches int
	Status     OutcomeStatus
	Err        error
}

// listingURL builds the URL of listing page n.
func (c *Crawler) listingURL(base string, page int) string {
	return strings.TrimRight(base, "/") + fmt.Sprintf(c.listingPathFormat, page)
}

// scanListings visits the planned pages one at a time. Strategy learning
// depends on strictly sequential observation, so this never runs in parallel.
func (c *Crawler) scanListings(ctx context.Context, st *runState, plan PagePlan) []PageOutcome {
	defer logging.LogDuration(ctx, "scan_listings")()

	outcomes := make([]PageOutcome, 0, len(plan.Pages))
	for _, page := range plan.Pages {
		st.emit(types.PageEvent(page))
		out := c.scanPage(ctx, st, page)
		outcomes = append(outcomes, out)

		switch out.Status {
		case OutcomeOK:
			st.pagesVisited++
		default:
			st.pagesSkipped++
		}

		before := st.matcher.Current()
		if after := st.matcher.Learn(); after != before {
			logging.AppLogger.Info("match strategy changed",
				zap.String("run_id", st.runID),
				zap.Int("page", page),
				zap.String("from", string(before)),
				zap.String("to", string(after)),
			)
		}
	}
	return outcomes
}

func (c *Crawler) scanPage(ctx context.Context, st *runState, page int) PageOutcome {
	pageURL := c.listingURL(st.req.BaseURL, page)
	resp, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		logging.ErrorLogger.Error("listing page skipped",
			zap.String("run_id", st.runID),
			zap.Int("page", page),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return PageOutcome{Page: page, Status: OutcomeSkipped, Err: err}
	}

	cards, err := c.parser.ParseListing(resp.Body, resp.ContentType(), resp.URL)
	if err != nil {
		logging.ErrorLogger.Error("listing page unreadable",
			zap.String("run_id", st.runID),
			zap.Int("page", page),
			zap.Error(err),
		)
		return PageOutcome{Page: page, Status: OutcomeFailed, Err: err}
	}
	if len(cards) == 0 {
		logging.AppLogger.Info("no product cards on page",
			zap.String("run_id", st.runID),
			zap.Int("page", page),
		)
	}

	out := PageOutcome{Page: page, Cards: len(cards), Status: OutcomeOK}
	for _, card := range cards {
		if st.observeCard(card, page) {
			out.NewMatches++
		}
	}
	return out
}

// observeCard applies the per-card rules and reports whether the card's URL
// joined the matched set.
func (st *runState) observeCard(card types.ListingCard, page int) bool {
	st.totalLinks++
	title := strings.ToLower(card.Title)

	if words := strings.Fields(title); len(words) > 0 {
		st.recordBrandPage(words[0], page)
	}

	brand, brandOK := st.matcher.Match(title, st.req.Brands)
	if brandOK {
		st.recordBrandPage(brand, page)
		st.matcher.Observe(title, brand)
	}

	product, productOK := "", false
	for _, kw := range st.req.Products {
		if strings.Contains(title, kw) {
			product, productOK = kw, true
			break
		}
	}

	if !brandOK && !productOK {
		return false
	}
	if _, dup := st.seen[card.URL]; dup {
		return false
	}
	st.seen[card.URL] = struct{}{}
	st.matched = append(st.matched, card)
	if brandOK {
		st.unusedBrands.discard(brand)
	}
	if productOK {
		st.unusedProducts.discard(product)
	}
	return true
}

func (st *runState) recordBrandPage(brand string, page int) {
	pages, ok := st.brandPagesFound[brand]
	if !ok {
		pages = map[int]struct{}{}
		st.brandPagesFound[brand] = pages
	}
	pages[page] = struct{}{}
}
