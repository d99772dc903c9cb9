// shopscout/utils/types/scrape.go
package types

// CrawlRequest is the normalized input of one crawl run.
type CrawlRequest struct {
	BaseURL   string   `json:"base_url"`
	PageLimit int      `json:"page_limit"`
	Brands    []string `json:"brands"`
	Products  []string `json:"products"`
}

// ListingCard is one product summary found on a listing page.
type ListingCard struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type ProductRecord struct {
	Title       string   `json:"title"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
}

type Stats struct {
	Scanned int `json:"scanned"`
	Matched int `json:"matched"`
	Total   int `json:"total"`
}

type RunSummary struct {
	RunID          string   `json:"run_id"`
	Scanned        int      `json:"scanned"`
	Matched        int      `json:"matched"`
	TotalLinks     int      `json:"total_links"`
	TotalPages     int      `json:"total_pages"`
	PagesVisited   int      `json:"pages_visited"`
	PagesSkipped   int      `json:"pages_skipped"`
	Strategy       string   `json:"strategy"`
	UnusedBrands   []string `json:"unused_brands"`
	UnusedProducts []string `json:"unused_products"`
}

const StatusScrapingPage = "scraping_page"

// Event is a single message of the crawl stream. Exactly one shape is
// populated: a page event, a detail event (product and/or stats) or the
// terminal summary.
type Event struct {
	Status  string         `json:"status,omitempty"`
	Page    int            `json:"page,omitempty"`
	Product *ProductRecord `json:"product,omitempty"`
	Stats   *Stats         `json:"stats,omitempty"`
	Summary *RunSummary    `json:"summary,omitempty"`
}

func PageEvent(page int) Event {
	return Event{Status: StatusScrapingPage, Page: page}
}

func DetailEvent(product *ProductRecord, stats Stats) Event {
	return Event{Product: product, Stats: &stats}
}

func SummaryEvent(summary RunSummary) Event {
	return Event{Summary: &summary}
}

func (e Event) IsSummary() bool { return e.Summary != nil }
