// shopscout/controllers/scrape.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"shopscout/shopscout/services/crawler"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidInput is returned before any network activity when a request
// cannot be served.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const defaultImageContentType = "image/jpeg"

// ScrapeController starts crawl runs and relays product images.
type ScrapeController struct {
	crawler          *crawler.Crawler
	fetcher          crawler.Fetcher
	defaultPageLimit int
}

// NewScrapeController wires the crawler and the fetcher it shares with the
// image relay.
func NewScrapeController(c *crawler.Crawler, fetcher crawler.Fetcher, defaultPageLimit int) *ScrapeController {
	if defaultPageLimit <= 0 {
		defaultPageLimit = 3
	}
	return &ScrapeController{
		crawler:          c,
		fetcher:          fetcher,
		defaultPageLimit: defaultPageLimit,
	}
}

// ParseCrawlRequest validates and normalizes the crawl query parameters:
// base_url, page_limit, brands, products.
func (c *ScrapeController) ParseCrawlRequest(q url.Values) (types.CrawlRequest, error) {
	base := strings.TrimSpace(q.Get("base_url"))
	if err := validateHTTPURL(base); err != nil {
		return types.CrawlRequest{}, fmt.Errorf("%w: base_url %v", ErrInvalidInput, err)
	}

	limit := c.defaultPageLimit
	if raw := strings.TrimSpace(q.Get("page_limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return types.CrawlRequest{}, fmt.Errorf("%w: page_limit must be a positive integer", ErrInvalidInput)
		}
		limit = n
	}

	return types.CrawlRequest{
		BaseURL:   base,
		PageLimit: limit,
		Brands:    crawler.ParseBrandKeywords(q.Get("brands")),
		Products:  crawler.ParseProductKeywords(q.Get("products")),
	}, nil
}

// StartCrawl runs a crawl detached from ctx's cancellation: a client going
// away stops delivery, not the run.
func (c *ScrapeController) StartCrawl(ctx context.Context, req types.CrawlRequest) <-chan types.Event {
	return c.crawler.Start(context.WithoutCancel(ctx), req)
}

// Image is a relayed image body.
type Image struct {
	Body        []byte
	ContentType string
}

// ProxyImage fetches an image through the shared fetch policy.
func (c *ScrapeController) ProxyImage(ctx context.Context, rawURL string) (*Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if err := validateHTTPURL(rawURL); err != nil {
		return nil, fmt.Errorf("%w: url %v", ErrInvalidInput, err)
	}

	resp, err := c.fetcher.Get(ctx, rawURL)
	if err != nil {
		logging.ErrorLogger.Error("image relay failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	contentType := resp.ContentType()
	if contentType == "" {
		contentType = defaultImageContentType
	}
	return &Image{Body: resp.Body, ContentType: contentType}, nil
}

// Cache returns the current discovery cache.
func (c *ScrapeController) Cache(ctx context.Context) (crawler.DiscoveryCache, error) {
	return c.crawler.LoadCache(ctx)
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("is not a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}
