// Command-line interface for running crawls without the HTTP server
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"shopscout/shopscout/config"
	"shopscout/shopscout/controllers"
	"shopscout/shopscout/services/crawler"
	"shopscout/shopscout/services/fetch"
	"shopscout/shopscout/services/scraper"
	"shopscout/shopscout/sources/storage"
	"shopscout/shopscout/utils/color"
	"shopscout/shopscout/utils/jsonutils"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"
	"strconv"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

var (
	baseURL  string
	pages    int
	brands   string
	products []string
	outFile  string
	noColor  bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "shopscout",
	Short:         "Crawl a catalog and stream the products matching brand and product keywords",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if noColor {
			color.Disable()
		}
		return logging.InitLogger(cfg.LogDir)
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one crawl and print its events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cache, err := cacheStore(ctx)
		if err != nil {
			return err
		}
		fetcher := fetch.NewClient(cfg.Crawl.FetchOptions())
		c := crawler.New(crawler.Options{
			Fetcher:           fetcher,
			Parser:            scraper.NewParser(cfg.Selectors),
			Cache:             cache,
			Workers:           cfg.Crawl.Workers,
			ListingPathFormat: cfg.Crawl.ListingPathFormat,
		})
		ctrl := controllers.NewScrapeController(c, fetcher, cfg.Crawl.DefaultPageLimit)

		q := url.Values{
			"base_url": {baseURL},
			"brands":   {brands},
			"products": {strings.Join(products, "\n")},
		}
		if cmd.Flags().Changed("pages") {
			q.Set("page_limit", strconv.Itoa(pages))
		}
		req, err := ctrl.ParseCrawlRequest(q)
		if err != nil {
			return err
		}

		var out io.Writer
		if outFile != "" {
			f, err := os.Create(outFile)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		// interrupting cancels in-flight fetches; the run still ends with a summary
		return printEvents(cmd.OutOrStdout(), out, c.Start(ctx, req))
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the discovery cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the brand to page cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cacheStore(cmd.Context())
		if err != nil {
			return err
		}
		cache, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), color.ColorMuted("source: "+cacheSource(store)))
		fmt.Fprintln(cmd.OutOrStdout(), jsonutils.ToJSON(cache))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "shopscout", Version)
	},
}

func cacheStore(ctx context.Context) (crawler.CacheStore, error) {
	if cfg.CacheBackend == "minio" {
		if !cfg.MinIOEnabled() {
			return nil, fmt.Errorf("cache backend minio requires MINIO_ENDPOINT")
		}
		return storage.NewMinIOClient(ctx, cfg)
	}
	return storage.NewFileCacheStore(cfg.CacheFile), nil
}

func cacheSource(store crawler.CacheStore) string {
	if fs, ok := store.(*storage.FileCacheStore); ok {
		return fs.Path()
	}
	return "minio bucket " + cfg.MinIOBucket
}

// printEvents renders the stream for a terminal and writes every product
// as one JSON line to out when it is set.
func printEvents(w io.Writer, out io.Writer, events <-chan types.Event) error {
	var bar *progressbar.ProgressBar
	var writeErr error

	for ev := range events {
		switch {
		case ev.Status == types.StatusScrapingPage:
			fmt.Fprintln(w, color.ColorPage(fmt.Sprintf("scanning page %d", ev.Page)))

		case ev.IsSummary():
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, color.ColorSummary("summary"))
			fmt.Fprintln(w, color.ColorInfo(fmt.Sprintf("run %s, strategy %s", ev.Summary.RunID, ev.Summary.Strategy)))
			fmt.Fprintln(w, jsonutils.ToJSON(ev.Summary))
			if len(ev.Summary.UnusedBrands) > 0 {
				fmt.Fprintln(w, color.ColorWarning("unused brands: "+strings.Join(ev.Summary.UnusedBrands, ", ")))
			}
			if len(ev.Summary.UnusedProducts) > 0 {
				fmt.Fprintln(w, color.ColorWarning("unused products: "+strings.Join(ev.Summary.UnusedProducts, ", ")))
			}

		case ev.Stats != nil:
			if bar == nil {
				bar = progressbar.NewOptions(ev.Stats.Total,
					progressbar.OptionSetWriter(w),
					progressbar.OptionSetDescription("fetching products"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "=",
						SaucerHead:    ">",
						SaucerPadding: " ",
						BarStart:      "[",
						BarEnd:        "]",
					}),
				)
			}
			bar.Add(1)
			if ev.Product == nil {
				continue
			}
			bar.Describe(color.ColorProduct(ev.Product.Title))
			if out != nil && writeErr == nil {
				line, err := jsonutils.Line(ev.Product)
				if err == nil {
					_, err = out.Write(line)
				}
				if err != nil {
					writeErr = err
					logging.ErrorLogger.Error("writing product", zap.Error(err))
				}
			}
		}
	}
	return writeErr
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")

	crawlCmd.Flags().StringVar(&baseURL, "base-url", "", "catalog root, e.g. https://shop.example")
	crawlCmd.Flags().IntVar(&pages, "pages", 0, "listing pages to consider (default from config)")
	crawlCmd.Flags().StringVar(&brands, "brands", "", "comma or space separated brand keywords")
	crawlCmd.Flags().StringArrayVar(&products, "products", nil, "product keyword, repeatable")
	crawlCmd.Flags().StringVar(&outFile, "out", "", "write product records as NDJSON to this file")
	crawlCmd.MarkFlagRequired("base-url")

	cacheCmd.AddCommand(cacheShowCmd)
	rootCmd.AddCommand(crawlCmd, cacheCmd, versionCmd)
}

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError(err.Error()))
		os.Exit(1)
	}
}
