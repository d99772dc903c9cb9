package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"shopscout/shopscout/config"
	"shopscout/shopscout/controllers"
	"shopscout/shopscout/middlewares"
	"shopscout/shopscout/routes"
	"shopscout/shopscout/services/crawler"
	"shopscout/shopscout/services/fetch"
	"shopscout/shopscout/services/scraper"
	"shopscout/shopscout/sources/psql"
	"shopscout/shopscout/sources/psql/dao"
	"shopscout/shopscout/sources/storage"
	"shopscout/shopscout/utils/logging"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		panic(err)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fetcher := fetch.NewClient(cfg.Crawl.FetchOptions())
	opts := crawler.Options{
		Fetcher:           fetcher,
		Parser:            scraper.NewParser(cfg.Selectors),
		Cache:             storage.NewFileCacheStore(cfg.CacheFile),
		Workers:           cfg.Crawl.Workers,
		ListingPathFormat: cfg.Crawl.ListingPathFormat,
	}

	var archives controllers.RunArchiveReader
	if cfg.MinIOEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		opts.Archiver = minioClient
		archives = minioClient
		if cfg.CacheBackend == "minio" {
			opts.Cache = minioClient
		}
	} else if cfg.CacheBackend == "minio" {
		logging.ErrorLogger.Error("cache backend minio requires MINIO_ENDPOINT")
		os.Exit(1)
	}

	var runsCtrl *controllers.RunsController
	if cfg.DatabaseEnabled() {
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("database connection error", zap.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		runDAO := dao.NewCrawlRunDAO(db.DB)
		opts.Recorder = runDAO
		runsCtrl = controllers.NewRunsController(runDAO, archives)
	}

	scrapeCtrl := controllers.NewScrapeController(crawler.New(opts), fetcher, cfg.Crawl.DefaultPageLimit)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// event streams run as long as the crawl does
	r.Mount("/scrape-products", routes.ScrapeRoutes(scrapeCtrl))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(60 * time.Second))
		gr.Mount("/proxy-image", routes.ImageRoutes(scrapeCtrl))
		gr.Mount("/cache", routes.CacheRoutes(scrapeCtrl))
		gr.Mount("/health", routes.HealthRoutes(healthCtrl))
		if runsCtrl != nil {
			gr.Mount("/runs", routes.RunRoutes(runsCtrl))
		}
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
