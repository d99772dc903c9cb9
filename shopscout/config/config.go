package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"shopscout/shopscout/services/fetch"
	"shopscout/shopscout/services/scraper"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "shopscout.yaml"

type Config struct {
	Port   string `yaml:"port"`
	LogDir string `yaml:"log_dir"`

	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`

	// CacheBackend is "file" or "minio".
	CacheBackend string `yaml:"cache_backend"`
	CacheFile    string `yaml:"cache_file"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
	MinIOUseSSL    bool   `yaml:"minio_use_ssl"`

	Crawl     CrawlConfig       `yaml:"crawl"`
	Selectors scraper.Selectors `yaml:"selectors"`
}

type CrawlConfig struct {
	Workers           int           `yaml:"workers"`
	MaxRetries        int           `yaml:"max_retries"`
	Timeout           time.Duration `yaml:"timeout"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	UserAgent         string        `yaml:"user_agent"`
	DefaultPageLimit  int           `yaml:"default_page_limit"`
	ListingPathFormat string        `yaml:"listing_path_format"`
}

// FetchOptions is the retry policy shared by every fetch in the process.
func (c CrawlConfig) FetchOptions() fetch.Options {
	return fetch.Options{
		MaxRetries: c.MaxRetries,
		Timeout:    c.Timeout,
		RetryDelay: c.RetryDelay,
		UserAgent:  c.UserAgent,
	}
}

// DatabaseEnabled reports whether run history should be kept.
func (c Config) DatabaseEnabled() bool { return c.DBHost != "" }

// MinIOEnabled reports whether an object store is configured.
func (c Config) MinIOEnabled() bool { return c.MinIOEndpoint != "" }

func defaults() Config {
	return Config{
		Port:         "8000",
		LogDir:       "./logs",
		DBPort:       "5432",
		CacheBackend: "file",
		CacheFile:    "brand_page_cache.json",
		MinIOBucket:  "shopscout",
		Crawl: CrawlConfig{
			Workers:           10,
			MaxRetries:        fetch.DefaultMaxRetries,
			Timeout:           fetch.DefaultTimeout,
			RetryDelay:        fetch.DefaultRetryDelay,
			UserAgent:         fetch.DefaultUserAgent,
			DefaultPageLimit:  3,
			ListingPathFormat: "/page/%d/",
		},
	}
}

// LoadConfig reads .env (if present), then the YAML file named by
// SHOPSCOUT_CONFIG (default shopscout.yaml, skipped when absent), then the
// process environment. Later sources win.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	path := getEnv("SHOPSCOUT_CONFIG", defaultConfigFile)
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)

	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)

	cfg.CacheBackend = getEnv("CACHE_BACKEND", cfg.CacheBackend)
	cfg.CacheFile = getEnv("CACHE_FILE", cfg.CacheFile)

	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIOAccessKey)
	cfg.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIOSecretKey)
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)

	var err error
	if cfg.MinIOUseSSL, err = getEnvBool("MINIO_USE_SSL", cfg.MinIOUseSSL); err != nil {
		return Config{}, err
	}
	if cfg.Crawl.Workers, err = getEnvInt("CRAWL_WORKERS", cfg.Crawl.Workers); err != nil {
		return Config{}, err
	}
	if cfg.Crawl.MaxRetries, err = getEnvInt("FETCH_MAX_RETRIES", cfg.Crawl.MaxRetries); err != nil {
		return Config{}, err
	}
	if cfg.Crawl.Timeout, err = getEnvDuration("FETCH_TIMEOUT", cfg.Crawl.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.Crawl.RetryDelay, err = getEnvDuration("FETCH_RETRY_DELAY", cfg.Crawl.RetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.Crawl.DefaultPageLimit, err = getEnvInt("DEFAULT_PAGE_LIMIT", cfg.Crawl.DefaultPageLimit); err != nil {
		return Config{}, err
	}
	cfg.Crawl.UserAgent = getEnv("FETCH_USER_AGENT", cfg.Crawl.UserAgent)
	cfg.Crawl.ListingPathFormat = getEnv("LISTING_PATH_FORMAT", cfg.Crawl.ListingPathFormat)

	if cfg.CacheBackend != "file" && cfg.CacheBackend != "minio" {
		return Config{}, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
