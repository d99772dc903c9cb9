package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"shopscout/shopscout/config"
	"shopscout/shopscout/services/crawler"
	"shopscout/shopscout/utils/logging"
	"shopscout/shopscout/utils/types"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const cacheObjectKey = "cache/brand_page_cache.json"

// ErrArchiveNotFound is returned by GetRunArchive when no archive exists.
var ErrArchiveNotFound = errors.New("run archive not found")

// MinIOClient stores the discovery cache and run archives in one bucket.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

// RunArchive is the object written for every finished run.
type RunArchive struct {
	RunID     string                `json:"run_id"`
	Products  []types.ProductRecord `json:"products"`
	Timestamp time.Time             `json:"timestamp"`
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		},
	)
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		logging.AppLogger.Info("created bucket", zap.String("bucket", bucket))
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// Load reads the discovery cache object. A missing object is an empty cache.
func (m *MinIOClient) Load(ctx context.Context) (crawler.DiscoveryCache, error) {
	data, err := m.get(ctx, cacheObjectKey)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return crawler.DiscoveryCache{}, nil
		}
		return nil, err
	}
	return decodeCache(data, m.bucket+"/"+cacheObjectKey), nil
}

// Save replaces the cache object with a single PUT.
func (m *MinIOClient) Save(ctx context.Context, cache crawler.DiscoveryCache) error {
	data, err := encodeCache(cache)
	if err != nil {
		return err
	}
	return m.put(ctx, cacheObjectKey, data)
}

// ArchiveRun uploads the product records of a run to runs/<id>/products.json.
func (m *MinIOClient) ArchiveRun(ctx context.Context, runID string, products []types.ProductRecord) error {
	data, err := json.Marshal(RunArchive{
		RunID:     runID,
		Products:  products,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return m.put(ctx, RunArchiveKey(runID), data)
}

// GetRunArchive reads back an archived run.
func (m *MinIOClient) GetRunArchive(ctx context.Context, runID string) (*RunArchive, error) {
	data, err := m.get(ctx, RunArchiveKey(runID))
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("run %s: %w", runID, ErrArchiveNotFound)
		}
		return nil, err
	}
	var archive RunArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("decoding run archive %s: %w", runID, err)
	}
	return &archive, nil
}

func RunArchiveKey(runID string) string {
	return path.Join("runs", runID, "products.json")
}

func (m *MinIOClient) put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (m *MinIOClient) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}
