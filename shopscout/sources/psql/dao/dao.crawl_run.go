// shopscout/sources/psql/dao/dao.crawl_run.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"shopscout/shopscout/sources/psql/models"
	"shopscout/shopscout/utils/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultRunListLimit = 20

type CrawlRunDAO struct {
	DB *gorm.DB
}

func NewCrawlRunDAO(db *gorm.DB) *CrawlRunDAO {
	return &CrawlRunDAO{DB: db}
}

// CreateRun inserts the run together with its product rows.
func (dao *CrawlRunDAO) CreateRun(ctx context.Context, run *models.CrawlRun) error {
	return dao.DB.WithContext(ctx).Create(run).Error
}

// RecordRun stores a finished crawl.
func (dao *CrawlRunDAO) RecordRun(ctx context.Context, req types.CrawlRequest, summary types.RunSummary, products []types.ProductRecord) error {
	id, err := uuid.Parse(summary.RunID)
	if err != nil {
		return fmt.Errorf("run id %q: %w", summary.RunID, err)
	}

	run := &models.CrawlRun{
		ID:             id,
		BaseURL:        req.BaseURL,
		PageLimit:      req.PageLimit,
		Brands:         req.Brands,
		Products:       req.Products,
		Scanned:        summary.Scanned,
		Matched:        summary.Matched,
		TotalLinks:     summary.TotalLinks,
		TotalPages:     summary.TotalPages,
		PagesVisited:   summary.PagesVisited,
		PagesSkipped:   summary.PagesSkipped,
		Strategy:       summary.Strategy,
		UnusedBrands:   summary.UnusedBrands,
		UnusedProducts: summary.UnusedProducts,
	}
	for _, p := range products {
		run.Items = append(run.Items, models.CrawlProduct{
			Title:       p.Title,
			Price:       p.Price,
			Description: p.Description,
			Images:      p.Images,
			Category:    p.Category,
			Brand:       p.Brand,
		})
	}
	return dao.CreateRun(ctx, run)
}

// ListRuns returns the most recent runs without their products.
func (dao *CrawlRunDAO) ListRuns(ctx context.Context, limit int) ([]models.CrawlRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	var runs []models.CrawlRun
	err := dao.DB.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a run with its products, or nil when it does not exist.
func (dao *CrawlRunDAO) GetRun(ctx context.Context, id uuid.UUID) (*models.CrawlRun, error) {
	var run models.CrawlRun
	err := dao.DB.WithContext(ctx).Preload("Items").First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
