// shopscout/sources/psql/models/crawl_run.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CrawlRun is one finished crawl with its summary counters.
type CrawlRun struct {
	ID             uuid.UUID      `json:"run_id" gorm:"type:uuid;primaryKey"`
	BaseURL        string         `json:"base_url" gorm:"type:text;not null"`
	PageLimit      int            `json:"page_limit" gorm:"not null"`
	Brands         []string       `json:"brands" gorm:"type:text;serializer:json"`
	Products       []string       `json:"products" gorm:"type:text;serializer:json"`
	Scanned        int            `json:"scanned"`
	Matched        int            `json:"matched"`
	TotalLinks     int            `json:"total_links"`
	TotalPages     int            `json:"total_pages"`
	PagesVisited   int            `json:"pages_visited"`
	PagesSkipped   int            `json:"pages_skipped"`
	Strategy       string         `json:"strategy" gorm:"type:varchar(32)"`
	UnusedBrands   []string       `json:"unused_brands" gorm:"type:text;serializer:json"`
	UnusedProducts []string       `json:"unused_products" gorm:"type:text;serializer:json"`
	Items          []CrawlProduct `json:"items,omitempty" gorm:"foreignKey:RunID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (CrawlRun) TableName() string {
	return "crawl_runs"
}

func (r *CrawlRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
