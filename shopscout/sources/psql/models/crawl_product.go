// shopscout/sources/psql/models/crawl_product.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CrawlProduct is a product record fetched during a run.
type CrawlProduct struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RunID       uuid.UUID `json:"run_id" gorm:"type:uuid;index;not null"`
	Title       string    `json:"title" gorm:"type:text"`
	Price       string    `json:"price" gorm:"type:varchar(64)"`
	Description string    `json:"description" gorm:"type:text"`
	Images      []string  `json:"images" gorm:"type:text;serializer:json"`
	Category    string    `json:"category" gorm:"type:varchar(255)"`
	Brand       string    `json:"brand" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CrawlProduct) TableName() string {
	return "crawl_products"
}
