package dao

import (
	"context"
	"shopscout/shopscout/sources/psql"
	"shopscout/shopscout/utils/types"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDAO(t *testing.T) *CrawlRunDAO {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, psql.Migrate(context.Background(), db))
	return NewCrawlRunDAO(db)
}

func TestRecordAndGetRun(t *testing.T) {
	ctx := context.Background()
	dao := newTestDAO(t)
	runID := uuid.NewString()

	req := types.CrawlRequest{BaseURL: "https://shop.test", PageLimit: 2, Brands: []string{"acme"}, Products: []string{}}
	summary := types.RunSummary{
		RunID:          runID,
		Scanned:        2,
		Matched:        1,
		TotalLinks:     5,
		TotalPages:     2,
		PagesVisited:   2,
		Strategy:       "start",
		UnusedBrands:   []string{},
		UnusedProducts: []string{"lamp"},
	}
	products := []types.ProductRecord{{
		Title:  "Acme Widget",
		Price:  "$10.00",
		Images: []string{"https://cdn.test/a.jpg"},
		Brand:  "Acme",
	}}

	require.NoError(t, dao.RecordRun(ctx, req, summary, products))

	run, err := dao.GetRun(ctx, uuid.MustParse(runID))
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, "https://shop.test", run.BaseURL)
	assert.Equal(t, []string{"acme"}, run.Brands)
	assert.Equal(t, 1, run.Matched)
	assert.Equal(t, 5, run.TotalLinks)
	assert.Equal(t, []string{"lamp"}, run.UnusedProducts)
	require.Len(t, run.Items, 1)
	assert.Equal(t, "Acme Widget", run.Items[0].Title)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, run.Items[0].Images)
}

func TestGetRunMissing(t *testing.T) {
	run, err := newTestDAO(t).GetRun(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, run)
}

func TestRecordRunRejectsBadID(t *testing.T) {
	err := newTestDAO(t).RecordRun(context.Background(), types.CrawlRequest{BaseURL: "https://shop.test"}, types.RunSummary{RunID: "nope"}, nil)
	assert.Error(t, err)
}

func TestListRunsLimit(t *testing.T) {
	ctx := context.Background()
	dao := newTestDAO(t)
	for i := 0; i < 3; i++ {
		summary := types.RunSummary{RunID: uuid.NewString(), TotalPages: 1}
		require.NoError(t, dao.RecordRun(ctx, types.CrawlRequest{BaseURL: "https://shop.test", PageLimit: 1}, summary, nil))
	}

	runs, err := dao.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Empty(t, runs[0].Items)

	runs, err = dao.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
