package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"shopscout/shopscout/controllers"
	"shopscout/shopscout/sources/psql"
	"shopscout/shopscout/sources/psql/dao"
	"shopscout/shopscout/utils/types"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRunsRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, psql.Migrate(context.Background(), db))

	runDAO := dao.NewCrawlRunDAO(db)
	id := uuid.NewString()
	require.NoError(t, runDAO.RecordRun(context.Background(),
		types.CrawlRequest{BaseURL: "https://shop.test", PageLimit: 1},
		types.RunSummary{RunID: id, Matched: 2}, nil))

	r := chi.NewRouter()
	r.Mount("/runs", RunRoutes(controllers.NewRunsController(runDAO, nil)))
	return r, id
}

func TestRunsListLimit(t *testing.T) {
	h, _ := newRunsRouter(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"default", "", http.StatusOK},
		{"explicit", "?limit=5", http.StatusOK},
		{"zero", "?limit=0", http.StatusBadRequest},
		{"negative", "?limit=-3", http.StatusBadRequest},
		{"not a number", "?limit=ten", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", "/runs/"+tt.query, nil))
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusBadRequest {
				assert.JSONEq(t, `{"error":"limit must be a positive integer"}`, rr.Body.String())
			}
		})
	}
}

func TestRunsGet(t *testing.T) {
	h, id := newRunsRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/runs/"+id, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var run map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.NotEmpty(t, run)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/runs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/runs/"+id+"/archive", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
