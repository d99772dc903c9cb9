// shopscout/controllers/runs.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"shopscout/shopscout/sources/psql/dao"
	"shopscout/shopscout/sources/psql/models"
	"shopscout/shopscout/sources/storage"

	"github.com/google/uuid"
)

// RunArchiveReader reads the product archive written at the end of a run.
type RunArchiveReader interface {
	GetRunArchive(ctx context.Context, runID string) (*storage.RunArchive, error)
}

type RunsController struct {
	runDAO   *dao.CrawlRunDAO
	archives RunArchiveReader
}

// NewRunsController serves run history; archives may be nil when no object
// store is configured.
func NewRunsController(runDAO *dao.CrawlRunDAO, archives RunArchiveReader) *RunsController {
	return &RunsController{runDAO: runDAO, archives: archives}
}

func (c *RunsController) ListRuns(ctx context.Context, limit int) ([]models.CrawlRun, error) {
	return c.runDAO.ListRuns(ctx, limit)
}

func (c *RunsController) GetRun(ctx context.Context, runID string) (*models.CrawlRun, error) {
	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}
	run, err := c.runDAO.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, nil
}

func (c *RunsController) GetRunArchive(ctx context.Context, runID string) (*storage.RunArchive, error) {
	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}
	if c.archives == nil {
		return nil, fmt.Errorf("run archives are not configured: %w", ErrNotFound)
	}
	archive, err := c.archives.GetRunArchive(ctx, id.String())
	if errors.Is(err, storage.ErrArchiveNotFound) {
		return nil, fmt.Errorf("archive for run %s: %w", runID, ErrNotFound)
	}
	return archive, err
}

func parseRunID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: run_id must be a uuid", ErrInvalidInput)
	}
	return id, nil
}
