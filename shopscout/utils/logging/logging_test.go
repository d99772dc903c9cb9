package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInitLoggerCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogger(dir); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	defer func() {
		AppLogger.Sync()
	}()

	AppLogger.Info("hello")
	ctx := WithRunID(context.Background(), "run-1")
	LogDuration(ctx, "TestInitLoggerCreatesFiles")()
	Sync()

	for _, name := range []string{"app.log", "timer.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "abc")
	if got := RunID(ctx); got != "abc" {
		t.Errorf("expected run id abc, got %q", got)
	}
	if got := RunID(context.Background()); got != "" {
		t.Errorf("expected empty run id, got %q", got)
	}
}
