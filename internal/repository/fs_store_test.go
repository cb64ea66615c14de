package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FraudSight/internal/domain/repository"
	"FraudSight/internal/registry"
	"FraudSight/pkg/cache"
	"FraudSight/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func writeDataset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
}

func TestFSDatasetStoreCSV(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "loans.csv", strings.Join([]string{
		"credit_score,loan_amount,fraud_label",
		"700,25000,0",
		"540,48000,1",
	}, "\n"))

	s := NewFSDatasetStore(dir, nil, 0)
	ds, err := s.Load(context.Background(), "loans")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Columns) != 3 || ds.Columns[0] != "credit_score" {
		t.Fatalf("columns = %v", ds.Columns)
	}
	if len(ds.Rows) != 2 || ds.Rows[1][2] != 1 {
		t.Fatalf("rows = %v", ds.Rows)
	}
}

func TestFSDatasetStoreJSON(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "apps.json", `[
		{"credit_score": 700, "fraud_label": 0},
		{"credit_score": 540, "fraud_label": 1, "loan_amount": 48000}
	]`)

	s := NewFSDatasetStore(dir, nil, 0)
	ds, err := s.Load(context.Background(), "apps")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Column set is the union of keys, sorted.
	want := []string{"credit_score", "fraud_label", "loan_amount"}
	for i, col := range want {
		if ds.Columns[i] != col {
			t.Fatalf("columns = %v, want %v", ds.Columns, want)
		}
	}
	if ds.Rows[0][2] != 0 {
		t.Fatalf("missing key should zero-fill, got %v", ds.Rows[0])
	}
}

func TestFSDatasetStoreSchemaErrors(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "ragged.csv", "a,b\n1,2\n3\n")
	writeDataset(t, dir, "text.csv", "a,b\n1,oops\n")
	writeDataset(t, dir, "empty.json", "[]")

	s := NewFSDatasetStore(dir, nil, 0)
	for _, id := range []string{"ragged", "text", "empty"} {
		if _, err := s.Load(context.Background(), id); !errors.Is(err, repository.ErrSchema) {
			t.Fatalf("%s: expected ErrSchema, got %v", id, err)
		}
	}
}

func TestFSDatasetStoreNotFoundAndTraversal(t *testing.T) {
	s := NewFSDatasetStore(t.TempDir(), nil, 0)

	if _, err := s.Load(context.Background(), "missing"); !errors.Is(err, repository.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	for _, id := range []string{"../etc/passwd", "a/b", ".", ""} {
		if _, err := s.Load(context.Background(), id); !errors.Is(err, repository.ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", id, err)
		}
	}
}

func TestFSDatasetStoreCacheSkipsReparse(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "ds.csv", "a\n1\n")

	c := cache.NewMemoryCache()
	defer c.Close()
	s := NewFSDatasetStore(dir, c, time.Minute)

	first, err := s.Load(context.Background(), "ds")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Remove the file; a second load must be served from cache.
	if err := os.Remove(filepath.Join(dir, "ds.csv")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := s.Load(context.Background(), "ds")
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if second != first {
		t.Fatalf("expected cached dataset instance")
	}
}

func TestFSModelStoreSaveThenCacheLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSModelStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	art := &registry.Artifact{
		Kind:      registry.KindFallback,
		CreatedAt: time.Now().UTC(),
		JobID:     "job-1",
	}
	path, err := store.Save(context.Background(), "model_job-1", art)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "model_job-1.json" {
		t.Fatalf("unexpected path %s", path)
	}

	files, err := store.List()
	if err != nil || len(files) != 1 {
		t.Fatalf("list: %v %v", files, err)
	}

	// No temp files left behind.
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}

	// The saved artifact must be loadable by the registry cache.
	cch := registry.NewCache(dir, testLogger(t))
	if err := cch.LoadAll(); err != nil {
		t.Fatalf("load all: %v", err)
	}
	loaded, err := cch.Resolve("model_job-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loaded.Kind != registry.KindFallback || loaded.JobID != "job-1" {
		t.Fatalf("loaded artifact mismatch: %+v", loaded)
	}
}
