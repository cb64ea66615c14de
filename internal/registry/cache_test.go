package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
	"FraudSight/internal/gbdt"
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

func writeArtifact(t *testing.T, dir, version string, art Artifact) string {
	t.Helper()
	data, err := json.Marshal(art)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(dir, version+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func gbdtArtifact(jobID string) Artifact {
	return Artifact{
		Kind: KindGBDT,
		Model: &gbdt.Model{
			Trees:         []gbdt.Tree{{Nodes: []gbdt.Node{{Feature: -1, Value: 0.1}}}},
			BestIteration: 1,
			NumFeatures:   models.FeatureCount,
			Importances:   make([]float64, models.FeatureCount),
		},
		FeatureNames: models.FeatureNames(),
		CreatedAt:    time.Now().UTC(),
		JobID:        jobID,
	}
}

func TestLoadAllRegistersFallbackWhenEmpty(t *testing.T) {
	cache := NewCache(t.TempDir(), testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}
	art, err := cache.Resolve("")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if art.Kind != KindFallback || art.Version != DefaultVersion {
		t.Fatalf("expected fallback %s, got %s/%s", DefaultVersion, art.Kind, art.Version)
	}
}

func TestLoadAllSkipsCorruptArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "model_aaa", gbdtArtifact("aaa"))
	if err := os.WriteFile(filepath.Join(dir, "model_bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cache := NewCache(dir, testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cache.Versions(); len(got) != 1 || got[0] != "model_aaa" {
		t.Fatalf("expected only model_aaa, got %v", got)
	}
}

func TestResolveLatestIsLexicographicMax(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "model_aaa", gbdtArtifact("aaa"))
	writeArtifact(t, dir, "model_zzz", gbdtArtifact("zzz"))
	writeArtifact(t, dir, "model_mmm", gbdtArtifact("mmm"))

	cache := NewCache(dir, testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, v := range []string{"", "latest"} {
		art, err := cache.Resolve(v)
		if err != nil {
			t.Fatalf("resolve %q: %v", v, err)
		}
		if art.Version != "model_zzz" {
			t.Fatalf("resolve %q: expected model_zzz, got %s", v, art.Version)
		}
	}
}

func TestResolveLatestIsNotSemverAware(t *testing.T) {
	// String-max resolution: "v1.10.0" sorts below "v1.2.0" and
	// "v1.9.0", so a double-digit patch release is never "latest".
	dir := t.TempDir()
	writeArtifact(t, dir, "v1.2.0", gbdtArtifact("a"))
	writeArtifact(t, dir, "v1.9.0", gbdtArtifact("b"))
	writeArtifact(t, dir, "v1.10.0", gbdtArtifact("c"))

	cache := NewCache(dir, testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}

	art, err := cache.Resolve("latest")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if art.Version != "v1.9.0" {
		t.Fatalf("expected v1.9.0 as string max, got %s", art.Version)
	}
}

func TestResolveUnknownVersion(t *testing.T) {
	cache := NewCache(t.TempDir(), testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cache.Resolve("model_missing"); !errors.Is(err, repository.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestReloadSingleVersion(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "model_aaa", gbdtArtifact("aaa"))

	cache := NewCache(dir, testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}

	// A new artifact appears on disk after the initial load.
	writeArtifact(t, dir, "model_bbb", gbdtArtifact("bbb"))

	report := cache.Reload("model_bbb")
	if !report.Success {
		t.Fatalf("reload failed: %s", report.Message)
	}
	if len(report.ReloadedModels) != 1 || report.ReloadedModels[0] != "model_bbb" {
		t.Fatalf("unexpected reloaded set: %v", report.ReloadedModels)
	}
	if _, err := cache.Resolve("model_bbb"); err != nil {
		t.Fatalf("resolve after reload: %v", err)
	}
}

func TestReloadMissingVersionReportsFailure(t *testing.T) {
	cache := NewCache(t.TempDir(), testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}
	report := cache.Reload("model_missing")
	if report.Success {
		t.Fatalf("expected failed reload")
	}
	if len(report.FailedModels) != 1 || report.FailedModels[0] != "model_missing" {
		t.Fatalf("unexpected failed set: %v", report.FailedModels)
	}
}

func TestInstallMakesVersionResolvable(t *testing.T) {
	cache := NewCache(t.TempDir(), testLogger(t))
	if err := cache.LoadAll(); err != nil {
		t.Fatalf("load: %v", err)
	}

	art := gbdtArtifact("ccc")
	art.Version = "model_ccc"
	cache.Install(&art)

	got, err := cache.Resolve("model_ccc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.JobID != "ccc" {
		t.Fatalf("unexpected artifact: %+v", got)
	}
}

func TestArtifactImportancesByKind(t *testing.T) {
	lin := Artifact{Kind: KindLinear, Coefficients: []float64{-2, 1, 0}}
	got := lin.Importances()
	if got[0] != 2 || got[1] != 1 || got[2] != 0 {
		t.Fatalf("expected absolute coefficients, got %v", got)
	}

	fb := Artifact{Kind: KindFallback}
	if len(fb.Importances()) != models.FeatureCount {
		t.Fatalf("fallback importances should cover every feature")
	}
}
