package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
	"FraudSight/pkg/logger"
)

// Cache holds every loaded model artifact keyed by version. Reads are
// concurrent; reloads swap the whole map under an exclusive lock so a
// scoring call never observes a half-loaded set.
type Cache struct {
	mu        sync.RWMutex
	dir       string
	artifacts map[string]*Artifact
	logger    *logger.Logger
	now       func() time.Time
}

func NewCache(dir string, log *logger.Logger) *Cache {
	return &Cache{
		dir:       dir,
		artifacts: make(map[string]*Artifact),
		logger:    log,
		now:       time.Now,
	}
}

// LoadAll scans the models directory for *.json artifacts and loads
// them all. A file that fails to parse is logged and skipped, never
// fatal. When nothing loads, a rule-based fallback is registered under
// DefaultVersion so scoring stays available.
func (c *Cache) LoadAll() error {
	loaded := make(map[string]*Artifact)

	paths, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan models dir: %w", err)
	}
	for _, path := range paths {
		art, err := c.loadFile(path)
		if err != nil {
			c.logger.Warn("skipping unreadable model artifact",
				logger.String("path", path),
				logger.Error(err))
			continue
		}
		loaded[art.Version] = art
	}

	if len(loaded) == 0 {
		fb := newFallbackArtifact(c.now())
		loaded[fb.Version] = fb
		c.logger.Warn("no model artifacts found, registered rule-based fallback",
			logger.String("dir", c.dir),
			logger.String("version", fb.Version))
	}

	c.mu.Lock()
	c.artifacts = loaded
	c.mu.Unlock()

	c.logger.Info("model cache loaded",
		logger.Int("models", len(loaded)),
		logger.Strings("versions", keys(loaded)))
	return nil
}

// Resolve returns the artifact for a version. Empty string and
// "latest" resolve to the lexicographically greatest version key; an
// explicit version that is not loaded is ErrModelNotFound.
func (c *Cache) Resolve(version string) (*Artifact, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if version == "" || version == "latest" {
		latest := ""
		for v := range c.artifacts {
			if v > latest {
				latest = v
			}
		}
		if latest == "" {
			return nil, repository.ErrModelNotFound
		}
		return c.artifacts[latest], nil
	}

	art, ok := c.artifacts[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrModelNotFound, version)
	}
	return art, nil
}

// Versions returns the loaded version keys in sorted order.
func (c *Cache) Versions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vs := keys(c.artifacts)
	sort.Strings(vs)
	return vs
}

// Len returns the number of loaded artifacts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.artifacts)
}

// Details exposes per-version metadata for the model info endpoint.
func (c *Cache) Details() map[string]map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]interface{}, len(c.artifacts))
	for v, a := range c.artifacts {
		d := map[string]interface{}{
			"kind":       string(a.Kind),
			"created_at": a.CreatedAt,
			"loaded_at":  a.LoadedAt,
		}
		if a.JobID != "" {
			d["job_id"] = a.JobID
		}
		if a.Kind == KindGBDT && a.Model != nil {
			d["num_trees"] = len(a.Model.Trees)
			d["best_iteration"] = a.Model.BestIteration
		}
		for k, val := range a.Metadata {
			d[k] = val
		}
		out[v] = d
	}
	return out
}

// Install registers a freshly produced artifact under a version key
// without touching disk. The training pipeline calls it right after
// persisting, so a completed model is scoreable without a reload.
func (c *Cache) Install(art *Artifact) {
	art.LoadedAt = c.now()
	c.mu.Lock()
	c.artifacts[art.Version] = art
	c.mu.Unlock()
	c.logger.Info("model installed into cache",
		logger.String("version", art.Version),
		logger.String("kind", string(art.Kind)))
}

// Reload refreshes one version from disk, or every artifact when
// version is empty or "all".
func (c *Cache) Reload(version string) *models.ReloadReport {
	start := c.now()
	report := &models.ReloadReport{
		ReloadedModels: []string{},
		FailedModels:   []string{},
	}

	if version == "" || version == "all" {
		before := c.Versions()
		if err := c.LoadAll(); err != nil {
			report.FailedModels = before
			report.Message = err.Error()
			report.ReloadTimeMS = msSince(start, c.now())
			return report
		}
		report.Success = true
		report.ReloadedModels = c.Versions()
		report.Message = fmt.Sprintf("reloaded %d models", len(report.ReloadedModels))
		report.ReloadTimeMS = msSince(start, c.now())
		return report
	}

	art, err := c.loadFile(filepath.Join(c.dir, version+".json"))
	if err != nil {
		report.FailedModels = append(report.FailedModels, version)
		report.Message = err.Error()
		report.ReloadTimeMS = msSince(start, c.now())
		return report
	}

	c.mu.Lock()
	c.artifacts[art.Version] = art
	c.mu.Unlock()

	report.Success = true
	report.ReloadedModels = append(report.ReloadedModels, art.Version)
	report.Message = fmt.Sprintf("reloaded model %s", art.Version)
	report.ReloadTimeMS = msSince(start, c.now())
	return report
}

// loadFile reads and validates a single artifact. The version key is
// the filename stem.
func (c *Cache) loadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	switch art.Kind {
	case KindGBDT:
		if art.Model == nil || len(art.Model.Trees) == 0 {
			return nil, fmt.Errorf("gbdt artifact has no trees")
		}
	case KindLinear:
		if len(art.Coefficients) != models.FeatureCount {
			return nil, fmt.Errorf("linear artifact has %d coefficients, want %d",
				len(art.Coefficients), models.FeatureCount)
		}
	case KindFallback:
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", art.Kind)
	}

	if len(art.FeatureNames) == 0 {
		art.FeatureNames = models.FeatureNames()
	}

	base := filepath.Base(path)
	art.Version = strings.TrimSuffix(base, filepath.Ext(base))
	art.FilePath = path
	art.LoadedAt = c.now()
	return &art, nil
}

func keys(m map[string]*Artifact) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

func msSince(start, end time.Time) float64 {
	return float64(end.Sub(start)) / float64(time.Millisecond)
}
