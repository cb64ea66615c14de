package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
)

// MemoryJobStore keeps training jobs in process memory. The default
// backend for single-instance deployments and tests.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.TrainingJob
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]models.TrainingJob)}
}

func (s *MemoryJobStore) Create(_ context.Context, job *models.TrainingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; ok {
		return fmt.Errorf("%w: job %s already exists", repository.ErrInvalidInput, job.JobID)
	}
	s.jobs[job.JobID] = *job
	return nil
}

func (s *MemoryJobStore) Update(_ context.Context, job *models.TrainingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; !ok {
		return fmt.Errorf("%w: %s", repository.ErrJobNotFound, job.JobID)
	}
	s.jobs[job.JobID] = *job
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, jobID string) (*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrJobNotFound, jobID)
	}
	out := job
	return &out, nil
}

func (s *MemoryJobStore) List(_ context.Context, f repository.JobFilter) ([]*models.TrainingJob, int64, error) {
	s.mu.RLock()
	matched := make([]models.TrainingJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if f.Status != "" && job.Status != f.Status {
			continue
		}
		if f.DatasetID != "" && job.DatasetID != f.DatasetID {
			continue
		}
		matched = append(matched, job)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(a, b int) bool {
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(len(matched), f.Offset, f.Limit)
	out := make([]*models.TrainingJob, 0, len(page))
	for _, i := range page {
		job := matched[i]
		out = append(out, &job)
	}
	return out, total, nil
}

// MemoryRegistryStore keeps registry entries in process memory and
// enforces the single-production invariant under its lock.
type MemoryRegistryStore struct {
	mu      sync.RWMutex
	entries map[string]models.RegistryEntry
}

func NewMemoryRegistryStore() *MemoryRegistryStore {
	return &MemoryRegistryStore{entries: make(map[string]models.RegistryEntry)}
}

func (s *MemoryRegistryStore) Create(_ context.Context, entry *models.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ModelID]; ok {
		return fmt.Errorf("%w: entry %s already exists", repository.ErrInvalidInput, entry.ModelID)
	}
	s.entries[entry.ModelID] = *entry
	return nil
}

func (s *MemoryRegistryStore) Get(_ context.Context, modelID string) (*models.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrEntryNotFound, modelID)
	}
	out := entry
	return &out, nil
}

func (s *MemoryRegistryStore) List(_ context.Context, f repository.EntryFilter) ([]*models.RegistryEntry, int64, error) {
	s.mu.RLock()
	matched := make([]models.RegistryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if f.Status != "" && entry.Status != f.Status {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(a, b int) bool {
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	total := int64(len(matched))
	page := paginate(len(matched), f.Offset, f.Limit)
	out := make([]*models.RegistryEntry, 0, len(page))
	for _, i := range page {
		entry := matched[i]
		out = append(out, &entry)
	}
	return out, total, nil
}

// Deploy demotes every production entry, then promotes one. The whole
// transition happens under a single lock so readers never observe two
// production models.
func (s *MemoryRegistryStore) Deploy(_ context.Context, modelID string, config map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.entries[modelID]
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrEntryNotFound, modelID)
	}

	now := time.Now()
	for id, entry := range s.entries {
		if entry.IsProduction {
			entry.IsProduction = false
			entry.Status = models.EntryReady
			entry.UpdatedAt = now
			s.entries[id] = entry
		}
	}

	target.IsProduction = true
	target.Status = models.EntryDeployed
	target.DeployedAt = &now
	target.DeploymentConfig = config
	target.UpdatedAt = now
	s.entries[modelID] = target
	return nil
}

// paginate returns the indexes of the requested page.
func paginate(n, offset, limit int) []int {
	if offset < 0 {
		offset = 0
	}
	if offset >= n {
		return nil
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	idx := make([]int, 0, end-offset)
	for i := offset; i < end; i++ {
		idx = append(idx, i)
	}
	return idx
}
