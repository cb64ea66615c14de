package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
)

func seedJobs(t *testing.T, s *MemoryJobStore, n int) []*models.TrainingJob {
	t.Helper()
	jobs := make([]*models.TrainingJob, n)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		job := &models.TrainingJob{
			JobID:     fmt.Sprintf("job-%02d", i),
			DatasetID: fmt.Sprintf("ds-%d", i%2),
			Name:      "retrain",
			Status:    models.JobQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Create(context.Background(), job); err != nil {
			t.Fatalf("create: %v", err)
		}
		jobs[i] = job
	}
	return jobs
}

func TestMemoryJobStoreCRUD(t *testing.T) {
	s := NewMemoryJobStore()
	job := &models.TrainingJob{JobID: "j1", Status: models.JobQueued, CreatedAt: time.Now()}

	if err := s.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(context.Background(), job); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("duplicate create: %v", err)
	}

	job.Status = models.JobRunning
	if err := s.Update(context.Background(), job); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(context.Background(), "j1")
	if err != nil || got.Status != models.JobRunning {
		t.Fatalf("get: %v %+v", err, got)
	}

	// Returned records are copies; mutating them must not affect the store.
	got.Status = models.JobFailed
	again, _ := s.Get(context.Background(), "j1")
	if again.Status != models.JobRunning {
		t.Fatalf("store leaked internal state")
	}

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := s.Update(context.Background(), &models.TrainingJob{JobID: "missing"}); !errors.Is(err, repository.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryJobStoreListFilterAndPage(t *testing.T) {
	s := NewMemoryJobStore()
	seedJobs(t, s, 10)

	jobs, total, err := s.List(context.Background(), repository.JobFilter{DatasetID: "ds-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(jobs) != 5 {
		t.Fatalf("dataset filter: total=%d len=%d", total, len(jobs))
	}

	jobs, total, err = s.List(context.Background(), repository.JobFilter{Limit: 3, Offset: 8})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 10 || len(jobs) != 2 {
		t.Fatalf("pagination: total=%d len=%d", total, len(jobs))
	}

	// Newest first.
	jobs, _, err = s.List(context.Background(), repository.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if jobs[0].JobID != "job-09" {
		t.Fatalf("expected newest job first, got %s", jobs[0].JobID)
	}

	jobs, total, err = s.List(context.Background(), repository.JobFilter{Status: models.JobCompleted})
	if err != nil || total != 0 || len(jobs) != 0 {
		t.Fatalf("status filter: total=%d err=%v", total, err)
	}
}

func TestMemoryRegistryStoreDeploy(t *testing.T) {
	s := NewMemoryRegistryStore()
	for i := 0; i < 3; i++ {
		entry := &models.RegistryEntry{
			ModelID:   fmt.Sprintf("m%d", i),
			Version:   fmt.Sprintf("model_%d", i),
			Status:    models.EntryReady,
			CreatedAt: time.Now(),
		}
		if err := s.Create(context.Background(), entry); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := s.Deploy(context.Background(), "m0", nil); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := s.Deploy(context.Background(), "m2", map[string]interface{}{"traffic": 50}); err != nil {
		t.Fatalf("deploy: %v", err)
	}

	entries, _, err := s.List(context.Background(), repository.EntryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	production := 0
	for _, e := range entries {
		if e.IsProduction {
			production++
			if e.ModelID != "m2" {
				t.Fatalf("wrong production entry: %s", e.ModelID)
			}
		}
	}
	if production != 1 {
		t.Fatalf("expected one production entry, got %d", production)
	}

	demoted, _ := s.Get(context.Background(), "m0")
	if demoted.IsProduction || demoted.Status != models.EntryReady {
		t.Fatalf("previous production entry not demoted: %+v", demoted)
	}

	if err := s.Deploy(context.Background(), "missing", nil); !errors.Is(err, repository.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestMemoryRegistryStoreStatusFilter(t *testing.T) {
	s := NewMemoryRegistryStore()
	_ = s.Create(context.Background(), &models.RegistryEntry{ModelID: "a", Status: models.EntryReady, CreatedAt: time.Now()})
	_ = s.Create(context.Background(), &models.RegistryEntry{ModelID: "b", Status: models.EntryReady, CreatedAt: time.Now()})
	_ = s.Deploy(context.Background(), "b", nil)

	entries, total, err := s.List(context.Background(), repository.EntryFilter{Status: models.EntryDeployed})
	if err != nil || total != 1 || entries[0].ModelID != "b" {
		t.Fatalf("status filter failed: total=%d err=%v", total, err)
	}
}
