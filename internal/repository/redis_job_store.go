package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
)

// RedisJobStore persists training jobs in Redis so job state survives
// restarts and can be shared between instances. Each job is a JSON
// value; a sorted set indexed by creation time drives listings.
type RedisJobStore struct {
	client *redis.Client
	prefix string
}

func NewRedisJobStore(client *redis.Client, prefix string) *RedisJobStore {
	if prefix == "" {
		prefix = "fraudsight"
	}
	return &RedisJobStore{client: client, prefix: prefix}
}

func (s *RedisJobStore) jobKey(jobID string) string {
	return fmt.Sprintf("%s:job:%s", s.prefix, jobID)
}

func (s *RedisJobStore) indexKey() string {
	return s.prefix + ":jobs"
}

func (s *RedisJobStore) Create(ctx context.Context, job *models.TrainingJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.jobKey(job.JobID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: job %s already exists", repository.ErrInvalidInput, job.JobID)
	}

	return s.client.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(job.CreatedAt.UnixNano()),
		Member: job.JobID,
	}).Err()
}

func (s *RedisJobStore) Update(ctx context.Context, job *models.TrainingJob) error {
	exists, err := s.client.Exists(ctx, s.jobKey(job.JobID)).Result()
	if err != nil {
		return fmt.Errorf("redis exists: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", repository.ErrJobNotFound, job.JobID)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return s.client.Set(ctx, s.jobKey(job.JobID), data, 0).Err()
}

func (s *RedisJobStore) Get(ctx context.Context, jobID string) (*models.TrainingJob, error) {
	data, err := s.client.Get(ctx, s.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", repository.ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var job models.TrainingJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// List walks the index newest-first and applies the filter in memory.
// Job volumes are small (one entry per training run) so a full scan is
// acceptable.
func (s *RedisJobStore) List(ctx context.Context, f repository.JobFilter) ([]*models.TrainingJob, int64, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis zrevrange: %w", err)
	}

	matched := make([]*models.TrainingJob, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrJobNotFound) {
				continue
			}
			return nil, 0, err
		}
		if f.Status != "" && job.Status != f.Status {
			continue
		}
		if f.DatasetID != "" && job.DatasetID != f.DatasetID {
			continue
		}
		matched = append(matched, job)
	}

	total := int64(len(matched))
	page := paginate(len(matched), f.Offset, f.Limit)
	out := make([]*models.TrainingJob, 0, len(page))
	for _, i := range page {
		out = append(out, matched[i])
	}
	return out, total, nil
}
