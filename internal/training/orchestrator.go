package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
	"FraudSight/internal/gbdt"
	"FraudSight/internal/registry"
	"FraudSight/pkg/logger"
)

const (
	progressBuffer = 16
	publishTimeout = 5 * time.Second
	progressStride = 10
	minDataInLeaf  = 20
)

// ArtifactStore persists trained model artifacts. Save returns the
// path the artifact was written to.
type ArtifactStore interface {
	Save(ctx context.Context, version string, art *registry.Artifact) (string, error)
}

// runHandle tracks one in-flight job run.
type runHandle struct {
	cancel chan struct{}
	once   sync.Once
}

func (h *runHandle) stop() {
	h.once.Do(func() { close(h.cancel) })
}

// Orchestrator owns the training job state machine: one background
// task per job_id moves it queued → running → terminal while progress
// flows through a channel to a persister goroutine and to any
// subscribed watchers.
type Orchestrator struct {
	jobs      repository.JobStore
	entries   repository.RegistryStore
	datasets  repository.DatasetStore
	artifacts ArtifactStore
	cache     *registry.Cache
	events    repository.EventPublisher
	metrics   repository.Metrics
	logger    *logger.Logger
	now       func() time.Time

	running sync.Map // job_id -> *runHandle
	wg      sync.WaitGroup

	subMu sync.Mutex
	subs  map[string]map[chan models.ProgressUpdate]bool
}

func NewOrchestrator(
	jobs repository.JobStore,
	entries repository.RegistryStore,
	datasets repository.DatasetStore,
	artifacts ArtifactStore,
	cache *registry.Cache,
	events repository.EventPublisher,
	metrics repository.Metrics,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:      jobs,
		entries:   entries,
		datasets:  datasets,
		artifacts: artifacts,
		cache:     cache,
		events:    events,
		metrics:   metrics,
		logger:    log,
		now:       time.Now,
		subs:      make(map[string]map[chan models.ProgressUpdate]bool),
	}
}

// Submit validates the request, persists a queued job and dispatches
// its background run. Returns immediately with the queued record.
func (o *Orchestrator) Submit(ctx context.Context, req *models.TrainingJobRequest) (*models.TrainingJob, error) {
	cfg, err := ResolveConfig(req)
	if err != nil {
		return nil, err
	}

	now := o.now()
	job := &models.TrainingJob{
		JobID:         uuid.NewString(),
		DatasetID:     req.DatasetID,
		Name:          req.Name,
		Description:   req.Description,
		Config:        cfg,
		Status:        models.JobQueued,
		Progress:      0,
		StatusMessage: "queued",
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	o.metrics.RecordJobTransition(models.JobQueued)
	o.publish(job, "")

	// The handle is registered before the run starts so Cancel always
	// has something to signal.
	handle := &runHandle{cancel: make(chan struct{})}
	o.running.Store(job.JobID, handle)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(job.JobID, handle)
	}()

	o.logger.Info("training job submitted",
		logger.String("job_id", job.JobID),
		logger.String("dataset_id", job.DatasetID),
		logger.String("preset", cfg.Preset))
	return job, nil
}

// Status returns the current job record.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*models.TrainingJob, error) {
	return o.jobs.Get(ctx, jobID)
}

// List returns jobs matching the filter plus the total match count.
func (o *Orchestrator) List(ctx context.Context, f repository.JobFilter) ([]*models.TrainingJob, int64, error) {
	return o.jobs.List(ctx, f)
}

// Models lists registry entries.
func (o *Orchestrator) Models(ctx context.Context, f repository.EntryFilter) ([]*models.RegistryEntry, int64, error) {
	return o.entries.List(ctx, f)
}

// Cancel requests cooperative cancellation. Only queued or running
// jobs can be cancelled; terminal jobs return ErrJobTerminal.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", repository.ErrJobTerminal, jobID, job.Status)
	}

	if h, ok := o.running.Load(jobID); ok {
		h.(*runHandle).stop()
		return nil
	}

	// No live run (e.g. after a restart): finalize the record directly.
	job.Status = models.JobCancelled
	job.StatusMessage = "cancelled by user"
	job.UpdatedAt = o.now()
	if err := o.jobs.Update(ctx, job); err != nil {
		return err
	}
	o.metrics.RecordJobTransition(models.JobCancelled)
	o.publish(job, "")
	return nil
}

// Deploy promotes a registered model to production. The registry store
// enforces the single-production invariant; the model cache is then
// refreshed so scoring picks the artifact up immediately.
func (o *Orchestrator) Deploy(ctx context.Context, modelID string, config map[string]interface{}) error {
	entry, err := o.entries.Get(ctx, modelID)
	if err != nil {
		return err
	}
	if err := o.entries.Deploy(ctx, modelID, config); err != nil {
		return err
	}

	if report := o.cache.Reload(entry.Version); !report.Success {
		o.logger.Warn("deployed model could not be loaded into the cache",
			logger.String("model_id", modelID),
			logger.String("version", entry.Version),
			logger.String("message", report.Message))
	}

	o.publishEvent(models.JobEvent{
		JobID:     entry.TrainingJobID,
		Status:    models.JobDeployed,
		ModelID:   modelID,
		Timestamp: o.now(),
	})
	o.logger.Info("model deployed",
		logger.String("model_id", modelID),
		logger.String("version", entry.Version))
	return nil
}

// Subscribe registers a watcher for a job's progress stream. The
// returned cancel function must be called when the watcher goes away;
// the channel is closed when the job reaches a terminal state.
func (o *Orchestrator) Subscribe(jobID string) (<-chan models.ProgressUpdate, func()) {
	ch := make(chan models.ProgressUpdate, progressBuffer)

	o.subMu.Lock()
	if o.subs[jobID] == nil {
		o.subs[jobID] = make(map[chan models.ProgressUpdate]bool)
	}
	o.subs[jobID][ch] = true
	o.subMu.Unlock()

	return ch, func() {
		o.subMu.Lock()
		if set, ok := o.subs[jobID]; ok && set[ch] {
			delete(set, ch)
			close(ch)
		}
		o.subMu.Unlock()
	}
}

// Shutdown waits for in-flight runs to finish or the context to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes one training job end to end.
func (o *Orchestrator) run(jobID string, handle *runHandle) {
	defer o.running.Delete(jobID)

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go func() {
		select {
		case <-handle.cancel:
			cancelRun()
		case <-ctx.Done():
		}
	}()

	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		o.logger.Error("run could not load its job", logger.String("job_id", jobID), logger.Error(err))
		return
	}
	if job.Status != models.JobQueued {
		return
	}

	job.Status = models.JobRunning
	job.StatusMessage = "starting"
	job.UpdatedAt = o.now()
	if err := o.jobs.Update(ctx, job); err != nil {
		o.logger.Error("could not mark job running", logger.String("job_id", jobID), logger.Error(err))
		return
	}
	o.metrics.RecordJobTransition(models.JobRunning)
	o.publish(job, "")

	updates := make(chan models.ProgressUpdate, progressBuffer)
	persisterDone := make(chan struct{})
	go o.persistProgress(jobID, updates, persisterDone)

	metrics, modelPath, runErr := o.train(ctx, job, updates)
	close(updates)
	<-persisterDone

	// Re-read so the final write sees the last persisted progress.
	final, err := o.jobs.Get(context.Background(), jobID)
	if err != nil {
		final = job
	}

	switch {
	case runErr == nil:
		final.Status = models.JobCompleted
		final.Progress = 100
		final.StatusMessage = "completed"
		final.Metrics = metrics
		final.ModelPath = modelPath
	case errors.Is(runErr, context.Canceled):
		final.Status = models.JobCancelled
		final.StatusMessage = "cancelled by user"
	default:
		final.Status = models.JobFailed
		final.StatusMessage = runErr.Error()
		o.metrics.RecordError("training")
		o.logger.Error("training job failed",
			logger.String("job_id", jobID),
			logger.Error(runErr))
	}
	final.UpdatedAt = o.now()

	if err := o.jobs.Update(context.Background(), final); err != nil {
		o.logger.Error("could not finalize job", logger.String("job_id", jobID), logger.Error(err))
	}
	o.metrics.RecordJobTransition(final.Status)
	o.publish(final, "")
	o.notify(models.ProgressUpdate{JobID: jobID, Progress: final.Progress, Message: final.StatusMessage})
	o.closeSubscribers(jobID)
}

// train runs the pipeline: prepare, split, boost, evaluate,
// cross-validate, persist, register. Returns the combined metrics and
// the artifact path. A panic anywhere in the pipeline is converted to
// an error so one bad job cannot take the service down.
func (o *Orchestrator) train(ctx context.Context, job *models.TrainingJob, updates chan<- models.ProgressUpdate) (metrics *models.TrainingMetrics, modelPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics, modelPath = nil, ""
			err = fmt.Errorf("training pipeline panicked: %v", r)
		}
	}()

	report := func(progress int, message string) {
		updates <- models.ProgressUpdate{JobID: job.JobID, Progress: progress, Message: message}
	}

	report(10, "preparing dataset")
	ds, err := o.datasets.Load(ctx, job.DatasetID)
	if err != nil {
		return nil, "", err
	}
	X, y, err := BuildMatrix(ds)
	if err != nil {
		return nil, "", err
	}

	report(20, "splitting data")
	trainX, trainY, testX, testY := StratifiedSplit(X, y, job.Config.TestSize, job.Config.RandomState)
	if len(trainX) == 0 || len(testX) == 0 {
		return nil, "", fmt.Errorf("%w: dataset too small to split", repository.ErrSchema)
	}

	params := boostParams(job.Config)
	params.MinDataInLeaf = minDataInLeaf
	rounds := params.NumBoostRound

	model, err := gbdt.Train(ctx, trainX, trainY, testX, testY, params, func(iter int) {
		if iter%progressStride != 0 && iter != rounds {
			return
		}
		progress := 30 + iter*50/rounds
		if progress > 80 {
			progress = 80
		}
		report(progress, fmt.Sprintf("boosting iteration %d/%d", iter, rounds))
	})
	if err != nil {
		return nil, "", err
	}

	report(80, "evaluating model")
	probs := make([]float64, len(testY))
	for i, x := range testX {
		probs[i] = model.PredictProba(x)
	}
	evaluation := Evaluate(testY, probs)

	report(90, "cross-validating")
	cv, err := crossValidate(ctx, X, y, params, job.Config.CVFolds)
	if err != nil {
		return nil, "", err
	}

	report(95, "persisting artifact")
	version := "model_" + job.JobID
	artifact := &registry.Artifact{
		Kind:         registry.KindGBDT,
		Model:        model,
		Config:       &job.Config,
		FeatureNames: models.FeatureNames(),
		CreatedAt:    o.now().UTC(),
		JobID:        job.JobID,
		Metadata: map[string]interface{}{
			"name":       job.Name,
			"dataset_id": job.DatasetID,
		},
		Version: version,
	}
	modelPath, err = o.artifacts.Save(ctx, version, artifact)
	if err != nil {
		return nil, "", err
	}
	artifact.FilePath = modelPath
	o.cache.Install(artifact)

	metrics = &models.TrainingMetrics{
		BestIteration:     model.BestIteration,
		BestScore:         model.BestScore,
		Hyperparameters:   job.Config.Hyperparameters,
		Evaluation:        evaluation,
		CVResults:         cv,
		FeatureImportance: rankedImportances(model),
	}

	now := o.now()
	entry := &models.RegistryEntry{
		ModelID:       uuid.NewString(),
		Name:          job.Name,
		Version:       version,
		TrainingJobID: job.JobID,
		ModelPath:     modelPath,
		Metrics:       metrics,
		Status:        models.EntryReady,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.entries.Create(ctx, entry); err != nil {
		return nil, "", err
	}

	return metrics, modelPath, nil
}

// crossValidate scores k stratified folds drawn over the complete
// dataset. Each fold model trains on the complement of its fold and is
// scored on the held-out rows only.
func crossValidate(ctx context.Context, X [][]float64, y []float64, params gbdt.Params, folds int) (models.CVResults, error) {
	sets := stratifiedFolds(y, folds, params.Seed)
	scores := make([]float64, 0, folds)

	for _, fold := range sets {
		if len(fold) == 0 {
			continue
		}
		held := make([]bool, len(y))
		for _, row := range fold {
			held[row] = true
		}
		trainX := make([][]float64, 0, len(y)-len(fold))
		trainY := make([]float64, 0, len(y)-len(fold))
		for i := range y {
			if !held[i] {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}

		m, err := gbdt.Train(ctx, trainX, trainY, nil, nil, params, nil)
		if err != nil {
			return models.CVResults{}, err
		}
		labels := make([]float64, len(fold))
		probs := make([]float64, len(fold))
		for i, row := range fold {
			labels[i] = y[row]
			probs[i] = m.PredictProba(X[row])
		}
		scores = append(scores, gbdt.AUC(labels, probs))
	}
	return cvStats(scores), nil
}

// persistProgress applies progress observations to the job record,
// collapsing any backlog to the newest one.
func (o *Orchestrator) persistProgress(jobID string, updates <-chan models.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range updates {
	collapse:
		for {
			select {
			case next, ok := <-updates:
				if !ok {
					break collapse
				}
				u = next
			default:
				break collapse
			}
		}
		o.applyProgress(u)
	}
}

func (o *Orchestrator) applyProgress(u models.ProgressUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	job, err := o.jobs.Get(ctx, u.JobID)
	if err != nil || job.Status.Terminal() {
		return
	}
	job.Progress = u.Progress
	job.StatusMessage = u.Message
	job.UpdatedAt = o.now()
	if err := o.jobs.Update(ctx, job); err != nil {
		o.logger.Warn("progress write failed", logger.String("job_id", u.JobID), logger.Error(err))
		return
	}
	o.metrics.RecordJobProgress(u.JobID, u.Progress)
	o.notify(u)
}

// notify fans a progress update out to subscribers without blocking a
// slow watcher.
func (o *Orchestrator) notify(u models.ProgressUpdate) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for ch := range o.subs[u.JobID] {
		select {
		case ch <- u:
		default:
		}
	}
}

func (o *Orchestrator) closeSubscribers(jobID string) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for ch := range o.subs[jobID] {
		close(ch)
	}
	delete(o.subs, jobID)
}

func (o *Orchestrator) publish(job *models.TrainingJob, modelID string) {
	o.publishEvent(models.JobEvent{
		JobID:     job.JobID,
		DatasetID: job.DatasetID,
		Status:    job.Status,
		Message:   job.StatusMessage,
		ModelID:   modelID,
		Timestamp: o.now(),
	})
}

func (o *Orchestrator) publishEvent(event models.JobEvent) {
	if o.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := o.events.Publish(ctx, event); err != nil {
		o.metrics.RecordError("event_publish")
		o.logger.Warn("job event publish failed",
			logger.String("job_id", event.JobID),
			logger.Error(err))
	}
}

// rankedImportances normalizes gain importances to shares and ranks
// them descending.
func rankedImportances(model *gbdt.Model) []models.ImportanceEntry {
	names := models.FeatureNames()
	var total float64
	for _, g := range model.Importances {
		total += g
	}

	entries := make([]models.ImportanceEntry, 0, len(model.Importances))
	for i, g := range model.Importances {
		if i >= len(names) {
			break
		}
		share := 0.0
		if total > 0 {
			share = g / total
		}
		entries = append(entries, models.ImportanceEntry{FeatureName: names[i], Importance: share})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Importance > entries[b].Importance })
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
