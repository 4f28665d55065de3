package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// BatchJobType is the queue job type for department regeneration.
const BatchJobType = "timetable.batch"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type sectionGenerator interface {
	GenerateAndSave(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, *dto.TimetableProposal, error)
}

// TimetableBatchServiceConfig mirrors the queue retry budget so the final attempt can be
// recognised.
type TimetableBatchServiceConfig struct {
	MaxRetries int
}

// TimetableBatchService regenerates several sections of a department year in the background.
// Sections run in request order so each one sees the timetables saved before it.
type TimetableBatchService struct {
	generator sectionGenerator
	queue     jobDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableBatchServiceConfig

	mu   sync.RWMutex
	jobs map[string]*dto.BatchJobStatus
}

// NewTimetableBatchService constructs the batch service. A queue must be attached with
// UseQueue before jobs can be enqueued.
func NewTimetableBatchService(generator sectionGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TimetableBatchServiceConfig) *TimetableBatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &TimetableBatchService{
		generator: generator,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		jobs:      make(map[string]*dto.BatchJobStatus),
	}
}

// UseQueue attaches the dispatcher whose handler is Handle.
func (s *TimetableBatchService) UseQueue(queue jobDispatcher) {
	s.queue = queue
}

// Enqueue registers a batch job and hands it to the queue.
func (s *TimetableBatchService) Enqueue(_ context.Context, req dto.BatchGenerateRequest) (*dto.BatchJobStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid batch generation payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceDisabled, "batch generation is disabled")
	}

	status := &dto.BatchJobStatus{
		ID:           uuid.NewString(),
		DepartmentID: req.DepartmentID,
		Year:         req.Year,
		Sections:     append([]string{}, req.Sections...),
		State:        dto.BatchJobQueued,
		Completed:    []string{},
		Failed:       map[string]string{},
		Conflicts:    map[string]int{},
		CreatedAt:    time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[status.ID] = status
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: status.ID, Type: BatchJobType, Payload: req}); err != nil {
		s.mu.Lock()
		delete(s.jobs, status.ID)
		s.mu.Unlock()
		return nil, appErrors.Internal(err, "failed to enqueue batch job")
	}
	return s.snapshot(status), nil
}

// Status reports progress of a batch job.
func (s *TimetableBatchService) Status(_ context.Context, id string) (*dto.BatchJobStatus, error) {
	s.mu.RLock()
	status, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "batch job not found")
	}
	return s.snapshot(status), nil
}

// Handle processes one attempt of a batch job. Sections completed by earlier attempts are
// skipped; any failure is returned so the queue retries the remainder.
func (s *TimetableBatchService) Handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.BatchGenerateRequest)
	if !ok {
		s.logger.Error("unexpected batch payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	s.update(job.ID, func(status *dto.BatchJobStatus) { status.State = dto.BatchJobRunning })

	var firstErr error
	for _, section := range req.Sections {
		if s.isCompleted(job.ID, section) {
			continue
		}
		_, proposal, err := s.generator.GenerateAndSave(ctx, dto.GenerateTimetableRequest{
			DepartmentID: req.DepartmentID,
			Year:         req.Year,
			Section:      section,
		})
		if err != nil {
			s.logger.Warn("batch section failed",
				zap.String("job_id", job.ID), zap.String("section", section), zap.Int("attempt", job.Attempt), zap.Error(err))
			s.update(job.ID, func(status *dto.BatchJobStatus) { status.Failed[section] = err.Error() })
			if firstErr == nil {
				firstErr = fmt.Errorf("section %s: %w", section, err)
			}
			continue
		}
		s.update(job.ID, func(status *dto.BatchJobStatus) {
			delete(status.Failed, section)
			status.Completed = append(status.Completed, section)
			if n := len(proposal.Conflicts.Conflicts); n > 0 {
				status.Conflicts[section] = n
			}
		})
	}

	if firstErr == nil {
		s.finish(job.ID, dto.BatchJobCompleted)
		return nil
	}
	if job.Attempt >= s.cfg.MaxRetries {
		s.finish(job.ID, dto.BatchJobFailed)
	}
	return firstErr
}

func (s *TimetableBatchService) finish(id string, state dto.BatchJobState) {
	s.update(id, func(status *dto.BatchJobStatus) {
		finished := time.Now().UTC()
		status.State = state
		status.FinishedAt = &finished
	})
	s.metrics.RecordBatchJob(string(state))
	s.logger.Info("batch job finished", zap.String("job_id", id), zap.String("state", string(state)))
}

func (s *TimetableBatchService) isCompleted(id, section string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.jobs[id]
	if !ok {
		return false
	}
	for _, done := range status.Completed {
		if done == section {
			return true
		}
	}
	return false
}

func (s *TimetableBatchService) update(id string, fn func(status *dto.BatchJobStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.jobs[id]; ok {
		fn(status)
	}
}

func (s *TimetableBatchService) snapshot(status *dto.BatchJobStatus) *dto.BatchJobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := *status
	out.Sections = append([]string{}, status.Sections...)
	out.Completed = append([]string{}, status.Completed...)
	out.Failed = make(map[string]string, len(status.Failed))
	for k, v := range status.Failed {
		out.Failed[k] = v
	}
	out.Conflicts = make(map[string]int, len(status.Conflicts))
	for k, v := range status.Conflicts {
		out.Conflicts[k] = v
	}
	if status.FinishedAt != nil {
		finished := *status.FinishedAt
		out.FinishedAt = &finished
	}
	return &out
}
