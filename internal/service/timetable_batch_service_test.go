package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type fakeSectionGenerator struct {
	mu        sync.Mutex
	calls     []string
	failures  map[string]int
	conflicts map[string][]string
}

func (f *fakeSectionGenerator) GenerateAndSave(_ context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, *dto.TimetableProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Section)
	if f.failures[req.Section] > 0 {
		f.failures[req.Section]--
		return nil, nil, errors.New("database unavailable")
	}
	proposal := &dto.TimetableProposal{Section: req.Section}
	proposal.Conflicts.Conflicts = f.conflicts[req.Section]
	return &models.Timetable{Section: req.Section}, proposal, nil
}

type recordingDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (d *recordingDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func batchRequest(sections ...string) dto.BatchGenerateRequest {
	return dto.BatchGenerateRequest{DepartmentID: "cse", Year: "III", Sections: sections}
}

func TestTimetableBatchServiceEnqueue(t *testing.T) {
	svc := NewTimetableBatchService(&fakeSectionGenerator{}, nil, nil, zap.NewNop(), TimetableBatchServiceConfig{})

	_, err := svc.Enqueue(context.Background(), batchRequest("A"))
	assert.Equal(t, appErrors.ErrServiceDisabled.Code, appErrors.FromError(err).Code)

	dispatcher := &recordingDispatcher{}
	svc.UseQueue(dispatcher)

	_, err = svc.Enqueue(context.Background(), batchRequest())
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	status, err := svc.Enqueue(context.Background(), batchRequest("A", "B"))
	require.NoError(t, err)
	assert.Equal(t, dto.BatchJobQueued, status.State)
	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, status.ID, dispatcher.jobs[0].ID)
	assert.Equal(t, BatchJobType, dispatcher.jobs[0].Type)

	dispatcher.err = errors.New("queue full")
	_, err = svc.Enqueue(context.Background(), batchRequest("C"))
	require.Error(t, err)
	assert.Len(t, svc.jobs, 1, "rejected jobs are forgotten")
}

func TestTimetableBatchServiceHandleInOrder(t *testing.T) {
	generator := &fakeSectionGenerator{conflicts: map[string][]string{"B": {"x"}}}
	svc := NewTimetableBatchService(generator, nil, nil, zap.NewNop(), TimetableBatchServiceConfig{})
	dispatcher := &recordingDispatcher{}
	svc.UseQueue(dispatcher)

	status, err := svc.Enqueue(context.Background(), batchRequest("A", "B", "C"))
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), dispatcher.jobs[0]))

	assert.Equal(t, []string{"A", "B", "C"}, generator.calls)
	final, err := svc.Status(context.Background(), status.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.BatchJobCompleted, final.State)
	assert.Equal(t, []string{"A", "B", "C"}, final.Completed)
	assert.Equal(t, map[string]int{"B": 1}, final.Conflicts)
	assert.NotNil(t, final.FinishedAt)
}

func TestTimetableBatchServiceRetrySkipsCompletedSections(t *testing.T) {
	generator := &fakeSectionGenerator{failures: map[string]int{"B": 1}}
	svc := NewTimetableBatchService(generator, nil, nil, zap.NewNop(), TimetableBatchServiceConfig{MaxRetries: 2})
	dispatcher := &recordingDispatcher{}
	svc.UseQueue(dispatcher)
	status, err := svc.Enqueue(context.Background(), batchRequest("A", "B"))
	require.NoError(t, err)
	job := dispatcher.jobs[0]

	require.Error(t, svc.Handle(context.Background(), job))
	running, _ := svc.Status(context.Background(), status.ID)
	assert.Equal(t, dto.BatchJobRunning, running.State)
	assert.Contains(t, running.Failed, "B")

	job.Attempt = 1
	require.NoError(t, svc.Handle(context.Background(), job))
	assert.Equal(t, []string{"A", "B", "B"}, generator.calls)

	final, _ := svc.Status(context.Background(), status.ID)
	assert.Equal(t, dto.BatchJobCompleted, final.State)
	assert.Empty(t, final.Failed)
}

func TestTimetableBatchServiceFailsOnLastAttempt(t *testing.T) {
	generator := &fakeSectionGenerator{failures: map[string]int{"A": 10}}
	svc := NewTimetableBatchService(generator, nil, nil, zap.NewNop(), TimetableBatchServiceConfig{MaxRetries: 1})
	dispatcher := &recordingDispatcher{}
	svc.UseQueue(dispatcher)
	status, err := svc.Enqueue(context.Background(), batchRequest("A"))
	require.NoError(t, err)

	job := dispatcher.jobs[0]
	job.Attempt = 1
	require.Error(t, svc.Handle(context.Background(), job))

	final, _ := svc.Status(context.Background(), status.ID)
	assert.Equal(t, dto.BatchJobFailed, final.State)
	assert.Equal(t, "database unavailable", final.Failed["A"])
}

func TestTimetableBatchServiceStatusUnknown(t *testing.T) {
	svc := NewTimetableBatchService(&fakeSectionGenerator{}, nil, nil, nil, TimetableBatchServiceConfig{})
	_, err := svc.Status(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableBatchServiceWithQueue(t *testing.T) {
	svc, store := newFixtureService(t, nil)
	batch := NewTimetableBatchService(svc, nil, nil, zap.NewNop(), TimetableBatchServiceConfig{MaxRetries: 2})
	queue := jobs.NewQueue("timetable-batch", batch.Handle, jobs.QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	batch.UseQueue(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	status, err := batch.Enqueue(ctx, batchRequest("A", "B"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		current, err := batch.Status(ctx, status.ID)
		return err == nil && current.State == dto.BatchJobCompleted
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := store.Timetables().ListByDepartment(ctx, "cse")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
