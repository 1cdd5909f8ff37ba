package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/internal/repository"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
	"github.com/noah-isme/edu-report-api/pkg/jobs"
)

type jobStoreStub struct {
	jobs map[string]*models.ReportJob
}

func newJobStoreStub() *jobStoreStub {
	return &jobStoreStub{jobs: map[string]*models.ReportJob{}}
}

func (r *jobStoreStub) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *jobStoreStub) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return job, nil
}

func (r *jobStoreStub) Update(ctx context.Context, id string, params repository.UpdateJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *jobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var queued []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *jobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

func (r *jobStoreStub) ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.CreatedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

type queueStub struct {
	enqueued []jobs.Job
	fail     bool
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.fail {
		return errors.New("queue full")
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type generatorStub struct {
	result *ExportResult
	err    error
	calls  int
}

func (g *generatorStub) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func studentCardRequest() ExportRequest {
	studentID := "s1"
	return ExportRequest{
		Type:      models.ReportTypeStudentCard,
		Format:    models.ReportFormatPDF,
		TermID:    "t1",
		StudentID: &studentID,
	}
}

func TestCreateJobEnqueues(t *testing.T) {
	store := newJobStoreStub()
	queue := &queueStub{}
	svc := NewExportJobService(store, queue, nil, nil, ExportJobServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), studentCardRequest(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestCreateJobValidation(t *testing.T) {
	svc := NewExportJobService(newJobStoreStub(), &queueStub{}, nil, nil, ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ExportRequest{Type: models.ReportTypeStudentCard, Format: models.ReportFormatPDF}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), ExportRequest{Type: models.ReportTypeClassSheet, Format: "xlsx", GradeLevelID: "g1"}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newJobStoreStub()
	svc := NewExportJobService(store, &queueStub{fail: true}, nil, nil, ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), studentCardRequest(), "u1")
	require.Error(t, err)
	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestGetStatusEnforcesOwnership(t *testing.T) {
	store := newJobStoreStub()
	queue := &queueStub{}
	svc := NewExportJobService(store, queue, nil, nil, ExportJobServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), studentCardRequest(), "u1")
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), resp.ID, "intruder", models.RoleSubjectTeacher)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	status, err := svc.GetStatus(context.Background(), resp.ID, "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)
}

func TestWorkerHandleSuccess(t *testing.T) {
	store := newJobStoreStub()
	job := &models.ReportJob{Type: models.ReportTypeStudentCard, Status: models.ReportStatusQueued, CreatedBy: "u1"}
	require.NoError(t, store.Create(context.Background(), job))

	gen := &generatorStub{result: &ExportResult{URL: "/api/v1/exports/download/tok"}}
	worker := NewReportWorker(store, gen, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/exports/download/tok", *job.ResultURL)
}

func TestWorkerHandleRequeuesThenFails(t *testing.T) {
	store := newJobStoreStub()
	job := &models.ReportJob{Type: models.ReportTypeStudentCard, Status: models.ReportStatusQueued, CreatedBy: "u1"}
	require.NoError(t, store.Create(context.Background(), job))

	gen := &generatorStub{err: errors.New("render failed")}
	worker := NewReportWorker(store, gen, 2, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render failed", *job.ErrorMessage)
}
