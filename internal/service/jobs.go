package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// JobState is the lifecycle state of a sync job
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// DefaultJobHistory is how many finished jobs the registry remembers
const DefaultJobHistory = 50

// Job is one sync run
type Job struct {
	ID         uuid.UUID   `json:"id"`
	State      JobState    `json:"state"`
	Trigger    string      `json:"trigger"`
	CreatedAt  time.Time   `json:"created_at"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Result     *SyncResult `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// SyncFunc runs one sync
type SyncFunc func(ctx context.Context) (*SyncResult, error)

// Jobs runs syncs one at a time and keeps their state for polling
type Jobs struct {
	run     SyncFunc
	timeout time.Duration
	history int
	sem     *semaphore.Weighted
	logger  *zap.Logger

	mu    sync.RWMutex
	jobs  map[uuid.UUID]*Job
	order []uuid.UUID
	wg    sync.WaitGroup
}

// NewJobs creates a job registry; every run gets its own timeout
func NewJobs(run SyncFunc, timeout time.Duration, logger *zap.Logger) *Jobs {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Jobs{
		run:     run,
		timeout: timeout,
		history: DefaultJobHistory,
		sem:     semaphore.NewWeighted(1),
		logger:  logger,
		jobs:    map[uuid.UUID]*Job{},
	}
}

// Submit queues a sync and returns immediately with the pending job
func (j *Jobs) Submit(trigger string) Job {
	job := j.newJob(trigger)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.execute(context.Background(), job.ID)
	}()
	return job
}

// RunNow runs a sync in the caller's goroutine and returns the finished job
func (j *Jobs) RunNow(ctx context.Context, trigger string) Job {
	job := j.newJob(trigger)
	j.execute(ctx, job.ID)
	done, _ := j.Get(job.ID)
	return done
}

// Get returns a snapshot of a job
func (j *Jobs) Get(id uuid.UUID) (Job, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	job, ok := j.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of the remembered jobs, newest first
func (j *Jobs) List() []Job {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Job, 0, len(j.order))
	for i := len(j.order) - 1; i >= 0; i-- {
		out = append(out, *j.jobs[j.order[i]])
	}
	return out
}

// Wait blocks until every submitted job finished
func (j *Jobs) Wait() {
	j.wg.Wait()
}

func (j *Jobs) newJob(trigger string) Job {
	job := &Job{ID: uuid.New(), State: JobPending, Trigger: trigger, CreatedAt: time.Now().UTC()}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[job.ID] = job
	j.order = append(j.order, job.ID)
	j.evictLocked()
	return *job
}

// evictLocked forgets the oldest finished jobs beyond the history size
func (j *Jobs) evictLocked() {
	for len(j.order) > j.history {
		evicted := false
		for i, id := range j.order {
			st := j.jobs[id].State
			if st == JobSucceeded || st == JobFailed {
				delete(j.jobs, id)
				j.order = append(j.order[:i], j.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func (j *Jobs) execute(parent context.Context, id uuid.UUID) {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	if err := j.sem.Acquire(ctx, 1); err != nil {
		j.finish(id, nil, err)
		return
	}
	defer j.sem.Release(1)

	now := time.Now().UTC()
	j.update(id, func(job *Job) {
		job.State = JobRunning
		job.StartedAt = &now
	})
	j.logger.Info("Sync job started", zap.String("job_id", id.String()))

	res, err := j.run(ctx)
	j.finish(id, res, err)
}

func (j *Jobs) finish(id uuid.UUID, res *SyncResult, err error) {
	now := time.Now().UTC()
	j.update(id, func(job *Job) {
		job.FinishedAt = &now
		job.Result = res
		if err != nil {
			job.State = JobFailed
			job.Error = err.Error()
			return
		}
		job.State = JobSucceeded
	})
	if err != nil {
		j.logger.Error("Sync job failed", zap.String("job_id", id.String()), zap.Error(err))
		return
	}
	j.logger.Info("Sync job finished", zap.String("job_id", id.String()))
}

func (j *Jobs) update(id uuid.UUID, fn func(*Job)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if job, ok := j.jobs[id]; ok {
		fn(job)
	}
}
