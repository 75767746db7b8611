// Package scheduler runs the periodic maintenance jobs of the server.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobInfo is a snapshot of a job's bookkeeping.
type JobInfo struct {
	ID         string
	Name       string
	Status     JobStatus
	LastRun    time.Time
	RunCount   int
	ErrorCount int
	LastError  string
}

// JobFunc is the work performed by a job.
type JobFunc func(ctx context.Context) error

type job struct {
	info   JobInfo
	fn     JobFunc
	gocron gocron.Job
}

// Scheduler wraps a gocron scheduler and tracks the outcome of each job.
type Scheduler struct {
	gocron gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: s,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*job),
	}, nil
}

// AddIntervalJob registers a singleton job running every interval.
// A run that is still in progress when the next one is due delays the next run.
func (s *Scheduler) AddIntervalJob(id, name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}

	j := &job{
		info: JobInfo{ID: id, Name: name, Status: JobStatusScheduled},
		fn:   fn,
	}
	gj, err := s.gocron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run, j),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	j.gocron = gj
	s.jobs[id] = j

	log.Info("Added job to scheduler", "id", id, "name", name, "interval", interval)
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	log.Info("Starting job scheduler")
	s.gocron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// RunJobNow triggers a job outside of its schedule.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.Lock()
	j, exists := s.jobs[id]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}

	if err := j.gocron.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJob returns a snapshot of a job.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return j.info, true
}

func (s *Scheduler) run(j *job) {
	s.mu.Lock()
	j.info.Status = JobStatusRunning
	j.info.LastRun = time.Now()
	j.info.RunCount++
	s.mu.Unlock()

	err := j.fn(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Error("Job failed", "id", j.info.ID, "error", err)
		j.info.Status = JobStatusFailed
		j.info.ErrorCount++
		j.info.LastError = err.Error()
		return
	}
	log.Debug("Job completed", "id", j.info.ID)
	j.info.Status = JobStatusCompleted
	j.info.LastError = ""
}
