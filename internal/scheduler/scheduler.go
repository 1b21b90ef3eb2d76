// Package scheduler runs the periodic maintenance jobs of the server.
package scheduler

import (
	"context"
	"fmt"
	"sort"
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

// JobInfo describes a registered job.
type JobInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Schedule   string    `json:"schedule"`
	Status     JobStatus `json:"status"`
	LastRun    time.Time `json:"lastRun"`
	NextRun    time.Time `json:"nextRun"`
	RunCount   int       `json:"runCount"`
	ErrorCount int       `json:"errorCount"`
	LastError  string    `json:"lastError,omitempty"`

	job gocron.Job
}

const waitInterval = 50 * time.Millisecond

// JobFunc is the work done by a job.
type JobFunc func(ctx context.Context) error

// Scheduler wraps gocron and keeps run statistics per job.
type Scheduler struct {
	gocron gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]*JobInfo

	ctx    context.Context
	cancel context.CancelFunc
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
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// AddCronJob registers fn under id to run on a crontab schedule. Only one
// run of a job is active at a time, overlapping runs are rescheduled.
func (s *Scheduler) AddCronJob(id, name, crontab string, fn JobFunc) error {
	return s.addSingletonJob(id, name, crontab, gocron.CronJob(crontab, false), fn)
}

func (s *Scheduler) addSingletonJob(id, name, schedule string, def gocron.JobDefinition, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already registered", id)
	}

	info := &JobInfo{
		ID:       id,
		Name:     name,
		Schedule: schedule,
		Status:   JobStatusScheduled,
	}

	job, err := s.gocron.NewJob(def,
		gocron.NewTask(s.wrapJobFunc(info, fn)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	info.job = job
	s.jobs[id] = info

	log.Info("Added job to scheduler", "id", id, "name", name, "schedule", schedule)
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.gocron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, info := range s.jobs {
		if next, err := info.job.NextRun(); err == nil {
			info.NextRun = next
			log.Debug("Next run time for job", "id", id, "nextRun", next)
		}
	}
	log.Info("Job scheduler started", "jobs", len(s.jobs))
}

// Stop cancels running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// RunJobNow triggers a job outside of its schedule.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.Lock()
	info, exists := s.jobs[id]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}

	log.Info("Manually triggering job", "id", id, "name", info.Name)
	if err := info.job.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// Job returns a copy of the job info for id.
func (s *Scheduler) Job(id string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return *info, true
}

// Jobs returns a copy of every registered job, ordered by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, info := range s.jobs {
		jobs = append(jobs, *info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

// RunJobAndWait triggers a job and blocks until that run has finished or
// ctx is done.
func (s *Scheduler) RunJobAndWait(ctx context.Context, id string) (JobInfo, error) {
	before, ok := s.Job(id)
	if !ok {
		return JobInfo{}, fmt.Errorf("job %s not found", id)
	}
	if err := s.RunJobNow(id); err != nil {
		return JobInfo{}, err
	}

	ticker := time.NewTicker(waitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return JobInfo{}, ctx.Err()
		case <-ticker.C:
		}
		info, _ := s.Job(id)
		if info.RunCount > before.RunCount && info.Status != JobStatusRunning {
			return info, nil
		}
	}
}

func (s *Scheduler) wrapJobFunc(info *JobInfo, fn JobFunc) func() {
	return func() {
		s.mu.Lock()
		info.Status = JobStatusRunning
		info.LastRun = time.Now()
		info.RunCount++
		if next, err := info.job.NextRun(); err == nil {
			info.NextRun = next
		}
		s.mu.Unlock()

		log.Info("Starting job", "id", info.ID)
		err := fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			log.Error("Job failed", "id", info.ID, "error", err)
			info.Status = JobStatusFailed
			info.ErrorCount++
			info.LastError = err.Error()
			return
		}
		log.Info("Job completed", "id", info.ID)
		info.Status = JobStatusCompleted
		info.LastError = ""
	}
}
