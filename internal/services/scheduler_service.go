// internal/services/scheduler_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names as registered in the scheduler and addressed by the admin
// trigger endpoint.
const (
	JobOverdueTaskCheck  = "overdue-task-check"
	JobUpcomingTaskCheck = "upcoming-task-check"
	JobRecurringTasks    = "recurring-task-processing"
	JobUpcomingDeadlines = "upcoming-deadline-check"
	JobOverdueDeadlines  = "overdue-deadline-check"
	JobDailySummary      = "daily-summary"
)

// JobIntervals carries the cron spec per job ("@every 1h" or standard
// five-field cron). Zero values fall back to the defaults below.
type JobIntervals struct {
	OverdueTaskCheck  string `yaml:"overdue_task_check"`
	UpcomingTaskCheck string `yaml:"upcoming_task_check"`
	RecurringTasks    string `yaml:"recurring_tasks"`
	UpcomingDeadlines string `yaml:"upcoming_deadlines"`
	OverdueDeadlines  string `yaml:"overdue_deadlines"`
	DailySummary      string `yaml:"daily_summary"`
}

type JobStatus struct {
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	Running bool       `json:"running"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// JobResult is what a manually triggered job hands back.
type JobResult struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
}

// SchedulerService owns the registry of periodic jobs. Each job ticks on
// its own interval; a job's failure is logged and never stops the timer
// or the other jobs.
type SchedulerService interface {
	Initialize() error
	Stop()
	Status() []JobStatus
	Trigger(ctx context.Context, name string) (JobResult, error)
}

type jobFunc func(ctx context.Context, now time.Time) (int, error)

type jobEntry struct {
	name  string
	spec  string
	run   jobFunc
	entry cron.EntryID
}

type schedulerService struct {
	mu      sync.Mutex
	started bool
	c       *cron.Cron
	jobs    map[string]*jobEntry
	order   []string

	intervals JobIntervals
	lifecycle TaskLifecycleService
	deadlines DeadlineService
	summary   SummaryService
}

func NewSchedulerService(
	intervals JobIntervals,
	lifecycle TaskLifecycleService,
	deadlines DeadlineService,
	summary SummaryService,
) SchedulerService {
	return &schedulerService{
		intervals: intervals,
		lifecycle: lifecycle,
		deadlines: deadlines,
		summary:   summary,
		jobs:      map[string]*jobEntry{},
	}
}

func orDefault(spec, fallback string) string {
	if spec == "" {
		return fallback
	}
	return spec
}

// Initialize registers the fixed job set and starts the timers. Calling
// it twice is a no-op.
func (s *schedulerService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.c = cron.New()
	s.jobs = map[string]*jobEntry{}
	s.order = nil

	defs := []struct {
		name string
		spec string
		run  jobFunc
	}{
		{JobOverdueTaskCheck, orDefault(s.intervals.OverdueTaskCheck, "@every 1h"),
			s.lifecycle.CheckOverdueTasks},
		{JobUpcomingTaskCheck, orDefault(s.intervals.UpcomingTaskCheck, "@every 1h"),
			s.lifecycle.CheckUpcomingTasks},
		{JobRecurringTasks, orDefault(s.intervals.RecurringTasks, "@every 6h"),
			func(ctx context.Context, now time.Time) (int, error) {
				created, err := s.lifecycle.ProcessRecurringTasks(ctx, now)
				return len(created), err
			}},
		{JobUpcomingDeadlines, orDefault(s.intervals.UpcomingDeadlines, "0 8 * * *"),
			s.deadlines.CheckUpcomingDeadlines},
		{JobOverdueDeadlines, orDefault(s.intervals.OverdueDeadlines, "0 9 * * *"),
			s.deadlines.CheckOverdueDeadlines},
		{JobDailySummary, orDefault(s.intervals.DailySummary, "0 7 * * *"),
			s.summary.SendDailySummary},
	}

	for _, d := range defs {
		job := &jobEntry{name: d.name, spec: d.spec, run: d.run}
		id, err := s.c.AddFunc(d.spec, func() { s.tick(job) })
		if err != nil {
			return fmt.Errorf("register job %s (%q): %w", d.name, d.spec, err)
		}
		job.entry = id
		s.jobs[d.name] = job
		s.order = append(s.order, d.name)
	}

	s.c.Start()
	s.started = true
	log.Printf("[scheduler][start] jobs=%d", len(s.jobs))
	return nil
}

// tick is the periodic entry point: errors and panics are swallowed here
// so a bad run never kills the timer or its neighbors.
func (s *schedulerService) tick(job *jobEntry) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler][%s][panic] %v", job.name, r)
		}
	}()
	n, err := job.run(context.Background(), time.Now())
	if err != nil {
		log.Printf("[scheduler][%s][err] %v", job.name, err)
		return
	}
	log.Printf("[scheduler][%s][ok] processed=%d", job.name, n)
}

// Stop cancels all timers and empties the registry. In-flight runs finish
// on their own; safe to call when never started.
func (s *schedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.c.Stop()
	s.c = nil
	s.jobs = map[string]*jobEntry{}
	s.order = nil
	s.started = false
	log.Printf("[scheduler][stop] all timers cancelled")
}

func (s *schedulerService) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		job := s.jobs[name]
		st := JobStatus{Name: job.name, Spec: job.spec, Running: s.started}
		if s.started && s.c != nil {
			next := s.c.Entry(job.entry).Next
			if !next.IsZero() {
				st.NextRun = &next
			}
		}
		out = append(out, st)
	}
	return out
}

// Trigger runs the named job synchronously, outside its timer. Cooldowns
// live in entity data, so a manual run does not disturb the periodic
// schedule.
func (s *schedulerService) Trigger(ctx context.Context, name string) (JobResult, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobResult{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	n, err := job.run(ctx, time.Now())
	if err != nil {
		return JobResult{}, fmt.Errorf("job %s: %w", name, err)
	}
	return JobResult{Job: name, Processed: n}, nil
}
