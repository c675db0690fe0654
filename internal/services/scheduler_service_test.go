package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lexflow/internal/models"
)

// stub services that count invocations per job

type stubLifecycle struct {
	mu       sync.Mutex
	overdue  int
	upcoming int
	recurred int
	fail     bool
}

func (s *stubLifecycle) CheckOverdueTasks(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("db gone")
	}
	s.overdue++
	return 3, nil
}

func (s *stubLifecycle) CheckUpcomingTasks(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upcoming++
	return 1, nil
}

func (s *stubLifecycle) ProcessRecurringTasks(ctx context.Context, now time.Time) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurred++
	return []models.Task{{ID: 1}, {ID: 2}}, nil
}

func (s *stubLifecycle) BulkAssignTasks(ctx context.Context, taskIDs []int64, assigneeID, assignerID int64) (int, error) {
	return 0, nil
}

func (s *stubLifecycle) AutoAssignTask(ctx context.Context, task *models.Task, role string) (*models.User, error) {
	return nil, ErrNoEligibleUser
}

type stubDeadlines struct{}

func (s *stubDeadlines) CalculateStatuteDeadline(ctx context.Context, caseID int64, incidentDate time.Time, jurisdiction, caseType string) (*models.Deadline, error) {
	return nil, nil
}

func (s *stubDeadlines) CreateCourtDateDeadlines(ctx context.Context, caseID int64, courtDate time.Time, courtType string) ([]*models.Deadline, error) {
	return nil, nil
}

func (s *stubDeadlines) CheckUpcomingDeadlines(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (s *stubDeadlines) CheckOverdueDeadlines(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (s *stubDeadlines) GetCriticalDeadlines(ctx context.Context, now time.Time) ([]models.Deadline, error) {
	return nil, nil
}

func (s *stubDeadlines) GetByCase(ctx context.Context, caseID int64) ([]models.Deadline, error) {
	return nil, nil
}

func (s *stubDeadlines) CompleteDeadline(ctx context.Context, id int64) error { return nil }

type stubSummary struct{}

func (s *stubSummary) SendDailySummary(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func newScheduler(lifecycle TaskLifecycleService) SchedulerService {
	return NewSchedulerService(JobIntervals{}, lifecycle, &stubDeadlines{}, &stubSummary{})
}

func TestSchedulerInitialize(t *testing.T) {
	s := newScheduler(&stubLifecycle{})
	defer s.Stop()

	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	status := s.Status()
	if len(status) != 6 {
		t.Fatalf("jobs registered = %d, want 6", len(status))
	}
	wantNames := []string{
		JobOverdueTaskCheck, JobUpcomingTaskCheck, JobRecurringTasks,
		JobUpcomingDeadlines, JobOverdueDeadlines, JobDailySummary,
	}
	for i, st := range status {
		if st.Name != wantNames[i] {
			t.Errorf("job %d = %q, want %q", i, st.Name, wantNames[i])
		}
		if !st.Running {
			t.Errorf("job %q not running after Initialize", st.Name)
		}
		if st.NextRun == nil {
			t.Errorf("job %q has no next run", st.Name)
		}
	}

	// second call must not re-register
	if err := s.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if got := len(s.Status()); got != 6 {
		t.Fatalf("jobs after double init = %d, want 6", got)
	}
}

func TestSchedulerInitialize_BadSpec(t *testing.T) {
	s := NewSchedulerService(
		JobIntervals{OverdueTaskCheck: "every hour on the hour"},
		&stubLifecycle{}, &stubDeadlines{}, &stubSummary{},
	)
	if err := s.Initialize(); err == nil {
		t.Fatal("expected error for unparseable cron spec")
	}
}

func TestSchedulerTrigger(t *testing.T) {
	lifecycle := &stubLifecycle{}
	s := newScheduler(lifecycle)
	defer s.Stop()
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	res, err := s.Trigger(context.Background(), JobOverdueTaskCheck)
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if res.Job != JobOverdueTaskCheck || res.Processed != 3 {
		t.Fatalf("result = %+v", res)
	}
	if lifecycle.overdue != 1 {
		t.Fatalf("overdue check ran %d times, want 1", lifecycle.overdue)
	}

	res, err = s.Trigger(context.Background(), JobRecurringTasks)
	if err != nil {
		t.Fatalf("Trigger recurring: %v", err)
	}
	if res.Processed != 2 {
		t.Fatalf("recurring processed = %d, want 2", res.Processed)
	}

	if _, err := s.Trigger(context.Background(), "defrag-disk"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("unknown job err = %v, want ErrUnknownJob", err)
	}
}

func TestSchedulerTrigger_JobError(t *testing.T) {
	lifecycle := &stubLifecycle{fail: true}
	s := newScheduler(lifecycle)
	defer s.Stop()
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Trigger(context.Background(), JobOverdueTaskCheck); err == nil {
		t.Fatal("expected job error to surface on manual trigger")
	}
}

func TestSchedulerStop(t *testing.T) {
	s := newScheduler(&stubLifecycle{})

	// safe before start
	s.Stop()

	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	s.Stop()

	if got := len(s.Status()); got != 0 {
		t.Fatalf("jobs after Stop = %d, want 0", got)
	}
	if _, err := s.Trigger(context.Background(), JobDailySummary); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("trigger after stop err = %v, want ErrUnknownJob", err)
	}

	// restart works
	if err := s.Initialize(); err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}
	defer s.Stop()
	if got := len(s.Status()); got != 6 {
		t.Fatalf("jobs after restart = %d, want 6", got)
	}
}
