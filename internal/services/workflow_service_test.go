package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexflow/internal/models"
)

func newWorkflowFixture(now time.Time) (*workflowService, *fakeWorkflowRepo, *fakeTaskRepo, *fakeCaseRepo, *fakeUserRepo, *fakeNotifier) {
	workflows := newFakeWorkflowRepo()
	tasks := newFakeTaskRepo()
	cases := &fakeCaseRepo{cases: map[int64]*models.Case{
		42: {ID: 42, Number: "2025-CV-0042", CaseType: "personal_injury"},
	}}
	users := &fakeUserRepo{users: []models.User{
		{ID: 1, Role: "paralegal", IsActive: true},
		{ID: 2, Role: "paralegal", IsActive: true},
		{ID: 3, Role: "attorney", IsActive: true},
	}}
	notifier := &fakeNotifier{}
	svc := &workflowService{
		workflows: workflows,
		tasks:     tasks,
		cases:     cases,
		users:     users,
		notifier:  notifier,
		now:       func() time.Time { return now },
	}
	return svc, workflows, tasks, cases, users, notifier
}

func intakeWorkflow() *models.Workflow {
	return &models.Workflow{
		Name: "New case intake", Type: "personal_injury",
		IsActive: true, TriggerEvent: models.TriggerCaseCreated,
		Steps: []models.WorkflowStep{
			{Order: 2, Title: "Draft engagement letter", TaskType: "drafting", DaysToComplete: 3, Priority: models.PriorityHigh},
			{Order: 1, Title: "Open client file", TaskType: "intake", AssignToRole: "paralegal", AutoAssign: true},
		},
	}
}

func TestExecuteWorkflow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, workflows, _, _, _, notifier := newWorkflowFixture(now)

	w := intakeWorkflow()
	if err := workflows.Store(ctx, w); err != nil {
		t.Fatal(err)
	}

	tasks, err := svc.ExecuteWorkflow(ctx, w.ID, 42, 99)
	if err != nil {
		t.Fatalf("ExecuteWorkflow: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks created = %d, want 2", len(tasks))
	}

	// steps run in ascending order
	if tasks[0].Title != "Open client file" || tasks[1].Title != "Draft engagement letter" {
		t.Fatalf("step order wrong: %q then %q", tasks[0].Title, tasks[1].Title)
	}
	// auto-assigned step goes to the oldest active paralegal
	if tasks[0].AssigneeID != 1 {
		t.Errorf("auto-assigned step assignee = %d, want 1", tasks[0].AssigneeID)
	}
	// non-auto step falls to the acting user
	if tasks[1].AssigneeID != 99 {
		t.Errorf("manual step assignee = %d, want acting user 99", tasks[1].AssigneeID)
	}
	// no days set defaults to 7
	if !tasks[0].DueDate.Equal(now.AddDate(0, 0, 7)) {
		t.Errorf("default due = %v, want %v", tasks[0].DueDate, now.AddDate(0, 0, 7))
	}
	if !tasks[1].DueDate.Equal(now.AddDate(0, 0, 3)) {
		t.Errorf("due = %v, want %v", tasks[1].DueDate, now.AddDate(0, 0, 3))
	}
	for _, task := range tasks {
		if task.WorkflowID == nil || *task.WorkflowID != w.ID {
			t.Errorf("task %q missing workflow origin", task.Title)
		}
	}

	reloaded, _ := workflows.FindByID(ctx, w.ID)
	if reloaded.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", reloaded.UsageCount)
	}
	if reloaded.LastExecuted == nil || !reloaded.LastExecuted.Equal(now) {
		t.Errorf("lastExecuted = %v, want %v", reloaded.LastExecuted, now)
	}
	if len(notifier.byType("task_assigned")) != 2 {
		t.Errorf("assignment notifications = %d, want 2", len(notifier.byType("task_assigned")))
	}
}

func TestExecuteWorkflow_UsageCountPerExecution(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, workflows, _, _, _, _ := newWorkflowFixture(now)

	w := intakeWorkflow()
	if err := workflows.Store(ctx, w); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.ExecuteWorkflow(ctx, w.ID, 42, 99); err != nil {
			t.Fatalf("execution %d: %v", i+1, err)
		}
	}
	reloaded, _ := workflows.FindByID(ctx, w.ID)
	if reloaded.UsageCount != 2 {
		t.Fatalf("usage count = %d, want 2", reloaded.UsageCount)
	}
}

func TestExecuteWorkflow_Errors(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, workflows, _, _, _, _ := newWorkflowFixture(now)

	inactive := intakeWorkflow()
	inactive.IsActive = false
	if err := workflows.Store(ctx, inactive); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ExecuteWorkflow(ctx, inactive.ID, 42, 99); !errors.Is(err, ErrWorkflowInactive) {
		t.Errorf("inactive workflow err = %v, want ErrWorkflowInactive", err)
	}

	active := intakeWorkflow()
	if err := workflows.Store(ctx, active); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ExecuteWorkflow(ctx, active.ID, 777, 99); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("missing case err = %v, want ErrCaseNotFound", err)
	}
	if _, err := svc.ExecuteWorkflow(ctx, 555, 42, 99); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("missing workflow err = %v, want ErrWorkflowNotFound", err)
	}
}

func TestTriggerByEvent_IsolatesWorkflowFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, workflows, tasks, _, _, _ := newWorkflowFixture(now)

	for _, name := range []string{"first", "second", "third"} {
		w := intakeWorkflow()
		w.Name = name
		if err := workflows.Store(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	// the second workflow's first step will fail at task creation
	second, _ := workflows.FindByID(ctx, 2)
	second.Steps[1].Title = "poison step"
	workflows.workflows[2] = second
	tasks.failStoreTitle = "poison step"

	results, err := svc.TriggerByEvent(ctx, models.TriggerCaseCreated, 42, 99)
	if err != nil {
		t.Fatalf("TriggerByEvent: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("successful executions = %d, want 2", len(results))
	}
	if results[0].WorkflowID != 1 || results[1].WorkflowID != 3 {
		t.Errorf("unexpected surviving workflows: %d, %d", results[0].WorkflowID, results[1].WorkflowID)
	}
}

func TestCloneWorkflow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, workflows, _, _, _, _ := newWorkflowFixture(now)

	src := intakeWorkflow()
	src.IsTemplate = true
	src.OwnerID = 1
	if err := workflows.Store(ctx, src); err != nil {
		t.Fatal(err)
	}

	clone, err := svc.CloneWorkflow(ctx, src.ID, 8)
	if err != nil {
		t.Fatalf("CloneWorkflow: %v", err)
	}
	if clone.Name != "New case intake (Copy)" {
		t.Errorf("clone name = %q", clone.Name)
	}
	if clone.OwnerID != 8 || clone.IsTemplate || !clone.IsActive {
		t.Errorf("clone flags wrong: owner=%d template=%v active=%v", clone.OwnerID, clone.IsTemplate, clone.IsActive)
	}
	if len(clone.Steps) != len(src.Steps) {
		t.Fatalf("clone steps = %d, want %d", len(clone.Steps), len(src.Steps))
	}
	if clone.UsageCount != 0 {
		t.Errorf("clone usage count = %d, want 0", clone.UsageCount)
	}

	if _, err := svc.CloneWorkflow(ctx, 999, 8); !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("missing source err = %v, want ErrWorkflowNotFound", err)
	}
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, workflows, _, _, _, _ := newWorkflowFixture(now)

	mk := func(name, wtype string, usage int, template bool) {
		w := intakeWorkflow()
		w.Name = name
		w.Type = wtype
		w.UsageCount = usage
		w.IsTemplate = template
		if err := workflows.Store(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	mk("pi-low", "personal_injury", 1, true)
	mk("pi-high", "personal_injury", 9, true)
	mk("generic", "generic", 5, true)
	mk("contract", "contract", 20, true) // wrong type, excluded
	mk("not-a-template", "personal_injury", 30, false)
	mk("pi-a", "personal_injury", 4, true)
	mk("pi-b", "personal_injury", 3, true)
	mk("pi-c", "personal_injury", 2, true)

	recs, err := svc.Recommendations(ctx, 42)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("recommendations = %d, want cap of 5", len(recs))
	}
	if recs[0].Name != "pi-high" {
		t.Errorf("top recommendation = %q, want most used", recs[0].Name)
	}
	for _, w := range recs {
		if w.Type != "personal_injury" && w.Type != "generic" {
			t.Errorf("recommendation %q has type %q", w.Name, w.Type)
		}
	}
}
