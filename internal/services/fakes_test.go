package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"lexflow/internal/models"
)

// In-memory fakes over the repository interfaces, mirroring the SQL
// semantics the real implementations rely on.

type fakeTaskRepo struct {
	mu             sync.Mutex
	tasks          map[int64]*models.Task
	order          []int64
	nextID         int64
	failStoreTitle string // Store returns an error for this title
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]*models.Task{}}
}

func (r *fakeTaskRepo) add(t models.Task) *models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	r.tasks[t.ID] = &t
	r.order = append(r.order, t.ID)
	return r.tasks[t.ID]
}

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task) error {
	if r.failStoreTitle != "" && task.Title == r.failStoreTitle {
		return errors.New("store failed")
	}
	stored := r.add(*task)
	task.ID = stored.ID
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, id := range r.order {
		t := r.tasks[id]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && t.AssigneeID != *filter.AssigneeID {
			continue
		}
		if filter.CaseID != nil && t.CaseID != *filter.CaseID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		t.Status = to
	}
	return nil
}

func (r *fakeTaskRepo) UpdateAssignee(ctx context.Context, id int64, assigneeID, assignerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return errors.New("no such task")
	}
	t.AssigneeID = assigneeID
	t.AssignerID = assignerID
	return nil
}

func (r *fakeTaskRepo) Complete(ctx context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return errors.New("no such task")
	}
	t.Status = models.StatusCompleted
	if t.CompletedAt == nil {
		cp := at
		t.CompletedAt = &cp
	}
	return nil
}

func open(t *models.Task) bool {
	return t.Status != models.StatusCompleted && t.Status != models.StatusCancelled
}

func (r *fakeTaskRepo) ListOverdue(ctx context.Context, now time.Time, cooldown time.Duration) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, id := range r.order {
		t := r.tasks[id]
		if !open(t) || t.DueDate == nil || !t.DueDate.Before(now) {
			continue
		}
		if t.LastReminderSent != nil && t.LastReminderSent.After(now.Add(-cooldown)) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) ListDueWithin(ctx context.Context, now time.Time, window, cooldown time.Duration) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, id := range r.order {
		t := r.tasks[id]
		if !open(t) || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(now) || t.DueDate.After(now.Add(window)) {
			continue
		}
		if t.LastReminderSent != nil && t.LastReminderSent.After(now.Add(-cooldown)) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) ListRecurringDue(ctx context.Context, now time.Time) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Task
	for _, id := range r.order {
		t := r.tasks[id]
		if !t.IsRecurring || t.Status != models.StatusCompleted {
			continue
		}
		if t.Recurrence.NextOccurrence == nil || t.Recurrence.NextOccurrence.After(now) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTaskRepo) CountOpenByAssignee(ctx context.Context, assigneeID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.AssigneeID == assigneeID && open(t) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTaskRepo) ClaimReminder(ctx context.Context, id int64, now time.Time, cooldown time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	if t.LastReminderSent != nil && t.LastReminderSent.After(now.Add(-cooldown)) {
		return false, nil
	}
	cp := now
	t.LastReminderSent = &cp
	return true, nil
}

func (r *fakeTaskRepo) AdvanceRecurrence(ctx context.Context, id int64, prev, next time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Recurrence.NextOccurrence == nil || !t.Recurrence.NextOccurrence.Equal(prev) {
		return false, nil
	}
	cp := next
	t.Recurrence.NextOccurrence = &cp
	return true, nil
}

type fakeUserRepo struct {
	users []models.User
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			cp := r.users[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for i := range r.users {
		if r.users[i].Email == email {
			cp := r.users[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindActiveByRole(ctx context.Context, role string) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.IsActive && u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListActiveByRoles(ctx context.Context, roles ...string) ([]models.User, error) {
	want := map[string]bool{}
	for _, role := range roles {
		want[role] = true
	}
	var out []models.User
	for _, u := range r.users {
		if u.IsActive && want[u.Role] {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeCaseRepo struct {
	cases map[int64]*models.Case
}

func (r *fakeCaseRepo) FindByID(ctx context.Context, id int64) (*models.Case, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type fakeWorkflowRepo struct {
	workflows map[int64]*models.Workflow
	nextID    int64
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{workflows: map[int64]*models.Workflow{}}
}

func (r *fakeWorkflowRepo) Store(ctx context.Context, w *models.Workflow) error {
	r.nextID++
	w.ID = r.nextID
	cp := *w
	cp.Steps = append([]models.WorkflowStep(nil), w.Steps...)
	r.workflows[w.ID] = &cp
	return nil
}

func (r *fakeWorkflowRepo) FindByID(ctx context.Context, id int64) (*models.Workflow, error) {
	w, ok := r.workflows[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	cp.Steps = append([]models.WorkflowStep(nil), w.Steps...)
	return &cp, nil
}

func (r *fakeWorkflowRepo) FindAll(ctx context.Context, filter models.WorkflowFilter) ([]models.Workflow, error) {
	var out []models.Workflow
	for id := int64(1); id <= r.nextID; id++ {
		if w, ok := r.workflows[id]; ok {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeWorkflowRepo) ListActiveByTrigger(ctx context.Context, event models.TriggerEvent) ([]models.Workflow, error) {
	var out []models.Workflow
	for id := int64(1); id <= r.nextID; id++ {
		w, ok := r.workflows[id]
		if !ok || !w.IsActive || w.TriggerEvent != event {
			continue
		}
		cp := *w
		cp.Steps = append([]models.WorkflowStep(nil), w.Steps...)
		out = append(out, cp)
	}
	return out, nil
}

func (r *fakeWorkflowRepo) ListTemplatesByTypes(ctx context.Context, types []string, limit int) ([]models.Workflow, error) {
	want := map[string]bool{}
	for _, t := range types {
		want[t] = true
	}
	var out []models.Workflow
	for id := int64(1); id <= r.nextID; id++ {
		w, ok := r.workflows[id]
		if !ok || !w.IsTemplate || !w.IsActive || !want[w.Type] {
			continue
		}
		out = append(out, *w)
	}
	// usage desc, id asc
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].UsageCount > out[i].UsageCount {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeWorkflowRepo) MarkExecuted(ctx context.Context, id int64, at time.Time) error {
	w, ok := r.workflows[id]
	if !ok {
		return errors.New("no such workflow")
	}
	w.UsageCount++
	cp := at
	w.LastExecuted = &cp
	return nil
}

type fakeDeadlineRepo struct {
	deadlines   map[int64]*models.Deadline
	order       []int64
	nextID      int64
	failOnTitle string // InsertMany fails if the batch contains this title
}

func newFakeDeadlineRepo() *fakeDeadlineRepo {
	return &fakeDeadlineRepo{deadlines: map[int64]*models.Deadline{}}
}

func (r *fakeDeadlineRepo) store(d *models.Deadline) {
	r.nextID++
	d.ID = r.nextID
	cp := *d
	cp.Reminders = append(models.ReminderList(nil), d.Reminders...)
	r.deadlines[d.ID] = &cp
	r.order = append(r.order, d.ID)
}

func (r *fakeDeadlineRepo) Store(ctx context.Context, d *models.Deadline) error {
	r.store(d)
	return nil
}

func (r *fakeDeadlineRepo) InsertMany(ctx context.Context, ds []*models.Deadline) error {
	if r.failOnTitle != "" {
		for _, d := range ds {
			if d.Title == r.failOnTitle {
				return errors.New("insert failed")
			}
		}
	}
	for _, d := range ds {
		r.store(d)
	}
	return nil
}

func (r *fakeDeadlineRepo) FindByID(ctx context.Context, id int64) (*models.Deadline, error) {
	d, ok := r.deadlines[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	cp.Reminders = append(models.ReminderList(nil), d.Reminders...)
	return &cp, nil
}

func (r *fakeDeadlineRepo) FindByCase(ctx context.Context, caseID int64) ([]models.Deadline, error) {
	var out []models.Deadline
	for _, id := range r.order {
		if r.deadlines[id].CaseID == caseID {
			out = append(out, *r.deadlines[id])
		}
	}
	return out, nil
}

func (r *fakeDeadlineRepo) UpdateStatus(ctx context.Context, id int64, to models.DeadlineStatus) error {
	if d, ok := r.deadlines[id]; ok {
		d.Status = to
	}
	return nil
}

func (r *fakeDeadlineRepo) UpdateReminders(ctx context.Context, id int64, reminders models.ReminderList) error {
	if d, ok := r.deadlines[id]; ok {
		d.Reminders = append(models.ReminderList(nil), reminders...)
	}
	return nil
}

func openDeadline(d *models.Deadline) bool {
	return d.Status != models.DeadlineCompleted && d.Status != models.DeadlineCancelled
}

func (r *fakeDeadlineRepo) ListDueOn(ctx context.Context, day time.Time) ([]models.Deadline, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var out []models.Deadline
	for _, id := range r.order {
		d := r.deadlines[id]
		if !openDeadline(d) || d.Date.Before(start) || !d.Date.Before(end) {
			continue
		}
		cp := *d
		cp.Reminders = append(models.ReminderList(nil), d.Reminders...)
		out = append(out, cp)
	}
	return out, nil
}

func (r *fakeDeadlineRepo) ListOverdue(ctx context.Context, now time.Time) ([]models.Deadline, error) {
	var out []models.Deadline
	for _, id := range r.order {
		d := r.deadlines[id]
		if openDeadline(d) && d.Date.Before(now) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDeadlineRepo) ListCritical(ctx context.Context, now time.Time, horizon time.Duration) ([]models.Deadline, error) {
	var out []models.Deadline
	for _, id := range r.order {
		d := r.deadlines[id]
		if !openDeadline(d) {
			continue
		}
		if d.Priority != models.DeadlinePriorityHigh && d.Priority != models.DeadlinePriorityCritical {
			continue
		}
		if d.Date.Before(now) || d.Date.After(now.Add(horizon)) {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *fakeNotifier) Send(ctx context.Context, notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *fakeNotifier) byType(t string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, s := range n.sent {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
