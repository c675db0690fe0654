// internal/services/task_lifecycle_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"lexflow/internal/models"
	"lexflow/internal/repositories"
)

const (
	overdueReminderCooldown  = 24 * time.Hour
	upcomingReminderCooldown = 12 * time.Hour
	upcomingWindow           = 24 * time.Hour
)

// TaskLifecycleService drives task state: overdue/upcoming reminders,
// recurring-task regeneration and load-balanced assignment.
type TaskLifecycleService interface {
	CheckOverdueTasks(ctx context.Context, now time.Time) (int, error)
	CheckUpcomingTasks(ctx context.Context, now time.Time) (int, error)
	ProcessRecurringTasks(ctx context.Context, now time.Time) ([]models.Task, error)
	BulkAssignTasks(ctx context.Context, taskIDs []int64, assigneeID, assignerID int64) (int, error)
	AutoAssignTask(ctx context.Context, task *models.Task, role string) (*models.User, error)
}

type taskLifecycleService struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	notifier NotificationService
}

func NewTaskLifecycleService(
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	notifier NotificationService,
) TaskLifecycleService {
	return &taskLifecycleService{tasks: tasks, users: users, notifier: notifier}
}

// NextOccurrence computes one recurrence step from the given date.
// Unknown frequencies fall back to weekly; interval defaults to 1.
func NextOccurrence(from time.Time, p models.RecurrencePattern) time.Time {
	interval := p.Interval
	if interval <= 0 {
		interval = 1
	}
	switch p.Frequency {
	case "daily":
		return from.AddDate(0, 0, interval)
	case "weekly":
		return from.AddDate(0, 0, 7*interval)
	case "monthly":
		return from.AddDate(0, interval, 0)
	case "yearly":
		return from.AddDate(interval, 0, 0)
	default:
		return from.AddDate(0, 0, 7*interval)
	}
}

func (s *taskLifecycleService) CheckOverdueTasks(ctx context.Context, now time.Time) (int, error) {
	due, err := s.tasks.ListOverdue(ctx, now, overdueReminderCooldown)
	if err != nil {
		return 0, fmt.Errorf("list overdue tasks: %w", err)
	}

	processed := 0
	for i := range due {
		t := &due[i]
		claimed, err := s.tasks.ClaimReminder(ctx, t.ID, now, overdueReminderCooldown)
		if err != nil {
			log.Printf("[lifecycle][overdue][err] claim task=%d: %v", t.ID, err)
			continue
		}
		if !claimed {
			// another run got there first
			continue
		}
		s.notifier.Send(ctx, Notification{
			Type:        "task_overdue",
			RecipientID: t.AssigneeID,
			Subject:     "Task overdue: " + t.Title,
			Body:        fmt.Sprintf("Task %q (case #%d) was due %s and is still open.", t.Title, t.CaseID, t.DueDate.Format("2006-01-02")),
			Metadata:    map[string]string{"task_id": fmt.Sprint(t.ID)},
		})
		processed++
	}
	log.Printf("[lifecycle][overdue][ok] candidates=%d reminded=%d", len(due), processed)
	return processed, nil
}

func (s *taskLifecycleService) CheckUpcomingTasks(ctx context.Context, now time.Time) (int, error) {
	due, err := s.tasks.ListDueWithin(ctx, now, upcomingWindow, upcomingReminderCooldown)
	if err != nil {
		return 0, fmt.Errorf("list upcoming tasks: %w", err)
	}

	processed := 0
	for i := range due {
		t := &due[i]
		claimed, err := s.tasks.ClaimReminder(ctx, t.ID, now, upcomingReminderCooldown)
		if err != nil {
			log.Printf("[lifecycle][upcoming][err] claim task=%d: %v", t.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		s.notifier.Send(ctx, Notification{
			Type:        "task_upcoming",
			RecipientID: t.AssigneeID,
			Subject:     "Task due soon: " + t.Title,
			Body:        fmt.Sprintf("Task %q (case #%d) is due %s.", t.Title, t.CaseID, t.DueDate.Format("2006-01-02 15:04")),
			Metadata:    map[string]string{"task_id": fmt.Sprint(t.ID)},
		})
		processed++
	}
	log.Printf("[lifecycle][upcoming][ok] candidates=%d reminded=%d", len(due), processed)
	return processed, nil
}

// ProcessRecurringTasks regenerates completed recurring tasks whose next
// occurrence has arrived. The new instance duplicates the source with a
// fresh due date and pending status; the source's next occurrence advances
// by the same step.
func (s *taskLifecycleService) ProcessRecurringTasks(ctx context.Context, now time.Time) ([]models.Task, error) {
	due, err := s.tasks.ListRecurringDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list recurring tasks: %w", err)
	}

	var created []models.Task
	for i := range due {
		src := &due[i]
		if src.Recurrence.NextOccurrence == nil {
			continue
		}
		nextDue := NextOccurrence(now, src.Recurrence)
		if src.Recurrence.EndDate != nil && nextDue.After(*src.Recurrence.EndDate) {
			log.Printf("[lifecycle][recurring][skip] task=%d past end date", src.ID)
			continue
		}

		// claim the source before creating, so overlapping runs cannot
		// produce two instances
		claimed, err := s.tasks.AdvanceRecurrence(ctx, src.ID, *src.Recurrence.NextOccurrence, nextDue)
		if err != nil {
			log.Printf("[lifecycle][recurring][err] advance task=%d: %v", src.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		instance := models.Task{
			CaseID:      src.CaseID,
			AssigneeID:  src.AssigneeID,
			AssignerID:  src.AssignerID,
			Title:       src.Title,
			Description: src.Description,
			Type:        src.Type,
			Priority:    src.Priority,
			Status:      models.StatusPending,
			DueDate:     &nextDue,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.tasks.Store(ctx, &instance); err != nil {
			log.Printf("[lifecycle][recurring][err] create instance of task=%d: %v", src.ID, err)
			continue
		}
		s.notifier.Send(ctx, Notification{
			Type:        "task_assigned",
			RecipientID: instance.AssigneeID,
			Subject:     "Recurring task created: " + instance.Title,
			Body:        fmt.Sprintf("Task %q (case #%d) is due %s.", instance.Title, instance.CaseID, nextDue.Format("2006-01-02")),
			Metadata:    map[string]string{"task_id": fmt.Sprint(instance.ID)},
		})
		created = append(created, instance)
	}
	log.Printf("[lifecycle][recurring][ok] due=%d created=%d", len(due), len(created))
	return created, nil
}

// BulkAssignTasks reassigns every listed task; one task's failure does not
// stop the rest.
func (s *taskLifecycleService) BulkAssignTasks(ctx context.Context, taskIDs []int64, assigneeID, assignerID int64) (int, error) {
	assigned := 0
	for _, id := range taskIDs {
		task, err := s.tasks.FindByID(ctx, id)
		if err != nil {
			log.Printf("[lifecycle][bulk-assign][err] load task=%d: %v", id, err)
			continue
		}
		if task == nil {
			log.Printf("[lifecycle][bulk-assign][skip] task=%d not found", id)
			continue
		}
		if err := s.tasks.UpdateAssignee(ctx, id, assigneeID, assignerID); err != nil {
			log.Printf("[lifecycle][bulk-assign][err] task=%d: %v", id, err)
			continue
		}
		s.notifier.Send(ctx, Notification{
			Type:        "task_assigned",
			RecipientID: assigneeID,
			Subject:     "Task assigned: " + task.Title,
			Body:        fmt.Sprintf("You were assigned task %q on case #%d.", task.Title, task.CaseID),
			Metadata:    map[string]string{"task_id": fmt.Sprint(id)},
		})
		assigned++
	}
	return assigned, nil
}

// AutoAssignTask picks the active user of the given role with the fewest
// open tasks; ties go to the earliest-created user.
func (s *taskLifecycleService) AutoAssignTask(ctx context.Context, task *models.Task, role string) (*models.User, error) {
	candidates, err := s.users.FindActiveByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("find users by role %q: %w", role, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEligibleUser, role)
	}

	var best *models.User
	bestCount := -1
	for i := range candidates {
		c := &candidates[i]
		n, err := s.tasks.CountOpenByAssignee(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("count open tasks for user %d: %w", c.ID, err)
		}
		if best == nil || n < bestCount {
			best = c
			bestCount = n
		}
	}

	if err := s.tasks.UpdateAssignee(ctx, task.ID, best.ID, task.AssignerID); err != nil {
		return nil, fmt.Errorf("assign task %d: %w", task.ID, err)
	}
	task.AssigneeID = best.ID
	log.Printf("[lifecycle][auto-assign][ok] task=%d role=%s user=%d open=%d", task.ID, role, best.ID, bestCount)
	return best, nil
}
