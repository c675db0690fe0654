// internal/services/task_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"lexflow/internal/models"
	"lexflow/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id int64, patch TaskPatch) (*models.Task, error)
	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) (*models.Task, error)
	Complete(ctx context.Context, id int64) (*models.Task, error)
}

type taskService struct {
	repo repositories.TaskRepository
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(repo repositories.TaskRepository) TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if task.IsRecurring && task.Recurrence.Frequency == "" {
		return nil, fmt.Errorf("%w: recurring task needs a frequency", ErrValidation)
	}
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	// seed the regeneration cursor from the due date
	if task.IsRecurring && task.Recurrence.NextOccurrence == nil && task.DueDate != nil {
		next := NextOccurrence(*task.DueDate, task.Recurrence)
		task.Recurrence.NextOccurrence = &next
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

// TaskPatch carries the updatable task fields; nil means leave as is.
type TaskPatch struct {
	Title       *string
	Description *string
	Type        *string
	Priority    *models.TaskPriority
	DueDate     *time.Time
	AssigneeID  *int64
}

func (s *taskService) Update(ctx context.Context, id int64, patch TaskPatch) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Type != nil {
		task.Type = *patch.Type
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	task.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *taskService) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrTaskNotFound
	}
	if !IsTaskTransitionAllowed(current.Status, to) {
		return nil, fmt.Errorf("%w: cannot move task from %s to %s", ErrValidation, current.Status, to)
	}
	if to == models.StatusCompleted {
		return s.Complete(ctx, id)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Complete is idempotent: re-completing keeps the original completed_at.
func (s *taskService) Complete(ctx context.Context, id int64) (*models.Task, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrTaskNotFound
	}
	if err := s.repo.Complete(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
