// internal/services/workflow_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"lexflow/internal/models"
	"lexflow/internal/repositories"
)

const defaultStepDays = 7

// WorkflowExecution is the result of running one workflow against a case.
type WorkflowExecution struct {
	WorkflowID int64         `json:"workflow_id"`
	Tasks      []models.Task `json:"tasks"`
}

// WorkflowService expands workflow templates into concrete task chains.
type WorkflowService interface {
	Create(ctx context.Context, w *models.Workflow) error
	GetByID(ctx context.Context, id int64) (*models.Workflow, error)
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.Workflow, error)

	ExecuteWorkflow(ctx context.Context, workflowID, caseID, actingUserID int64) ([]models.Task, error)
	TriggerByEvent(ctx context.Context, event models.TriggerEvent, caseID, userID int64) ([]WorkflowExecution, error)
	CloneWorkflow(ctx context.Context, sourceID, newOwnerID int64) (*models.Workflow, error)
	Recommendations(ctx context.Context, caseID int64) ([]models.Workflow, error)
}

type workflowService struct {
	workflows repositories.WorkflowRepository
	tasks     repositories.TaskRepository
	cases     repositories.CaseRepository
	users     repositories.UserRepository
	notifier  NotificationService
	now       func() time.Time
}

func NewWorkflowService(
	workflows repositories.WorkflowRepository,
	tasks repositories.TaskRepository,
	cases repositories.CaseRepository,
	users repositories.UserRepository,
	notifier NotificationService,
) WorkflowService {
	return &workflowService{
		workflows: workflows,
		tasks:     tasks,
		cases:     cases,
		users:     users,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *workflowService) Create(ctx context.Context, w *models.Workflow) error {
	if w.Name == "" || len(w.Steps) == 0 {
		return fmt.Errorf("%w: workflow needs a name and at least one step", ErrValidation)
	}
	for i := range w.Steps {
		if w.Steps[i].Title == "" {
			return fmt.Errorf("%w: step %d has no title", ErrValidation, i+1)
		}
		if w.Steps[i].DaysToComplete < 0 {
			return fmt.Errorf("%w: step %d has negative days_to_complete", ErrValidation, i+1)
		}
	}
	now := s.now()
	w.CreatedAt = now
	w.UpdatedAt = now
	return s.workflows.Store(ctx, w)
}

func (s *workflowService) GetByID(ctx context.Context, id int64) (*models.Workflow, error) {
	return s.workflows.FindByID(ctx, id)
}

func (s *workflowService) List(ctx context.Context, filter models.WorkflowFilter) ([]models.Workflow, error) {
	return s.workflows.FindAll(ctx, filter)
}

func (s *workflowService) ExecuteWorkflow(ctx context.Context, workflowID, caseID, actingUserID int64) ([]models.Task, error) {
	w, err := s.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("load workflow %d: %w", workflowID, err)
	}
	if w == nil {
		return nil, ErrWorkflowNotFound
	}
	return s.execute(ctx, w, caseID, actingUserID)
}

// execute runs one loaded workflow. A step failure aborts the remaining
// steps of this run; callers that fan out over multiple workflows isolate
// failures per workflow.
func (s *workflowService) execute(ctx context.Context, w *models.Workflow, caseID, actingUserID int64) ([]models.Task, error) {
	if !w.IsActive {
		return nil, fmt.Errorf("%w: workflow %d", ErrWorkflowInactive, w.ID)
	}
	kase, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case %d: %w", caseID, err)
	}
	if kase == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrCaseNotFound, caseID)
	}

	steps := make([]models.WorkflowStep, len(w.Steps))
	copy(steps, w.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	now := s.now()
	var created []models.Task
	for _, step := range steps {
		assigneeID := actingUserID
		if step.AutoAssign && step.AssignToRole != "" {
			candidates, err := s.users.FindActiveByRole(ctx, step.AssignToRole)
			if err != nil {
				return created, fmt.Errorf("resolve role %q for step %d: %w", step.AssignToRole, step.Order, err)
			}
			if len(candidates) > 0 {
				assigneeID = candidates[0].ID
			} else {
				log.Printf("[workflow][exec][warn] workflow=%d step=%d no active %q, assigning to acting user", w.ID, step.Order, step.AssignToRole)
			}
		}

		days := step.DaysToComplete
		if days <= 0 {
			days = defaultStepDays
		}
		dueDate := now.AddDate(0, 0, days)

		priority := step.Priority
		if priority == "" {
			priority = models.PriorityMedium
		}

		task := models.Task{
			CaseID:      caseID,
			AssigneeID:  assigneeID,
			AssignerID:  actingUserID,
			Title:       step.Title,
			Description: step.Description,
			Type:        step.TaskType,
			Priority:    priority,
			Status:      models.StatusPending,
			DueDate:     &dueDate,
			WorkflowID:  &w.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.tasks.Store(ctx, &task); err != nil {
			return created, fmt.Errorf("create task for step %d of workflow %d: %w", step.Order, w.ID, err)
		}
		s.notifier.Send(ctx, Notification{
			Type:        "task_assigned",
			RecipientID: assigneeID,
			Subject:     "New task: " + task.Title,
			Body:        fmt.Sprintf("Task %q on case %s is due %s.", task.Title, kase.Number, dueDate.Format("2006-01-02")),
			Metadata:    map[string]string{"task_id": fmt.Sprint(task.ID), "workflow_id": fmt.Sprint(w.ID)},
		})
		created = append(created, task)
	}

	if err := s.workflows.MarkExecuted(ctx, w.ID, now); err != nil {
		return created, fmt.Errorf("mark workflow %d executed: %w", w.ID, err)
	}
	log.Printf("[workflow][exec][ok] workflow=%d case=%d tasks=%d", w.ID, caseID, len(created))
	return created, nil
}

// TriggerByEvent runs every active workflow bound to the event. One
// workflow's failure is logged and does not stop the others.
func (s *workflowService) TriggerByEvent(ctx context.Context, event models.TriggerEvent, caseID, userID int64) ([]WorkflowExecution, error) {
	matching, err := s.workflows.ListActiveByTrigger(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("list workflows for event %q: %w", event, err)
	}

	var results []WorkflowExecution
	for i := range matching {
		w := &matching[i]
		tasks, err := s.execute(ctx, w, caseID, userID)
		if err != nil {
			log.Printf("[workflow][trigger][err] event=%s workflow=%d case=%d: %v", event, w.ID, caseID, err)
			continue
		}
		results = append(results, WorkflowExecution{WorkflowID: w.ID, Tasks: tasks})
	}
	log.Printf("[workflow][trigger][ok] event=%s case=%d matched=%d succeeded=%d", event, caseID, len(matching), len(results))
	return results, nil
}

// CloneWorkflow copies a workflow verbatim for a new owner, suffixing the
// name. The clone starts as a plain active workflow, not a template.
func (s *workflowService) CloneWorkflow(ctx context.Context, sourceID, newOwnerID int64) (*models.Workflow, error) {
	src, err := s.workflows.FindByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load workflow %d: %w", sourceID, err)
	}
	if src == nil {
		return nil, ErrWorkflowNotFound
	}

	now := s.now()
	clone := &models.Workflow{
		OwnerID:      newOwnerID,
		Name:         src.Name + " (Copy)",
		Description:  src.Description,
		Type:         src.Type,
		IsTemplate:   false,
		IsActive:     true,
		TriggerEvent: src.TriggerEvent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, step := range src.Steps {
		clone.Steps = append(clone.Steps, models.WorkflowStep{
			Order:          step.Order,
			Title:          step.Title,
			Description:    step.Description,
			TaskType:       step.TaskType,
			AssignToRole:   step.AssignToRole,
			DaysToComplete: step.DaysToComplete,
			Priority:       step.Priority,
			AutoAssign:     step.AutoAssign,
		})
	}
	if err := s.workflows.Store(ctx, clone); err != nil {
		return nil, fmt.Errorf("store clone of workflow %d: %w", sourceID, err)
	}
	return clone, nil
}

// Recommendations returns the most used active templates matching the
// case's type (plus the generic catch-all), capped at 5.
func (s *workflowService) Recommendations(ctx context.Context, caseID int64) ([]models.Workflow, error) {
	kase, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("load case %d: %w", caseID, err)
	}
	if kase == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrCaseNotFound, caseID)
	}
	return s.workflows.ListTemplatesByTypes(ctx, []string{kase.CaseType, "generic"}, 5)
}
