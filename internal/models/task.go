// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
	StatusOnHold     TaskStatus = "on_hold"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// RecurrencePattern governs automatic regeneration of a completed
// recurring task. Meaningful only when Task.IsRecurring is true.
type RecurrencePattern struct {
	Frequency      string     `json:"frequency"` // daily|weekly|monthly|yearly
	Interval       int        `json:"interval"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	NextOccurrence *time.Time `json:"next_occurrence,omitempty"`
}

// Task represents the structure of a task in the system.
type Task struct {
	ID               int64             `json:"id"`
	CaseID           int64             `json:"case_id"`
	AssigneeID       int64             `json:"assignee_id"`
	AssignerID       int64             `json:"assigner_id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Type             string            `json:"type"`
	Priority         TaskPriority      `json:"priority"`
	Status           TaskStatus        `json:"status"`
	DueDate          *time.Time        `json:"due_date,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	IsRecurring      bool              `json:"is_recurring"`
	Recurrence       RecurrencePattern `json:"recurrence"`
	LastReminderSent *time.Time        `json:"last_reminder_sent,omitempty"`
	WorkflowID       *int64            `json:"workflow_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	AssigneeID *int64
	AssignerID *int64
	CaseID     *int64
	WorkflowID *int64
	Status     *TaskStatus
}
