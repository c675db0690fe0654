// internal/models/workflow.go
package models

import "time"

// TriggerEvent names a case-lifecycle event that can launch workflows.
type TriggerEvent string

const (
	TriggerCaseCreated      TriggerEvent = "case_created"
	TriggerRecordsReceived  TriggerEvent = "records_received"
	TriggerCaseClosing      TriggerEvent = "case_closing"
	TriggerManual           TriggerEvent = "manual"
	TriggerMilestoneReached TriggerEvent = "milestone_reached"
)

// WorkflowStep is one task-generation step of a workflow template.
// Steps execute in ascending Order.
type WorkflowStep struct {
	ID             int64        `json:"id"`
	WorkflowID     int64        `json:"workflow_id"`
	Order          int          `json:"order"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	TaskType       string       `json:"task_type"`
	AssignToRole   string       `json:"assign_to_role"`
	DaysToComplete int          `json:"days_to_complete"`
	Priority       TaskPriority `json:"priority"`
	AutoAssign     bool         `json:"auto_assign"`
}

// Workflow is a reusable ordered list of task-generation steps.
type Workflow struct {
	ID           int64          `json:"id"`
	OwnerID      int64          `json:"owner_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Type         string         `json:"type"` // case type it applies to, or "generic"
	IsTemplate   bool           `json:"is_template"`
	IsActive     bool           `json:"is_active"`
	TriggerEvent TriggerEvent   `json:"trigger_event"`
	Steps        []WorkflowStep `json:"steps"`
	UsageCount   int            `json:"usage_count"`
	LastExecuted *time.Time     `json:"last_executed,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// WorkflowFilter defines the available parameters for listing workflows.
type WorkflowFilter struct {
	OwnerID      *int64
	Type         *string
	IsTemplate   *bool
	IsActive     *bool
	TriggerEvent *TriggerEvent
}
