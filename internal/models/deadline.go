// internal/models/deadline.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type DeadlineType string

const (
	DeadlineStatute          DeadlineType = "statute_of_limitations"
	DeadlineCourtDate        DeadlineType = "court_date"
	DeadlineDiscovery        DeadlineType = "discovery"
	DeadlineFiling           DeadlineType = "filing"
	DeadlineExpertDisclosure DeadlineType = "expert_disclosure"
	DeadlineMotions          DeadlineType = "motions"
)

type DeadlineStatus string

const (
	DeadlineUpcoming  DeadlineStatus = "upcoming"
	DeadlineDueSoon   DeadlineStatus = "due_soon"
	DeadlineOverdue   DeadlineStatus = "overdue"
	DeadlineCompleted DeadlineStatus = "completed"
	DeadlineCancelled DeadlineStatus = "cancelled"
)

type DeadlinePriority string

const (
	DeadlinePriorityLow      DeadlinePriority = "low"
	DeadlinePriorityMedium   DeadlinePriority = "medium"
	DeadlinePriorityHigh     DeadlinePriority = "high"
	DeadlinePriorityCritical DeadlinePriority = "critical"
)

// Reminder is one entry of a deadline's reminder cascade.
type Reminder struct {
	At   time.Time `json:"at"`
	Sent bool      `json:"sent"`
}

// ReminderList is stored as a JSONB column; order is the cascade order.
type ReminderList []Reminder

func (l ReminderList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ReminderList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("reminders: unsupported scan type %T", src)
}

// Deadline represents a dated legal obligation on a case.
type Deadline struct {
	ID          int64            `json:"id"`
	CaseID      int64            `json:"case_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        DeadlineType     `json:"type"`
	Date        time.Time        `json:"date"`
	Reminders   ReminderList     `json:"reminders"`
	Priority    DeadlinePriority `json:"priority"`
	Status      DeadlineStatus   `json:"status"`
	AssigneeIDs []int64          `json:"assignee_ids"`
	TaskID      *int64           `json:"task_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
