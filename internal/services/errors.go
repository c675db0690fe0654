package services

import "errors"

// Sentinel errors surfaced by the automation engine. Handlers map these
// onto HTTP statuses; periodic jobs log and keep going.
var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrDeadlineNotFound = errors.New("deadline not found")

	ErrWorkflowInactive = errors.New("workflow is not active")
	ErrNoEligibleUser   = errors.New("no eligible user for role")
	ErrUnknownJob       = errors.New("unknown scheduler job")
	ErrValidation       = errors.New("validation failed")
)
