package services

import "lexflow/internal/models"

// Allowed task status transitions. Completed and cancelled are terminal,
// except that re-completing a completed task is tolerated (and keeps the
// original completion timestamp).
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusPending:    {models.StatusInProgress: true, models.StatusCancelled: true, models.StatusOnHold: true, models.StatusCompleted: true},
	models.StatusInProgress: {models.StatusCompleted: true, models.StatusCancelled: true, models.StatusOnHold: true},
	models.StatusOnHold:     {models.StatusPending: true, models.StatusInProgress: true, models.StatusCancelled: true},
	models.StatusCompleted:  {models.StatusCompleted: true},
	models.StatusCancelled:  {},
}

func IsTaskTransitionAllowed(current, to models.TaskStatus) bool {
	if current == to {
		return true
	}
	nexts, ok := TaskTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}
