package services

import "studyplan/internal/models"

// Allowed task status transitions. Completion is final.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusPending:   {models.StatusPending: true, models.StatusCompleted: true},
	models.StatusCompleted: {models.StatusCompleted: true},
}

func canTransition(current, to models.TaskStatus) bool {
	if current == "" {
		return to.Valid()
	}
	nexts, ok := TaskTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}
