// Package workflow holds the task lifecycle:
//
//	open -> in-progress -> resolved -> verified
//
// The first two steps go through a status update. The last one is only
// reachable by verification.
package workflow

import (
	"errors"

	"github.com/yukikurage/projectly-api/internal/models"
)

var (
	ErrInvalidStatus      = errors.New("Invalid status")
	ErrNotResolved        = errors.New("Task must be resolved before verification")
	ErrVerifyOnly         = errors.New("Tasks can only be verified through verification")
	ErrSkippedStep        = errors.New("Status must advance one step at a time")
	ErrBackwardTransition = errors.New("Status cannot move backwards")
)

var order = map[models.TaskStatus]int{
	models.TaskStatusOpen:       0,
	models.TaskStatusInProgress: 1,
	models.TaskStatusResolved:   2,
	models.TaskStatusVerified:   3,
}

// Initial is the status of a newly created task.
const Initial = models.TaskStatusOpen

// Next returns the status following s, or false when s is terminal or
// unknown.
func Next(s models.TaskStatus) (models.TaskStatus, bool) {
	switch s {
	case models.TaskStatusOpen:
		return models.TaskStatusInProgress, true
	case models.TaskStatusInProgress:
		return models.TaskStatusResolved, true
	case models.TaskStatusResolved:
		return models.TaskStatusVerified, true
	}
	return "", false
}

// CheckStatusChange validates a status update from one status to another.
// Staying in the same status is allowed so a note can be edited on its own.
func CheckStatusChange(from, to models.TaskStatus) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if from == to {
		return nil
	}
	if to == models.TaskStatusVerified {
		return ErrVerifyOnly
	}
	if order[to] < order[from] {
		return ErrBackwardTransition
	}
	if next, ok := Next(from); !ok || next != to {
		return ErrSkippedStep
	}
	return nil
}

// CheckVerify validates that a task in status s can be verified.
func CheckVerify(s models.TaskStatus) error {
	if s != models.TaskStatusResolved {
		return ErrNotResolved
	}
	return nil
}
