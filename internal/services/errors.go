package services

import (
	"errors"
)

// Kind classifies service errors for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindForbidden
	KindUnauthenticated
	KindConflict
	KindUnavailable
)

// Error is a classified, user-facing service error. Anything returned by a
// service that is not an *Error is a store failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// validation wraps a validation error from another package.
func validation(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUserNotFound      = newError(KindNotFound, "User not found")
	ErrProjectNotFound   = newError(KindNotFound, "Project not found")
	ErrTaskNotFound      = newError(KindNotFound, "Task not found")
	ErrModeratorNotFound = newError(KindNotFound, "Moderator not found")
	ErrAssigneeNotFound  = newError(KindNotFound, "Assigned user not found")
	ErrMemberNotFound    = newError(KindNotFound, "One or more members do not exist")

	ErrNotModerator        = newError(KindValidation, "Selected user must be a moderator or admin")
	ErrProjectFieldsNeeded = newError(KindValidation, "Title and moderator are required")
	ErrTaskFieldsNeeded    = newError(KindValidation, "Title, project, and assignedTo are required")
	ErrTitleEmpty          = newError(KindValidation, "Title cannot be empty")
	ErrTitleTooLong        = newError(KindValidation, "Title is too long")
	ErrInvalidStatus       = newError(KindValidation, "Invalid status")
	ErrInvalidPriority     = newError(KindValidation, "Invalid priority")
	ErrInvalidRole         = newError(KindValidation, "Invalid role")
	ErrStatusRequired      = newError(KindValidation, "Status or resolvedNote is required")
	ErrUserFieldsNeeded    = newError(KindValidation, "Name, email, and password are required")
	ErrPasswordTooShort    = newError(KindValidation, "Password must be at least 6 characters")
	ErrDeleteSelf          = newError(KindValidation, "You cannot delete your own account")
	ErrSuggestionText      = newError(KindValidation, "Text is required")
	ErrSuggestionTooLong   = newError(KindValidation, "Text is too long")
	ErrInvalidDueDate      = newError(KindValidation, "Invalid dueDate, expected YYYY-MM-DD or RFC3339")

	ErrForbidden       = newError(KindForbidden, "Access denied")
	ErrTaskNotVisible  = newError(KindForbidden, "Not authorized to view this task")
	ErrTaskNotAssignee = newError(KindForbidden, "Not authorized to update this task")

	ErrInvalidCredentials = newError(KindUnauthenticated, "Invalid email or password")

	ErrEmailTaken = newError(KindConflict, "User already exists")
	// ErrStatusChanged means the status moved between reading and writing it.
	ErrStatusChanged = newError(KindConflict, "Task status changed, please retry")

	ErrAIServiceNotConfigured = newError(KindUnavailable, "AI service is not configured")
	ErrAINoTasksGenerated     = newError(KindUnavailable, "AI did not generate any tasks")
)
