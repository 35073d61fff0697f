package models

import "time"

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusResolved   TaskStatus = "resolved"
	TaskStatusVerified   TaskStatus = "verified"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusResolved, TaskStatusVerified:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task holds weak references to its project, assignee and verifier.
type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	ProjectID    uint64       `gorm:"not null;index" json:"projectId"`
	AssignedToID uint64       `gorm:"not null;index" json:"assignedToId"`
	Priority     TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate      *time.Time   `json:"dueDate"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	ResolvedNote string       `gorm:"type:text" json:"resolvedNote"`
	VerifiedByID *uint64      `json:"verifiedById"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
