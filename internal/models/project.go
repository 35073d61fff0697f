package models

import "time"

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusActive || s == ProjectStatusCompleted
}

// Project references its moderator and members by id only. Deleting a
// referenced user leaves the reference in place.
type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	ModeratorID uint64        `gorm:"not null;index" json:"moderatorId"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Relations
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`
}

// MemberIDs returns member ids in their stored order.
func (p Project) MemberIDs() []uint64 {
	ids := make([]uint64, len(p.Members))
	for i, m := range p.Members {
		ids[i] = m.UserID
	}
	return ids
}
