package models

// ProjectMember keeps the member set of a project. Position preserves the
// order in which members were supplied.
type ProjectMember struct {
	ProjectID uint64 `gorm:"primarykey" json:"projectId"`
	UserID    uint64 `gorm:"primarykey;index" json:"userId"`
	Position  int    `gorm:"not null;default:0" json:"-"`
}
