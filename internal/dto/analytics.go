package dto

// StatusCount is one bucket of a status histogram
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ProjectTaskCount is the number of tasks referencing a project
type ProjectTaskCount struct {
	ProjectID uint64 `json:"projectId"`
	Title     string `json:"title"`
	Count     int64  `json:"count"`
}

// DashboardResponse holds the counts shown on the dashboard
type DashboardResponse struct {
	TotalProjects  int64              `json:"totalProjects"`
	TotalTasks     int64              `json:"totalTasks"`
	CompletedTasks int64              `json:"completedTasks"`
	PendingTasks   int64              `json:"pendingTasks"`
	TotalUsers     int64              `json:"totalUsers"`
	TasksByStatus  []StatusCount      `json:"tasksByStatus"`
	TasksByProject []ProjectTaskCount `json:"tasksByProject"`
}

// UserTickets is the number of finished tasks of one assignee
type UserTickets struct {
	UserID uint64 `json:"userId"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

// ModeratorPerformance summarizes the tasks over a moderator's projects
type ModeratorPerformance struct {
	ModeratorID    uint64  `json:"moderatorId"`
	Name           string  `json:"name"`
	TotalTasks     int64   `json:"totalTasks"`
	CompletedTasks int64   `json:"completedTasks"`
	Performance    float64 `json:"performance"`
}

// AnalyticsResponse holds the moderator analytics report
type AnalyticsResponse struct {
	ProjectStatus        []StatusCount          `json:"projectStatus"`
	TaskStatus           []StatusCount          `json:"taskStatus"`
	TicketsPerUser       []UserTickets          `json:"ticketsPerUser"`
	ModeratorPerformance []ModeratorPerformance `json:"moderatorPerformance"`
}
