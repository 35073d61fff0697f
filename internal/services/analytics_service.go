package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yukikurage/projectly-api/internal/constants"
	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/repository"
)

// AnalyticsService computes the dashboard and analytics reports. Reports
// are computed on every request; concurrent identical requests share one
// computation.
type AnalyticsService struct {
	projectRepo   repository.ProjectRepository
	taskRepo      repository.TaskRepository
	userRepo      repository.UserRepository
	analyticsRepo repository.AnalyticsRepository
	group         singleflight.Group
	log           *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	analyticsRepo repository.AnalyticsRepository,
	log *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		projectRepo:   projectRepo,
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		analyticsRepo: analyticsRepo,
		log:           log.Named("analytics"),
	}
}

// Dashboard returns global counts. Any authenticated actor may read it.
func (s *AnalyticsService) Dashboard(ctx context.Context, actor policy.Actor) (*dto.DashboardResponse, error) {
	if err := authorize(actor, policy.ViewDashboard); err != nil {
		return nil, err
	}

	v, err, _ := s.share(ctx, "dashboard", func(ctx context.Context) (interface{}, error) {
		return s.dashboard(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.DashboardResponse), nil
}

// share runs fn once for all concurrent callers of key. The computation
// does not inherit the cancellation of whichever caller started it; each
// caller stops waiting when its own ctx is done.
func (s *AnalyticsService) share(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ReportTimeout)
		defer cancel()
		return fn(runCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-ch:
		return res.Val, res.Err, res.Shared
	}
}

func (s *AnalyticsService) dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	var (
		resp      dto.DashboardResponse
		byStatus  []repository.Group
		byProject []repository.ProjectTaskCount
	)
	verified := models.TaskStatusVerified
	open := models.TaskStatusOpen

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resp.TotalProjects, err = s.projectRepo.Count(ctx)
		return wrap("count projects", err)
	})
	g.Go(func() (err error) {
		resp.TotalTasks, err = s.taskRepo.Count(ctx, repository.TaskFilter{})
		return wrap("count tasks", err)
	})
	g.Go(func() (err error) {
		resp.CompletedTasks, err = s.taskRepo.Count(ctx, repository.TaskFilter{Status: &verified})
		return wrap("count completed tasks", err)
	})
	g.Go(func() (err error) {
		resp.PendingTasks, err = s.taskRepo.Count(ctx, repository.TaskFilter{Status: &open})
		return wrap("count pending tasks", err)
	})
	g.Go(func() (err error) {
		resp.TotalUsers, err = s.userRepo.Count(ctx)
		return wrap("count users", err)
	})
	g.Go(func() (err error) {
		byStatus, err = s.taskRepo.CountGroupedBy(ctx, "status", repository.TaskFilter{})
		return wrap("group tasks by status", err)
	})
	g.Go(func() (err error) {
		byProject, err = s.analyticsRepo.TasksPerProject(ctx)
		return wrap("group tasks by project", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.TasksByStatus = statusCounts(byStatus)
	resp.TasksByProject = make([]dto.ProjectTaskCount, len(byProject))
	for i, row := range byProject {
		resp.TasksByProject[i] = dto.ProjectTaskCount{ProjectID: row.ProjectID, Title: row.Title, Count: row.Count}
	}
	return &resp, nil
}

// Analytics returns status histograms and per-user and per-moderator
// statistics.
func (s *AnalyticsService) Analytics(ctx context.Context, actor policy.Actor) (*dto.AnalyticsResponse, error) {
	if err := authorize(actor, policy.ViewAnalytics); err != nil {
		return nil, err
	}

	v, err, shared := s.share(ctx, "analytics", func(ctx context.Context) (interface{}, error) {
		return s.analytics(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("analytics computation shared")
	}
	return v.(*dto.AnalyticsResponse), nil
}

func (s *AnalyticsService) analytics(ctx context.Context) (*dto.AnalyticsResponse, error) {
	var (
		projectStatus []repository.Group
		taskStatus    []repository.Group
		tickets       []repository.UserTicketCount
		moderators    []repository.ModeratorTaskCount
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projectStatus, err = s.projectRepo.CountGroupedBy(ctx, "status")
		return wrap("group projects by status", err)
	})
	g.Go(func() (err error) {
		taskStatus, err = s.taskRepo.CountGroupedBy(ctx, "status", repository.TaskFilter{})
		return wrap("group tasks by status", err)
	})
	g.Go(func() (err error) {
		tickets, err = s.analyticsRepo.TicketsPerUser(ctx)
		return wrap("count tickets per user", err)
	})
	g.Go(func() (err error) {
		moderators, err = s.analyticsRepo.ModeratorPerformance(ctx)
		return wrap("compute moderator performance", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &dto.AnalyticsResponse{
		ProjectStatus:        statusCounts(projectStatus),
		TaskStatus:           statusCounts(taskStatus),
		TicketsPerUser:       make([]dto.UserTickets, len(tickets)),
		ModeratorPerformance: make([]dto.ModeratorPerformance, len(moderators)),
	}
	for i, t := range tickets {
		resp.TicketsPerUser[i] = dto.UserTickets{UserID: t.UserID, Name: t.Name, Count: t.Count}
	}
	for i, m := range moderators {
		resp.ModeratorPerformance[i] = dto.ModeratorPerformance{
			ModeratorID:    m.ModeratorID,
			Name:           m.Name,
			TotalTasks:     m.TotalTasks,
			CompletedTasks: m.CompletedTasks,
			Performance:    Performance(m.CompletedTasks, m.TotalTasks),
		}
	}
	return resp, nil
}

// Performance is completed/total as a percentage, 0 when total is 0.
func Performance(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

func statusCounts(groups []repository.Group) []dto.StatusCount {
	out := make([]dto.StatusCount, len(groups))
	for i, g := range groups {
		out[i] = dto.StatusCount{Status: g.Key, Count: g.Count}
	}
	return out
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}
