package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/projectly-api/internal/dto"
	"github.com/yukikurage/projectly-api/internal/models"
	"github.com/yukikurage/projectly-api/internal/repository"
)

func (s *ServiceTestSuite) TestDashboard_Counts() {
	projectID := s.createProject()
	for _, status := range []models.TaskStatus{
		models.TaskStatusOpen, models.TaskStatusOpen, models.TaskStatusResolved, models.TaskStatusVerified,
	} {
		id := s.createTask(projectID, s.user.ID)
		s.setStatus(id, status)
	}

	d, err := s.analytics.Dashboard(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(int64(1), d.TotalProjects)
	s.Equal(int64(4), d.TotalTasks)
	s.Equal(int64(2), d.PendingTasks)
	s.Equal(int64(1), d.CompletedTasks)
	s.Equal(int64(4), d.TotalUsers)
	s.ElementsMatch([]dto.StatusCount{
		{Status: "open", Count: 2},
		{Status: "resolved", Count: 1},
		{Status: "verified", Count: 1},
	}, d.TasksByStatus)
	s.Equal([]dto.ProjectTaskCount{{ProjectID: projectID, Title: "Project", Count: 4}}, d.TasksByProject)
}

func (s *ServiceTestSuite) TestDashboard_Empty() {
	d, err := s.analytics.Dashboard(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Zero(d.TotalTasks)
	s.NotNil(d.TasksByStatus)
	s.NotNil(d.TasksByProject)
}

func (s *ServiceTestSuite) TestAnalytics_TicketsPerUser() {
	projectID := s.createProject()
	for _, status := range []models.TaskStatus{models.TaskStatusResolved, models.TaskStatusVerified} {
		id := s.createTask(projectID, s.user.ID)
		s.setStatus(id, status)
	}
	s.createTask(projectID, s.other.ID)

	a, err := s.analytics.Analytics(s.ctx, s.moderator)
	s.Require().NoError(err)
	s.Equal([]dto.UserTickets{{UserID: s.user.ID, Name: "user", Count: 2}}, a.TicketsPerUser)
	s.ElementsMatch([]dto.StatusCount{
		{Status: "open", Count: 1},
		{Status: "resolved", Count: 1},
		{Status: "verified", Count: 1},
	}, a.TaskStatus)
	s.Equal([]dto.StatusCount{{Status: "active", Count: 1}}, a.ProjectStatus)
}

func (s *ServiceTestSuite) TestAnalytics_ModeratorPerformance() {
	withTasks := s.createProject()
	for _, status := range []models.TaskStatus{models.TaskStatusResolved, models.TaskStatusOpen, models.TaskStatusOpen} {
		id := s.createTask(withTasks, s.user.ID)
		s.setStatus(id, status)
	}
	// A project without tasks still contributes one row.
	s.createProject()

	a, err := s.analytics.Analytics(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(a.ModeratorPerformance, 1)
	m := a.ModeratorPerformance[0]
	s.Equal(s.moderator.ID, m.ModeratorID)
	s.Equal("mod", m.Name)
	s.Equal(int64(4), m.TotalTasks)
	s.Equal(int64(1), m.CompletedTasks)
	s.InDelta(25.0, m.Performance, 0.0001)
}

func (s *ServiceTestSuite) TestAnalytics_Forbidden() {
	_, err := s.analytics.Analytics(s.ctx, s.user)
	s.requireKind(err, KindForbidden)
}

func (s *ServiceTestSuite) TestPerformance() {
	s.Equal(0.0, Performance(0, 0))
	s.Equal(50.0, Performance(1, 2))
	s.Equal(100.0, Performance(3, 3))
}

// blockingProjectRepo holds Count until release is closed or the query
// context is cancelled.
type blockingProjectRepo struct {
	repository.ProjectRepository
	entered chan struct{}
	release chan struct{}
}

func (r *blockingProjectRepo) Count(ctx context.Context) (int64, error) {
	r.entered <- struct{}{}
	select {
	case <-r.release:
		return r.ProjectRepository.Count(ctx)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (s *ServiceTestSuite) TestDashboard_SharedComputationSurvivesCallerCancel() {
	s.createProject()

	blocking := &blockingProjectRepo{
		ProjectRepository: s.projectRepo,
		entered:           make(chan struct{}, 2),
		release:           make(chan struct{}),
	}
	svc := NewAnalyticsService(blocking, s.taskRepo, s.userRepo, repository.NewAnalyticsRepository(s.db), zap.NewNop())

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Dashboard(ctxA, s.user)
		errA <- err
	}()
	<-blocking.entered

	type result struct {
		resp *dto.DashboardResponse
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		resp, err := svc.Dashboard(context.Background(), s.moderator)
		resB <- result{resp, err}
	}()
	// Let the second caller join the computation in flight.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		s.True(errors.Is(err, context.Canceled), "%v", err)
	case <-time.After(5 * time.Second):
		s.FailNow("cancelled caller did not return")
	}

	close(blocking.release)
	select {
	case res := <-resB:
		s.Require().NoError(res.err)
		s.Equal(int64(1), res.resp.TotalProjects)
	case <-time.After(5 * time.Second):
		s.FailNow("second caller did not return")
	}
}
