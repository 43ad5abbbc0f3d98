// Package expiry periodically expires projects that never completed
// verification within the configured audit window.
package expiry

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"accord-registry/registry-backend/internal/registry"
)

// Sweeper runs the scheduled expiry pass.
type Sweeper struct {
	repo        registry.Repository
	service     *registry.Service
	auditWindow time.Duration
	schedule    string
	cron        *cron.Cron
	logger      *zap.Logger
}

// NewSweeper creates an expiry sweeper. schedule is a cron expression,
// auditWindow is how long a project may sit unverified.
func NewSweeper(repo registry.Repository, service *registry.Service, schedule string, auditWindow time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:        repo,
		service:     service,
		auditWindow: auditWindow,
		schedule:    schedule,
		cron:        cron.New(),
		logger:      logger,
	}
}

// Start schedules the sweep.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("expiry sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("audit_window", s.auditWindow))
	return nil
}

// Stop halts the schedule, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep expires every project still awaiting verification past the audit
// window. Each expiry is its own transaction; one failure does not stop
// the pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.auditWindow).Unix()

	for _, status := range []registry.VerificationStatus{registry.StatusPending, registry.StatusAwaitingAudit} {
		projects, err := s.repo.ListProjectsInStatus(ctx, status, cutoff)
		if err != nil {
			return err
		}

		for _, project := range projects {
			if _, err := s.service.ExpireProject(ctx, project.ProjectID); err != nil {
				s.logger.Warn("failed to expire project",
					zap.String("project_id", project.ProjectID),
					zap.Error(err))
				continue
			}
			s.logger.Info("project expired",
				zap.String("project_id", project.ProjectID),
				zap.String("previous_status", string(status)))
		}
	}
	return nil
}
