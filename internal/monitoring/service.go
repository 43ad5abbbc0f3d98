// Package monitoring ingests sensor and satellite snapshots for registered
// projects and drives the automatic trust-degradation trigger.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// StatusDowngrader is the registry hook that forces a Verified project
// into the Monitoring status.
type StatusDowngrader interface {
	MarkMonitoring(ctx context.Context, projectID string, healthScore float64) error
}

// Service handles monitoring ingestion.
type Service struct {
	repo       Repository
	downgrader StatusDowngrader
	logger     *zap.Logger
}

// NewService creates a monitoring ingestion service.
func NewService(repo Repository, downgrader StatusDowngrader, logger *zap.Logger) *Service {
	return &Service{repo: repo, downgrader: downgrader, logger: logger}
}

// Submit records a monitoring snapshot. The snapshot is always persisted;
// as a side effect a health score below the threshold downgrades the
// project's status to Monitoring. The downgrade is one-way: no automatic
// promotion back to Verified exists.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Snapshot, error) {
	if req.ProjectID == "" {
		return nil, errors.New("project ID is required")
	}
	if req.EcosystemHealthScore < 0 || req.EcosystemHealthScore > 100 {
		return nil, errors.New("ecosystem health score must be between 0 and 100")
	}

	waterQuality, err := json.Marshal(req.WaterQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode water quality: %w", err)
	}
	temperatures, err := json.Marshal(req.TemperatureData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode temperature data: %w", err)
	}
	sensorData, err := json.Marshal(req.IoTSensorData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sensor data: %w", err)
	}

	snapshot := &Snapshot{
		ProjectID:            req.ProjectID,
		Timestamp:            time.Now(),
		SatelliteImageryCID:  req.SatelliteImageryCID,
		NDVIIndex:            req.NDVIIndex,
		WaterQuality:         waterQuality,
		TemperatureData:      temperatures,
		IoTSensorData:        sensorData,
		EcosystemHealthScore: req.EcosystemHealthScore,
		CreatedAt:            time.Now(),
	}

	if err := s.repo.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store monitoring snapshot: %w", err)
	}

	if req.EcosystemHealthScore < HealthThreshold {
		if err := s.downgrader.MarkMonitoring(ctx, req.ProjectID, req.EcosystemHealthScore); err != nil {
			return nil, fmt.Errorf("snapshot stored but status downgrade failed: %w", err)
		}
	}

	s.logger.Info("monitoring snapshot recorded",
		zap.String("project_id", req.ProjectID),
		zap.Float64("health_score", req.EcosystemHealthScore))
	return snapshot, nil
}

// Latest returns the most recent snapshot for a project.
func (s *Service) Latest(ctx context.Context, projectID string) (*Snapshot, error) {
	return s.repo.Latest(ctx, projectID)
}

// History returns recent snapshots for a project, newest first.
func (s *Service) History(ctx context.Context, projectID string, limit int) ([]*Snapshot, error) {
	return s.repo.ListByProject(ctx, projectID, limit)
}
