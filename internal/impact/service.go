// Package impact records periodic impact reports filed against registered
// projects.
package impact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmitRequest is an incoming impact report
type SubmitRequest struct {
	ProjectID             string             `json:"project_id" binding:"required"`
	PeriodStart           time.Time          `json:"reporting_period_start"`
	PeriodEnd             time.Time          `json:"reporting_period_end"`
	CarbonSequestered     float64            `json:"carbon_sequestered"`
	EcosystemHealthChange float64            `json:"ecosystem_health_improvement"`
	BiodiversityIncrease  float64            `json:"biodiversity_increase"`
	CommunityBenefits     []CommunityBenefit `json:"community_benefits"`
	SDGContributions      []uint8            `json:"sdg_contributions"`
	VerificationReportCID string             `json:"verification_report_cid"`
}

// Service records and serves impact reports.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates an impact reporting service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Submit validates and stores an impact report.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Report, error) {
	if req.ProjectID == "" {
		return nil, errors.New("project ID is required")
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, errors.New("reporting period end must be after start")
	}

	benefits, err := json.Marshal(req.CommunityBenefits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode community benefits: %w", err)
	}
	sdgs, err := json.Marshal(req.SDGContributions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode SDG contributions: %w", err)
	}

	report := &Report{
		ProjectID:             req.ProjectID,
		PeriodStart:           req.PeriodStart,
		PeriodEnd:             req.PeriodEnd,
		CarbonSequestered:     req.CarbonSequestered,
		EcosystemHealthChange: req.EcosystemHealthChange,
		BiodiversityIncrease:  req.BiodiversityIncrease,
		CommunityBenefits:     benefits,
		SDGContributions:      sdgs,
		VerificationReportCID: req.VerificationReportCID,
		CreatedAt:             time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, fmt.Errorf("failed to store impact report: %w", err)
	}

	s.logger.Info("impact report filed",
		zap.String("project_id", req.ProjectID),
		zap.Float64("carbon_sequestered", req.CarbonSequestered))
	return report, nil
}

// ListByProject returns reports for a project, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]*Report, error) {
	var reports []*Report
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("period_end DESC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}
