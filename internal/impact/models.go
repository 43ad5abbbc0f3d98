package impact

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CommunityBenefit quantifies a social co-benefit over a reporting period
type CommunityBenefit struct {
	BenefitType              string  `json:"benefit_type"`
	HouseholdsAffected       uint32  `json:"households_affected"`
	JobsCreated              uint32  `json:"jobs_created"`
	IncomeIncreasePercentage float64 `json:"income_increase_percentage"`
}

// Report is one periodic impact report filed against a project
type Report struct {
	ID                    uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID             string         `gorm:"size:32;not null;index" json:"project_id"`
	PeriodStart           time.Time      `json:"reporting_period_start"`
	PeriodEnd             time.Time      `json:"reporting_period_end"`
	CarbonSequestered     float64        `json:"carbon_sequestered"`
	EcosystemHealthChange float64        `json:"ecosystem_health_improvement"`
	BiodiversityIncrease  float64        `json:"biodiversity_increase"`
	CommunityBenefits     datatypes.JSON `json:"community_benefits"`
	SDGContributions      datatypes.JSON `json:"sdg_contributions"`
	VerificationReportCID string         `gorm:"size:46" json:"verification_report_cid"`
	CreatedAt             time.Time      `json:"created_at"`
}
