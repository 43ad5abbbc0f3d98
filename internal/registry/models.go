package registry

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// VerificationStatus represents the lifecycle state of a project
type VerificationStatus string

const (
	StatusPending       VerificationStatus = "PENDING"
	StatusAwaitingAudit VerificationStatus = "AWAITING_AUDIT"
	StatusUnderReview   VerificationStatus = "UNDER_REVIEW"
	StatusVerified      VerificationStatus = "VERIFIED"
	StatusRejected      VerificationStatus = "REJECTED"
	StatusMonitoring    VerificationStatus = "MONITORING"
	StatusExpired       VerificationStatus = "EXPIRED"
)

// ProjectSector categorizes the physical activity behind a project
type ProjectSector string

const (
	SectorBlueCarbon      ProjectSector = "BLUE_CARBON"
	SectorForestry        ProjectSector = "FORESTRY"
	SectorRenewableEnergy ProjectSector = "RENEWABLE_ENERGY"
	SectorWasteManagement ProjectSector = "WASTE_MANAGEMENT"
	SectorAgriculture     ProjectSector = "AGRICULTURE"
	SectorIndustrial      ProjectSector = "INDUSTRIAL"
)

// Maximum lengths for length-capped string fields, carried over from the
// on-chain account layout.
const (
	MaxProjectIDLen   = 32
	MaxRegistryIDLen  = 50
	MaxCIDLen         = 46
	MaxCountryCodeLen = 4
	MaxRegionNameLen  = 50
	MaxAuditStatusLen = 20
)

// CreditScale converts whole verified carbon tons to credit token units
// (6 decimals, 1 token = 1 ton).
const CreditScale = uint64(1_000_000)

// AuditStatusApproved is the compliance gate value required before any
// credits can be issued.
const AuditStatusApproved = "Approved"

// GeoLocation holds the geographic claim of a project
type GeoLocation struct {
	Latitude    float64        `gorm:"not null" json:"latitude"`
	Longitude   float64        `gorm:"not null" json:"longitude"`
	Polygon     datatypes.JSON `json:"polygon"` // GeoJSON geometry
	CountryCode string         `gorm:"size:4" json:"country_code"`
	RegionName  string         `gorm:"size:50" json:"region_name"`
}

// ComplianceState tracks national-registry and Article 6 compliance
type ComplianceState struct {
	CCTSRegistryID        string `gorm:"size:50" json:"ccts_registry_id"`
	LoAIssued             bool   `json:"loa_issued"`
	DoubleCountingID      string `gorm:"size:64" json:"double_counting_prevention_id"`
	AuditStatus           string `gorm:"size:20" json:"audit_status"`
	AuthorizedExportLimit uint64 `json:"authorized_export_limit"`
}

// VerificationData holds oracle-extracted evidence references
type VerificationData struct {
	SatelliteDataHash    string    `gorm:"size:64" json:"satellite_data_hash"`
	IoTDataHash          string    `gorm:"size:64" json:"iot_data_hash"`
	AuditReportCID       string    `gorm:"size:46" json:"audit_report_cid"`
	LastVerificationDate time.Time `json:"last_verification_date"`
}

// Project is the central record for one registered environmental project.
// Exactly one record exists per (owner, project id); the project id doubles
// as the national registry identifier and is globally unique.
type Project struct {
	ProjectID           string             `gorm:"size:32;primaryKey" json:"project_id"`
	Owner               string             `gorm:"size:64;not null;index" json:"owner"`
	IPFSCID             string             `gorm:"size:46" json:"ipfs_cid"`
	CarbonTonsEstimated uint64             `json:"carbon_tons_estimated"`
	VerificationStatus  VerificationStatus `gorm:"size:20;not null" json:"verification_status"`
	CreditsIssued       uint64             `json:"credits_issued"`
	TokensMinted        uint64             `json:"tokens_minted"`

	Sector            ProjectSector `gorm:"size:20;not null" json:"project_sector"`
	Location          GeoLocation   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	AreaHectares      float64       `json:"area_hectares"`
	EstablishmentDate time.Time     `json:"establishment_date"`

	Compliance ComplianceState `gorm:"embedded;embeddedPrefix:compliance_" json:"compliance"`

	// Escrow. Verifier is meaningful only when VerifierAssigned is true;
	// the pair models the assigned/unassigned variant explicitly so the
	// release authorization branch stays exhaustive.
	Verifier           string `gorm:"size:64" json:"verifier,omitempty"`
	VerifierAssigned   bool   `json:"verifier_assigned"`
	VerificationFee    uint64 `json:"verification_fee"`
	AuditEscrowBalance uint64 `json:"audit_escrow_balance"`

	VerificationData VerificationData `gorm:"embedded;embeddedPrefix:verification_" json:"verification_data"`

	VintageYear       uint16         `json:"vintage_year"`
	PricePerTon       uint64         `json:"price_per_ton"`
	AvailableQuantity uint64         `json:"available_quantity"`
	QualityRating     uint8          `json:"quality_rating"` // 0 = unset, 1-5 once verified
	CoBenefits        datatypes.JSON `json:"co_benefits"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VerifiedCapacity returns the issuance ceiling in credit token units,
// or ErrMathOverflow when the scaled tonnage does not fit in 64 bits.
func (p *Project) VerifiedCapacity() (uint64, error) {
	if p.CarbonTonsEstimated > math.MaxUint64/CreditScale {
		return 0, ErrMathOverflow
	}
	return p.CarbonTonsEstimated * CreditScale, nil
}

// GlobalRegistry is the singleton aggregate for the whole ledger. All
// mutation flows through the same transaction as the project record that
// triggered it.
type GlobalRegistry struct {
	ID                  uint   `gorm:"primaryKey" json:"-"`
	TotalCreditsIssued  uint64 `json:"total_credits_issued"`
	TotalProjects       uint64 `json:"total_projects"`
	Admin               string `gorm:"size:64" json:"admin"`
	GovernmentAuthority string `gorm:"size:64" json:"government_authority"`
	CarbonTokenMint     string `gorm:"size:64" json:"carbon_token_mint"`

	UpdatedAt time.Time `json:"updated_at"`
}

// GlobalRegistryID is the fixed primary key of the singleton row.
const GlobalRegistryID = uint(1)
