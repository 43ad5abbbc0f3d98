package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"accord-registry/registry-backend/internal/dedup"
	"accord-registry/registry-backend/internal/escrow"
	"accord-registry/registry-backend/internal/verifiers"
	"accord-registry/registry-backend/pkg/geospatial"
)

// ClaimIndex is the double-counting prevention index consumed by
// registration.
type ClaimIndex interface {
	Claim(ctx context.Context, cell uint64, projectID string) error
}

// VerifierDirectory is the subset of the verifier directory used by the
// multi-party verification path.
type VerifierDirectory interface {
	Get(ctx context.Context, address string) (*verifiers.Verifier, error)
	RecordSuccess(ctx context.Context, address string) error
}

// Notifier receives lifecycle transitions for fan-out to subscribers.
type Notifier interface {
	StatusChanged(projectID string, from, to VerificationStatus)
}

// Policy carries the registry-level constants the service enforces.
type Policy struct {
	// MinVerificationFee is the smallest escrow deposit accepted at
	// registration, in native currency units.
	MinVerificationFee uint64
	// AuthorityAddress receives escrow consumed by a rejection.
	AuthorityAddress string
}

// Requests

type RegisterProjectRequest struct {
	ProjectID           string    `json:"project_id"`
	Owner               string    `json:"owner"`
	CCTSRegistryID      string    `json:"ccts_registry_id"`
	IPFSCID             string    `json:"ipfs_cid"`
	CarbonTonsEstimated uint64    `json:"carbon_tons_estimated"`
	Sector              ProjectSector `json:"project_sector"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	Polygon             json.RawMessage `json:"polygon,omitempty"`
	CountryCode         string    `json:"country_code"`
	RegionName          string    `json:"region_name"`
	AreaHectares        float64   `json:"area_hectares"`
	EstablishmentDate   time.Time `json:"establishment_date"`
	VintageYear         uint16    `json:"vintage_year"`
	PricePerTon         uint64    `json:"price_per_ton"`
	VerificationFee     uint64    `json:"verification_fee"`
	CoBenefits          []string  `json:"co_benefits,omitempty"`
}

type MultiPartyVerifyRequest struct {
	VerifierAddress       string `json:"verifier_address"`
	VerifiedCarbonTons    uint64 `json:"verified_carbon_tons"`
	QualityRating         uint8  `json:"quality_rating"`
	VerificationReportCID string `json:"verification_report_cid"`
}

type ComplianceApproval struct {
	CCTSRegistryID        string `json:"ccts_registry_id"`
	AuthorizedExportLimit uint64 `json:"authorized_export_limit"`
	LoAIssued             bool   `json:"loa_issued"`
}

// MarketplaceView is the read facade exposed to the external marketplace
// for gating listing creation.
type MarketplaceView struct {
	ProjectID          string             `json:"project_id"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	QualityRating      uint8              `json:"quality_rating"`
	CoBenefits         json.RawMessage    `json:"co_benefits"`
	VintageYear        uint16             `json:"vintage_year"`
	PricePerTon        uint64             `json:"price_per_ton"`
	AvailableQuantity  uint64             `json:"available_quantity"`
	CarbonTokenMint    string             `json:"carbon_token_mint"`
}

// Service implements the project lifecycle and escrow settlement engine.
type Service struct {
	repo         Repository
	index        ClaimIndex
	ledger       escrow.Ledger
	directory    VerifierDirectory
	stateMachine *StateMachine
	notifier     Notifier
	policy       Policy
	logger       *zap.Logger
}

// NewService creates the registry service.
func NewService(
	repo Repository,
	index ClaimIndex,
	ledger escrow.Ledger,
	directory VerifierDirectory,
	notifier Notifier,
	policy Policy,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:         repo,
		index:        index,
		ledger:       ledger,
		directory:    directory,
		stateMachine: NewStateMachine(),
		notifier:     notifier,
		policy:       policy,
		logger:       logger,
	}
}

// RegisterProject validates a registration request, claims the project's
// spatial cell, collects the verification escrow and creates the record in
// AwaitingAudit. Any failure aborts the whole operation.
func (s *Service) RegisterProject(ctx context.Context, req RegisterProjectRequest) (*Project, error) {
	if req.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}
	if req.Owner == "" {
		return nil, ErrOwnerRequired
	}
	if req.CCTSRegistryID == "" {
		return nil, ErrMissingRegistryID
	}
	if req.ProjectID != req.CCTSRegistryID {
		return nil, ErrRegistryIDMismatch
	}
	if req.VerificationFee < s.policy.MinVerificationFee {
		return nil, ErrInsufficientFee
	}
	if err := validateCaps(req); err != nil {
		return nil, err
	}

	cell, err := dedup.CellFor(req.Latitude, req.Longitude)
	if err != nil {
		return nil, ErrInvalidCoordinates
	}

	if len(req.Polygon) > 0 {
		if _, err := geospatial.ValidateGeoJSON(req.Polygon); err != nil {
			return nil, fmt.Errorf("invalid polygon: %w", err)
		}
	}

	coBenefits, err := json.Marshal(req.CoBenefits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode co-benefits: %w", err)
	}

	var project *Project
	err = s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		if _, err := r.GetProject(ctx, req.ProjectID); err == nil {
			return ErrProjectExists
		} else if err != ErrProjectNotFound {
			return err
		}

		// The claim and the escrow move join this transaction through ctx;
		// any later failure rolls both back.
		if err := s.index.Claim(ctx, cell, req.ProjectID); err != nil {
			return err
		}

		if err := s.ledger.Transfer(ctx, req.Owner, escrow.CustodyAddress(req.ProjectID), req.VerificationFee); err != nil {
			return err
		}

		now := time.Now()
		project = &Project{
			ProjectID:           req.ProjectID,
			Owner:               req.Owner,
			IPFSCID:             req.IPFSCID,
			CarbonTonsEstimated: req.CarbonTonsEstimated,
			VerificationStatus:  StatusAwaitingAudit,
			Sector:              req.Sector,
			Location: GeoLocation{
				Latitude:    req.Latitude,
				Longitude:   req.Longitude,
				Polygon:     []byte(req.Polygon),
				CountryCode: req.CountryCode,
				RegionName:  req.RegionName,
			},
			AreaHectares:      req.AreaHectares,
			EstablishmentDate: req.EstablishmentDate,
			Compliance: ComplianceState{
				CCTSRegistryID:   req.CCTSRegistryID,
				DoubleCountingID: dedup.CellString(cell),
				AuditStatus:      "EscrowFunded",
			},
			VerificationFee:    req.VerificationFee,
			AuditEscrowBalance: req.VerificationFee,
			VintageYear:        req.VintageYear,
			PricePerTon:        req.PricePerTon,
			AvailableQuantity:  req.CarbonTonsEstimated,
			CoBenefits:         coBenefits,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		if err := r.CreateProject(ctx, project); err != nil {
			return err
		}

		reg, err := r.GetGlobalRegistry(ctx)
		if err != nil {
			return err
		}
		reg.TotalProjects++
		return r.UpdateGlobalRegistry(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project registered",
		zap.String("project_id", project.ProjectID),
		zap.String("cell", project.Compliance.DoubleCountingID),
		zap.Uint64("escrow", project.AuditEscrowBalance))

	s.notifyStatus(project.ProjectID, StatusPending, StatusAwaitingAudit)
	return project, nil
}

// InitializeVerification funds (or tops up) the audit escrow from the
// project owner and records the assigned verifier. Pre-assignment binds
// escrow release to that verifier alone.
func (s *Service) InitializeVerification(ctx context.Context, projectID, verifierAddress string, fee uint64) (*Project, error) {
	var project *Project
	err := s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		switch project.VerificationStatus {
		case StatusPending, StatusAwaitingAudit:
		default:
			return ErrProjectAlreadyProcessed
		}

		if err := s.ledger.Transfer(ctx, project.Owner, escrow.CustodyAddress(projectID), fee); err != nil {
			return err
		}

		project.Verifier = verifierAddress
		project.VerifierAssigned = true
		project.VerificationFee += fee
		project.AuditEscrowBalance += fee
		project.VerificationStatus = StatusAwaitingAudit
		project.UpdatedAt = time.Now()
		return r.UpdateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("verification escrow funded",
		zap.String("project_id", projectID),
		zap.String("verifier", verifierAddress),
		zap.Uint64("fee", fee))
	return project, nil
}

// VerifyProject transitions a project to Verified via the single-verifier
// path, overwriting the self-declared capacity with the verifier-supplied
// tons and releasing the escrow exactly once to the authorized party.
func (s *Service) VerifyProject(ctx context.Context, projectID, caller string, verifiedCarbonTons uint64) (*Project, error) {
	var project *Project
	var previous VerificationStatus
	err := s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		switch project.VerificationStatus {
		case StatusPending, StatusAwaitingAudit:
		default:
			return ErrProjectAlreadyProcessed
		}
		previous = project.VerificationStatus

		project.VerificationStatus = StatusVerified
		project.CarbonTonsEstimated = verifiedCarbonTons
		project.AvailableQuantity = verifiedCarbonTons
		project.VerificationData.LastVerificationDate = time.Now()

		// Release the whole escrow balance so nothing is stranded in the
		// custody account.
		if fee := project.AuditEscrowBalance; fee > 0 {
			if project.VerifierAssigned && project.Verifier != caller {
				return ErrUnauthorizedVerifier
			}
			if err := s.ledger.Transfer(ctx, escrow.CustodyAddress(projectID), caller, fee); err != nil {
				return err
			}
			project.VerificationFee = 0
			project.AuditEscrowBalance = 0
		}

		project.UpdatedAt = time.Now()
		return r.UpdateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project verified",
		zap.String("project_id", projectID),
		zap.Uint64("verified_carbon_tons", verifiedCarbonTons),
		zap.String("verifier", caller))

	s.notifyStatus(projectID, previous, StatusVerified)
	return project, nil
}

// MultiPartyVerify transitions a project to Verified through an accredited
// directory verifier, recording a quality rating and rewarding the
// verifier. Escrow settlement stays with the single-verifier path.
func (s *Service) MultiPartyVerify(ctx context.Context, projectID string, req MultiPartyVerifyRequest) (*Project, error) {
	if req.QualityRating < 1 || req.QualityRating > 5 {
		return nil, ErrInvalidQualityRating
	}
	if len(req.VerificationReportCID) > MaxCIDLen {
		return nil, fmt.Errorf("%w: verification_report_cid", ErrFieldTooLong)
	}

	verifier, err := s.directory.Get(ctx, req.VerifierAddress)
	if err != nil {
		return nil, err
	}
	if !verifier.IsActive {
		return nil, ErrVerifierNotActive
	}

	var project *Project
	var previous VerificationStatus
	err = s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		switch project.VerificationStatus {
		case StatusPending, StatusUnderReview:
		default:
			return ErrProjectAlreadyProcessed
		}
		previous = project.VerificationStatus

		project.VerificationStatus = StatusVerified
		project.CarbonTonsEstimated = req.VerifiedCarbonTons
		project.AvailableQuantity = req.VerifiedCarbonTons
		project.QualityRating = req.QualityRating
		project.VerificationData.AuditReportCID = req.VerificationReportCID
		project.VerificationData.LastVerificationDate = time.Now()
		project.UpdatedAt = time.Now()
		if err := r.UpdateProject(ctx, project); err != nil {
			return err
		}

		// Reputation moves in the same commit as the status change.
		return s.directory.RecordSuccess(ctx, req.VerifierAddress)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project verified by directory verifier",
		zap.String("project_id", projectID),
		zap.String("verifier", req.VerifierAddress),
		zap.Uint8("quality_rating", req.QualityRating))

	s.notifyStatus(projectID, previous, StatusVerified)
	return project, nil
}

// RejectProject moves a pre-verification project to the terminal Rejected
// state. The funded escrow is consumed as a validation-effort fee and paid
// to the registry authority.
func (s *Service) RejectProject(ctx context.Context, projectID string) (*Project, error) {
	return s.terminate(ctx, projectID, StatusRejected)
}

// ExpireProject moves a pre-verification project to the terminal Expired
// state. Used by the audit-window sweeper.
func (s *Service) ExpireProject(ctx context.Context, projectID string) (*Project, error) {
	return s.terminate(ctx, projectID, StatusExpired)
}

func (s *Service) terminate(ctx context.Context, projectID string, terminal VerificationStatus) (*Project, error) {
	var project *Project
	var previous VerificationStatus
	err := s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		if !s.stateMachine.CanTransition(project.VerificationStatus, terminal) {
			return ErrProjectAlreadyProcessed
		}
		previous = project.VerificationStatus

		if fee := project.AuditEscrowBalance; fee > 0 {
			if err := s.ledger.Transfer(ctx, escrow.CustodyAddress(projectID), s.policy.AuthorityAddress, fee); err != nil {
				return err
			}
			project.VerificationFee = 0
			project.AuditEscrowBalance = 0
		}

		project.VerificationStatus = terminal
		project.UpdatedAt = time.Now()
		return r.UpdateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project closed",
		zap.String("project_id", projectID),
		zap.String("status", string(terminal)))

	s.notifyStatus(projectID, previous, terminal)
	return project, nil
}

// ApproveCompliance is the governance surface: the government authority
// sets the audit status to Approved, records the export authorization and
// generates the double-counting prevention reference.
func (s *Service) ApproveCompliance(ctx context.Context, projectID string, approval ComplianceApproval) (*Project, error) {
	if len(approval.CCTSRegistryID) > MaxRegistryIDLen {
		return nil, fmt.Errorf("%w: ccts_registry_id", ErrFieldTooLong)
	}

	var project *Project
	err := s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		project.Compliance.CCTSRegistryID = approval.CCTSRegistryID
		project.Compliance.AuthorizedExportLimit = approval.AuthorizedExportLimit
		project.Compliance.LoAIssued = approval.LoAIssued
		project.Compliance.AuditStatus = AuditStatusApproved
		project.Compliance.DoubleCountingID = fmt.Sprintf("%s_%s_%s",
			project.ProjectID, approval.CCTSRegistryID, project.Location.CountryCode)
		project.UpdatedAt = time.Now()
		return r.UpdateProject(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("compliance approved",
		zap.String("project_id", projectID),
		zap.Bool("loa_issued", approval.LoAIssued),
		zap.Uint64("export_limit", approval.AuthorizedExportLimit))
	return project, nil
}

// MarkMonitoring is the one-way trust-degradation trigger invoked by the
// monitoring ingestion pipeline. Only a Verified project transitions;
// terminal and pre-verification statuses are left untouched.
func (s *Service) MarkMonitoring(ctx context.Context, projectID string, healthScore float64) error {
	var transitioned bool
	err := s.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		project, err := r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		if !s.stateMachine.CanTransition(project.VerificationStatus, StatusMonitoring) {
			return nil
		}

		project.VerificationStatus = StatusMonitoring
		project.UpdatedAt = time.Now()
		transitioned = true
		return r.UpdateProject(ctx, project)
	})
	if err != nil {
		return err
	}

	if transitioned {
		s.logger.Warn("project health critical, status downgraded to monitoring",
			zap.String("project_id", projectID),
			zap.Float64("health_score", healthScore))
		s.notifyStatus(projectID, StatusVerified, StatusMonitoring)
	}
	return nil
}

// GetProject returns a project record.
func (s *Service) GetProject(ctx context.Context, projectID string) (*Project, error) {
	return s.repo.GetProject(ctx, projectID)
}

// ListProjects returns project records matching the filter.
func (s *Service) ListProjects(ctx context.Context, filter ProjectFilter) ([]*Project, error) {
	return s.repo.ListProjects(ctx, filter)
}

// GetMarketplaceView returns the read facade consumed by the external
// marketplace to gate listing creation to Verified projects.
func (s *Service) GetMarketplaceView(ctx context.Context, projectID string) (*MarketplaceView, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	reg, err := s.repo.GetGlobalRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return &MarketplaceView{
		ProjectID:          project.ProjectID,
		VerificationStatus: project.VerificationStatus,
		QualityRating:      project.QualityRating,
		CoBenefits:         json.RawMessage(project.CoBenefits),
		VintageYear:        project.VintageYear,
		PricePerTon:        project.PricePerTon,
		AvailableQuantity:  project.AvailableQuantity,
		CarbonTokenMint:    reg.CarbonTokenMint,
	}, nil
}

// GetGlobalRegistry returns the aggregate registry counters.
func (s *Service) GetGlobalRegistry(ctx context.Context) (*GlobalRegistry, error) {
	return s.repo.GetGlobalRegistry(ctx)
}

func (s *Service) notifyStatus(projectID string, from, to VerificationStatus) {
	if s.notifier != nil {
		s.notifier.StatusChanged(projectID, from, to)
	}
}

func validateCaps(req RegisterProjectRequest) error {
	checks := []struct {
		name  string
		value string
		max   int
	}{
		{"project_id", req.ProjectID, MaxProjectIDLen},
		{"ccts_registry_id", req.CCTSRegistryID, MaxRegistryIDLen},
		{"ipfs_cid", req.IPFSCID, MaxCIDLen},
		{"country_code", req.CountryCode, MaxCountryCodeLen},
		{"region_name", req.RegionName, MaxRegionNameLen},
	}
	for _, c := range checks {
		if len(c.value) > c.max {
			return fmt.Errorf("%w: %s", ErrFieldTooLong, c.name)
		}
	}
	return nil
}
