// Package issuance gates credit minting against the verified capacity
// ceiling and the government compliance approval.
package issuance

import (
	"context"
	"math"

	"go.uber.org/zap"

	"accord-registry/registry-backend/internal/registry"
)

// BatchMintRequest mints to several recipients under one capacity check.
type BatchMintRequest struct {
	Amounts    []uint64 `json:"amounts"`
	Recipients []string `json:"recipients"`
}

// Service implements capacity-bounded credit issuance.
type Service struct {
	repo   registry.Repository
	minter TokenMinter
	logger *zap.Logger
}

// NewService creates the issuance service.
func NewService(repo registry.Repository, minter TokenMinter, logger *zap.Logger) *Service {
	return &Service{repo: repo, minter: minter, logger: logger}
}

// Mint issues amount credit units against a project. The project must be
// Verified, its compliance audit Approved, and the running total may never
// exceed the verified capacity. Counters are updated only if the delegated
// mint call succeeds, inside the same commit.
func (s *Service) Mint(ctx context.Context, projectID, recipient string, amount uint64) (*registry.Project, error) {
	var project *registry.Project
	err := s.repo.InTx(ctx, func(ctx context.Context, r registry.Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		if err := checkMintable(project, amount); err != nil {
			return err
		}

		reg, err := r.GetGlobalRegistry(ctx)
		if err != nil {
			return err
		}

		if err := s.minter.Mint(ctx, reg.CarbonTokenMint, recipient, amount); err != nil {
			return err
		}

		project.CreditsIssued += amount
		project.TokensMinted += amount
		reg.TotalCreditsIssued += amount

		if err := r.UpdateProject(ctx, project); err != nil {
			return err
		}
		return r.UpdateGlobalRegistry(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credits minted",
		zap.String("project_id", projectID),
		zap.String("recipient", recipient),
		zap.Uint64("amount", amount),
		zap.Uint64("tokens_minted", project.TokensMinted))
	return project, nil
}

// BatchMint issues credits to multiple recipients. The capacity check is
// applied to the sum of all amounts before any individual mint is
// attempted, so a batch can never partially over-issue. Zero-amount
// entries are skipped without affecting validation.
func (s *Service) BatchMint(ctx context.Context, projectID string, req BatchMintRequest) (*registry.Project, error) {
	if len(req.Amounts) != len(req.Recipients) {
		return nil, registry.ErrRecipientCountMismatch
	}

	var total uint64
	for _, amount := range req.Amounts {
		if amount > math.MaxUint64-total {
			return nil, registry.ErrMathOverflow
		}
		total += amount
	}

	var project *registry.Project
	err := s.repo.InTx(ctx, func(ctx context.Context, r registry.Repository) error {
		var err error
		project, err = r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		if err := checkMintable(project, total); err != nil {
			return err
		}

		reg, err := r.GetGlobalRegistry(ctx)
		if err != nil {
			return err
		}

		for i, recipient := range req.Recipients {
			amount := req.Amounts[i]
			if amount == 0 {
				continue
			}
			if err := s.minter.Mint(ctx, reg.CarbonTokenMint, recipient, amount); err != nil {
				return err
			}
		}

		project.CreditsIssued += total
		project.TokensMinted += total
		reg.TotalCreditsIssued += total

		if err := r.UpdateProject(ctx, project); err != nil {
			return err
		}
		return r.UpdateGlobalRegistry(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("batch credits minted",
		zap.String("project_id", projectID),
		zap.Uint64("total", total),
		zap.Int("recipients", len(req.Recipients)))
	return project, nil
}

func checkMintable(project *registry.Project, amount uint64) error {
	if project.VerificationStatus != registry.StatusVerified {
		return registry.ErrProjectNotVerified
	}
	if project.Compliance.AuditStatus != registry.AuditStatusApproved {
		return registry.ErrComplianceNotApproved
	}

	capacity, err := project.VerifiedCapacity()
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-project.TokensMinted {
		return registry.ErrMathOverflow
	}
	if project.TokensMinted+amount > capacity {
		return registry.ErrExceedsCapacity
	}
	return nil
}
