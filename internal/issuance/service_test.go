package issuance

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accord-registry/registry-backend/internal/registry"
)

// mintRepo is a single-project in-memory registry repository.
type mintRepo struct {
	project  *registry.Project
	registry *registry.GlobalRegistry
}

func (m *mintRepo) InTx(ctx context.Context, fn func(context.Context, registry.Repository) error) error {
	return fn(ctx, m)
}

func (m *mintRepo) CreateProject(ctx context.Context, project *registry.Project) error {
	clone := *project
	m.project = &clone
	return nil
}

func (m *mintRepo) GetProject(ctx context.Context, projectID string) (*registry.Project, error) {
	if m.project == nil || m.project.ProjectID != projectID {
		return nil, registry.ErrProjectNotFound
	}
	clone := *m.project
	return &clone, nil
}

func (m *mintRepo) GetProjectForUpdate(ctx context.Context, projectID string) (*registry.Project, error) {
	return m.GetProject(ctx, projectID)
}

func (m *mintRepo) UpdateProject(ctx context.Context, project *registry.Project) error {
	clone := *project
	m.project = &clone
	return nil
}

func (m *mintRepo) ListProjects(ctx context.Context, filter registry.ProjectFilter) ([]*registry.Project, error) {
	return nil, nil
}

func (m *mintRepo) ListProjectsInStatus(ctx context.Context, status registry.VerificationStatus, before int64) ([]*registry.Project, error) {
	return nil, nil
}

func (m *mintRepo) GetGlobalRegistry(ctx context.Context) (*registry.GlobalRegistry, error) {
	clone := *m.registry
	return &clone, nil
}

func (m *mintRepo) UpdateGlobalRegistry(ctx context.Context, reg *registry.GlobalRegistry) error {
	clone := *reg
	m.registry = &clone
	return nil
}

type mintCall struct {
	destination string
	amount      uint64
}

// countingMinter records delegated mints and can be told to fail.
type countingMinter struct {
	calls   []mintCall
	failAt  int // 1-based call index that fails; 0 never fails
	failErr error
}

func (c *countingMinter) Mint(ctx context.Context, mintRef, destination string, amount uint64) error {
	if c.failAt > 0 && len(c.calls)+1 == c.failAt {
		return c.failErr
	}
	c.calls = append(c.calls, mintCall{destination, amount})
	return nil
}

func (c *countingMinter) Burn(ctx context.Context, mintRef, source string, amount uint64) error {
	return nil
}

func (c *countingMinter) Transfer(ctx context.Context, source, destination string, amount uint64) error {
	return nil
}

func mintableProject(tons uint64) *registry.Project {
	return &registry.Project{
		ProjectID:           "KELP-001",
		Owner:               "owner-1",
		CarbonTonsEstimated: tons,
		VerificationStatus:  registry.StatusVerified,
		Compliance: registry.ComplianceState{
			AuditStatus: registry.AuditStatusApproved,
		},
	}
}

func newMintFixture(project *registry.Project) (*Service, *mintRepo, *countingMinter) {
	repo := &mintRepo{
		project:  project,
		registry: &registry.GlobalRegistry{ID: registry.GlobalRegistryID, CarbonTokenMint: "carbon-mint"},
	}
	minter := &countingMinter{}
	return NewService(repo, minter, zap.NewNop()), repo, minter
}

func TestMintWithinCapacity(t *testing.T) {
	svc, repo, minter := newMintFixture(mintableProject(1000))
	ctx := context.Background()

	// 1000 verified tons allow exactly 1_000_000_000 credit units.
	project, err := svc.Mint(ctx, "KELP-001", "buyer-1", 900_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(900_000_000), project.TokensMinted)
	assert.Equal(t, uint64(900_000_000), project.CreditsIssued)

	project, err = svc.Mint(ctx, "KELP-001", "buyer-2", 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), project.TokensMinted)

	assert.Equal(t, uint64(1_000_000_000), repo.registry.TotalCreditsIssued)
	require.Len(t, minter.calls, 2)
	assert.Equal(t, "buyer-1", minter.calls[0].destination)
}

func TestMintExceedsCapacity(t *testing.T) {
	svc, repo, minter := newMintFixture(mintableProject(1000))
	ctx := context.Background()

	_, err := svc.Mint(ctx, "KELP-001", "buyer-1", 1_500_000_000)
	assert.ErrorIs(t, err, registry.ErrExceedsCapacity)
	assert.Empty(t, minter.calls)
	assert.Equal(t, uint64(0), repo.project.TokensMinted)

	// Fill the ceiling, then one more unit must fail.
	_, err = svc.Mint(ctx, "KELP-001", "buyer-1", 1_000_000_000)
	require.NoError(t, err)
	_, err = svc.Mint(ctx, "KELP-001", "buyer-1", 1)
	assert.ErrorIs(t, err, registry.ErrExceedsCapacity)
	assert.Equal(t, uint64(1_000_000_000), repo.project.TokensMinted)
}

func TestMintRequiresVerifiedStatus(t *testing.T) {
	for _, status := range []registry.VerificationStatus{
		registry.StatusPending,
		registry.StatusAwaitingAudit,
		registry.StatusRejected,
		registry.StatusMonitoring,
		registry.StatusExpired,
	} {
		t.Run(string(status), func(t *testing.T) {
			project := mintableProject(1000)
			project.VerificationStatus = status
			svc, _, minter := newMintFixture(project)

			_, err := svc.Mint(context.Background(), "KELP-001", "buyer-1", 1)
			assert.ErrorIs(t, err, registry.ErrProjectNotVerified)
			assert.Empty(t, minter.calls)
		})
	}
}

func TestMintRequiresComplianceApproval(t *testing.T) {
	project := mintableProject(1000)
	project.Compliance.AuditStatus = "EscrowFunded"
	svc, _, minter := newMintFixture(project)

	_, err := svc.Mint(context.Background(), "KELP-001", "buyer-1", 1)
	assert.ErrorIs(t, err, registry.ErrComplianceNotApproved)
	assert.Empty(t, minter.calls)
}

func TestMintOverflowGuard(t *testing.T) {
	project := mintableProject(math.MaxUint64 / registry.CreditScale)
	project.TokensMinted = math.MaxUint64 - 10
	svc, _, _ := newMintFixture(project)

	_, err := svc.Mint(context.Background(), "KELP-001", "buyer-1", 11)
	assert.ErrorIs(t, err, registry.ErrMathOverflow)
}

func TestMintCapacityScalingOverflow(t *testing.T) {
	// Tonnage so large that scaling it to credit units wraps 64 bits; the
	// ceiling must surface an overflow error, never a truncated capacity.
	project := mintableProject(math.MaxUint64/registry.CreditScale + 1)
	svc, _, minter := newMintFixture(project)

	_, err := svc.Mint(context.Background(), "KELP-001", "buyer-1", 1)
	assert.ErrorIs(t, err, registry.ErrMathOverflow)
	assert.Empty(t, minter.calls)
}

func TestMintDelegatedFailureLeavesCounters(t *testing.T) {
	svc, repo, minter := newMintFixture(mintableProject(1000))
	minter.failAt = 1
	minter.failErr = errors.New("token program unavailable")

	_, err := svc.Mint(context.Background(), "KELP-001", "buyer-1", 100)
	require.Error(t, err)
	assert.Equal(t, uint64(0), repo.project.TokensMinted)
	assert.Equal(t, uint64(0), repo.registry.TotalCreditsIssued)
}

func TestBatchMint(t *testing.T) {
	svc, repo, minter := newMintFixture(mintableProject(1000))

	project, err := svc.BatchMint(context.Background(), "KELP-001", BatchMintRequest{
		Amounts:    []uint64{600_000_000, 0, 300_000_000},
		Recipients: []string{"buyer-1", "buyer-2", "buyer-3"},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(900_000_000), project.TokensMinted)
	assert.Equal(t, uint64(900_000_000), repo.registry.TotalCreditsIssued)

	// The zero-amount entry is skipped, not minted.
	require.Len(t, minter.calls, 2)
	assert.Equal(t, "buyer-1", minter.calls[0].destination)
	assert.Equal(t, "buyer-3", minter.calls[1].destination)
}

func TestBatchMintSumExceedsCapacity(t *testing.T) {
	svc, repo, minter := newMintFixture(mintableProject(1000))

	// Each amount fits alone; the sum does not. Nothing may be minted.
	_, err := svc.BatchMint(context.Background(), "KELP-001", BatchMintRequest{
		Amounts:    []uint64{600_000_000, 500_000_000},
		Recipients: []string{"buyer-1", "buyer-2"},
	})
	assert.ErrorIs(t, err, registry.ErrExceedsCapacity)
	assert.Empty(t, minter.calls)
	assert.Equal(t, uint64(0), repo.project.TokensMinted)
}

func TestBatchMintLengthMismatch(t *testing.T) {
	svc, _, _ := newMintFixture(mintableProject(1000))

	_, err := svc.BatchMint(context.Background(), "KELP-001", BatchMintRequest{
		Amounts:    []uint64{1, 2},
		Recipients: []string{"buyer-1"},
	})
	assert.ErrorIs(t, err, registry.ErrRecipientCountMismatch)
}

func TestBatchMintSumOverflow(t *testing.T) {
	svc, _, _ := newMintFixture(mintableProject(1000))

	_, err := svc.BatchMint(context.Background(), "KELP-001", BatchMintRequest{
		Amounts:    []uint64{math.MaxUint64, 1},
		Recipients: []string{"buyer-1", "buyer-2"},
	})
	assert.ErrorIs(t, err, registry.ErrMathOverflow)
}
