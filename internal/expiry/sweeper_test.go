package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accord-registry/registry-backend/internal/registry"
)

type memRepo struct {
	projects map[string]*registry.Project
}

func (m *memRepo) InTx(ctx context.Context, fn func(context.Context, registry.Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) CreateProject(ctx context.Context, project *registry.Project) error {
	clone := *project
	m.projects[project.ProjectID] = &clone
	return nil
}

func (m *memRepo) GetProject(ctx context.Context, projectID string) (*registry.Project, error) {
	project, ok := m.projects[projectID]
	if !ok {
		return nil, registry.ErrProjectNotFound
	}
	clone := *project
	return &clone, nil
}

func (m *memRepo) GetProjectForUpdate(ctx context.Context, projectID string) (*registry.Project, error) {
	return m.GetProject(ctx, projectID)
}

func (m *memRepo) UpdateProject(ctx context.Context, project *registry.Project) error {
	clone := *project
	m.projects[project.ProjectID] = &clone
	return nil
}

func (m *memRepo) ListProjects(ctx context.Context, filter registry.ProjectFilter) ([]*registry.Project, error) {
	return nil, nil
}

func (m *memRepo) ListProjectsInStatus(ctx context.Context, status registry.VerificationStatus, before int64) ([]*registry.Project, error) {
	var out []*registry.Project
	for _, p := range m.projects {
		if p.VerificationStatus == status && p.CreatedAt.Unix() < before {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memRepo) GetGlobalRegistry(ctx context.Context) (*registry.GlobalRegistry, error) {
	return &registry.GlobalRegistry{ID: registry.GlobalRegistryID}, nil
}

func (m *memRepo) UpdateGlobalRegistry(ctx context.Context, reg *registry.GlobalRegistry) error {
	return nil
}

func TestSweepExpiresStaleProjects(t *testing.T) {
	repo := &memRepo{projects: make(map[string]*registry.Project)}
	window := 90 * 24 * time.Hour

	add := func(id string, status registry.VerificationStatus, age time.Duration) {
		repo.projects[id] = &registry.Project{
			ProjectID:          id,
			Owner:              "owner-1",
			VerificationStatus: status,
			CreatedAt:          time.Now().Add(-age),
		}
	}
	add("STALE-PENDING", registry.StatusPending, window+time.Hour)
	add("STALE-AWAITING", registry.StatusAwaitingAudit, window+time.Hour)
	add("FRESH-PENDING", registry.StatusPending, time.Hour)
	add("STALE-VERIFIED", registry.StatusVerified, window+time.Hour)

	service := registry.NewService(repo, nil, nil, nil, nil,
		registry.Policy{AuthorityAddress: "registry-authority"}, zap.NewNop())
	sweeper := NewSweeper(repo, service, "@daily", window, zap.NewNop())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Equal(t, registry.StatusExpired, repo.projects["STALE-PENDING"].VerificationStatus)
	assert.Equal(t, registry.StatusExpired, repo.projects["STALE-AWAITING"].VerificationStatus)
	assert.Equal(t, registry.StatusPending, repo.projects["FRESH-PENDING"].VerificationStatus)
	assert.Equal(t, registry.StatusVerified, repo.projects["STALE-VERIFIED"].VerificationStatus)
}
