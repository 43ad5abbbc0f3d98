package verifiers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memDirectory struct {
	entries map[string]*Verifier
}

func newMemDirectory() *memDirectory {
	return &memDirectory{entries: make(map[string]*Verifier)}
}

func (m *memDirectory) Create(ctx context.Context, verifier *Verifier) error {
	if _, ok := m.entries[verifier.Address]; ok {
		return ErrVerifierExists
	}
	clone := *verifier
	m.entries[verifier.Address] = &clone
	return nil
}

func (m *memDirectory) Get(ctx context.Context, address string) (*Verifier, error) {
	verifier, ok := m.entries[address]
	if !ok {
		return nil, ErrVerifierNotFound
	}
	clone := *verifier
	return &clone, nil
}

func (m *memDirectory) Update(ctx context.Context, verifier *Verifier) error {
	clone := *verifier
	m.entries[verifier.Address] = &clone
	return nil
}

func (m *memDirectory) List(ctx context.Context, activeOnly bool) ([]*Verifier, error) {
	var out []*Verifier
	for _, v := range m.entries {
		if activeOnly && !v.IsActive {
			continue
		}
		clone := *v
		out = append(out, &clone)
	}
	return out, nil
}

func TestRegisterVerifier(t *testing.T) {
	svc := NewService(newMemDirectory(), zap.NewNop())

	verifier, err := svc.Register(context.Background(), RegisterRequest{
		Address:         "inst-1",
		Type:            TypeScientificInstitution,
		Credentials:     []string{"ISO-14065"},
		Specializations: []string{"BLUE_CARBON"},
	})
	require.NoError(t, err)

	assert.Equal(t, InitialReputation, verifier.ReputationScore)
	assert.Equal(t, uint64(0), verifier.VerificationCount)
	assert.True(t, verifier.IsActive)
	assert.False(t, verifier.RegistrationDate.IsZero())
	assert.JSONEq(t, `["ISO-14065"]`, string(verifier.Credentials))
}

func TestRegisterVerifierValidation(t *testing.T) {
	svc := NewService(newMemDirectory(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Type: TypeGovernmentAgency})
	assert.Error(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Address: "inst-1"})
	assert.Error(t, err)
}

func TestRegisterVerifierDuplicate(t *testing.T) {
	svc := NewService(newMemDirectory(), zap.NewNop())
	ctx := context.Background()

	req := RegisterRequest{Address: "inst-1", Type: TypeCertificationBody}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrVerifierExists)
}

func TestRecordSuccessGrowsReputation(t *testing.T) {
	svc := NewService(newMemDirectory(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Address: "inst-1", Type: TypeTechnicalAuditor})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecordSuccess(ctx, "inst-1"))
	}

	verifier, err := svc.Get(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), verifier.VerificationCount)
	assert.Equal(t, InitialReputation+3*ReputationReward, verifier.ReputationScore)
}

func TestRecordSuccessUnknownVerifier(t *testing.T) {
	svc := NewService(newMemDirectory(), zap.NewNop())
	err := svc.RecordSuccess(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrVerifierNotFound)
}

func TestListActiveOnly(t *testing.T) {
	repo := newMemDirectory()
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Address: "inst-1", Type: TypeLocalCommunity})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Address: "inst-2", Type: TypeLocalCommunity})
	require.NoError(t, err)
	repo.entries["inst-2"].IsActive = false

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "inst-1", active[0].Address)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
