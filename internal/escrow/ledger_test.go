package escrow

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memAccounts struct {
	accounts map[string]*Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[string]*Account)}
}

func (m *memAccounts) InTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memAccounts) Get(ctx context.Context, address string) (*Account, error) {
	account, ok := m.accounts[address]
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (m *memAccounts) GetForUpdate(ctx context.Context, address string) (*Account, error) {
	account, ok := m.accounts[address]
	if !ok {
		return nil, ErrInsufficientFunds
	}
	clone := *account
	return &clone, nil
}

func (m *memAccounts) GetOrCreateForUpdate(ctx context.Context, address string) (*Account, error) {
	if _, ok := m.accounts[address]; !ok {
		m.accounts[address] = &Account{Address: address}
	}
	return m.GetForUpdate(ctx, address)
}

func (m *memAccounts) Update(ctx context.Context, account *Account) error {
	clone := *account
	m.accounts[account.Address] = &clone
	return nil
}

func newTestLedger() (Ledger, *memAccounts) {
	repo := newMemAccounts()
	return NewLedger(repo, zap.NewNop()), repo
}

func TestTransferIsBalanced(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "owner-1", 500))
	require.NoError(t, ledger.Transfer(ctx, "owner-1", "escrow:KELP-001", 300))

	from, err := ledger.Balance(ctx, "owner-1")
	require.NoError(t, err)
	to, err := ledger.Balance(ctx, "escrow:KELP-001")
	require.NoError(t, err)

	assert.Equal(t, uint64(200), from)
	assert.Equal(t, uint64(300), to)
}

func TestTransferInsufficientFunds(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "owner-1", 100))

	err := ledger.Transfer(ctx, "owner-1", "escrow:KELP-001", 101)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The failed transfer must not have moved anything.
	from, _ := ledger.Balance(ctx, "owner-1")
	to, _ := ledger.Balance(ctx, "escrow:KELP-001")
	assert.Equal(t, uint64(100), from)
	assert.Equal(t, uint64(0), to)
}

func TestTransferFromUnknownAccount(t *testing.T) {
	ledger, _ := newTestLedger()
	err := ledger.Transfer(context.Background(), "ghost", "escrow:KELP-001", 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTransferZeroAmount(t *testing.T) {
	ledger, _ := newTestLedger()
	err := ledger.Transfer(context.Background(), "owner-1", "escrow:KELP-001", 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestTransferOverflowGuard(t *testing.T) {
	ledger, repo := newTestLedger()
	ctx := context.Background()

	repo.accounts["owner-1"] = &Account{Address: "owner-1", Balance: 100}
	repo.accounts["sink"] = &Account{Address: "sink", Balance: math.MaxUint64 - 10}

	err := ledger.Transfer(ctx, "owner-1", "sink", 11)
	assert.ErrorIs(t, err, ErrMathOverflow)

	// Aborted with no balance change on either side.
	from, _ := ledger.Balance(ctx, "owner-1")
	assert.Equal(t, uint64(100), from)
	to, _ := ledger.Balance(ctx, "sink")
	assert.Equal(t, uint64(math.MaxUint64-10), to)
}

func TestCredit(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Credit(ctx, "owner-1", 50))
	require.NoError(t, ledger.Credit(ctx, "owner-1", 25))

	balance, err := ledger.Balance(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(75), balance)

	assert.ErrorIs(t, ledger.Credit(ctx, "owner-1", 0), ErrZeroAmount)
}

func TestBalanceOfUnknownAccountIsZero(t *testing.T) {
	ledger, _ := newTestLedger()
	balance, err := ledger.Balance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestCustodyAddress(t *testing.T) {
	assert.Equal(t, "escrow:KELP-001", CustodyAddress("KELP-001"))
	assert.NotEqual(t, CustodyAddress("A"), CustodyAddress("B"))
}
