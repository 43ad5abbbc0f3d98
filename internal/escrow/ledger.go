// Package escrow keeps native-currency balances for owners, verifiers and
// project custody accounts, and moves verification fees between them.
// Every move is balanced: the source decreases and the destination
// increases by exactly the same amount inside one transaction, with
// overflow and underflow checked rather than wrapped.
package escrow

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
)

var (
	// ErrInsufficientFunds is returned when the source balance cannot cover
	// the transfer amount.
	ErrInsufficientFunds = errors.New("insufficient funds for operation")
	// ErrMathOverflow is returned when crediting would wrap the destination
	// balance. The operation is aborted with no balance change.
	ErrMathOverflow = errors.New("math overflow occurred")
	// ErrZeroAmount is returned for a zero-value transfer request.
	ErrZeroAmount = errors.New("transfer amount must be greater than zero")
)

// Ledger moves native currency units between accounts.
type Ledger interface {
	// Transfer moves amount from source to destination as a unit.
	Transfer(ctx context.Context, from, to string, amount uint64) error
	// Balance returns the current balance of an account.
	Balance(ctx context.Context, address string) (uint64, error)
	// Credit adds externally deposited funds to an account (faucet /
	// on-ramp boundary, outside the balanced-move invariant).
	Credit(ctx context.Context, address string, amount uint64) error
}

// CustodyAddress derives the escrow custody account for a project. Fees
// funded against a project are held here until release or consumption.
func CustodyAddress(projectID string) string {
	return "escrow:" + projectID
}

type ledger struct {
	repo   Repository
	logger *zap.Logger
}

// NewLedger creates a repository-backed ledger.
func NewLedger(repo Repository, logger *zap.Logger) Ledger {
	return &ledger{repo: repo, logger: logger}
}

func (l *ledger) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}

	err := l.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		source, err := r.GetForUpdate(ctx, from)
		if err != nil {
			return err
		}
		if source.Balance < amount {
			return ErrInsufficientFunds
		}

		dest, err := r.GetOrCreateForUpdate(ctx, to)
		if err != nil {
			return err
		}
		if dest.Balance > math.MaxUint64-amount {
			return ErrMathOverflow
		}

		source.Balance -= amount
		dest.Balance += amount

		if err := r.Update(ctx, source); err != nil {
			return err
		}
		return r.Update(ctx, dest)
	})
	if err != nil {
		return err
	}

	l.logger.Info("funds transferred",
		zap.String("from", from),
		zap.String("to", to),
		zap.Uint64("amount", amount))
	return nil
}

func (l *ledger) Balance(ctx context.Context, address string) (uint64, error) {
	account, err := l.repo.Get(ctx, address)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Balance, nil
}

func (l *ledger) Credit(ctx context.Context, address string, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	return l.repo.InTx(ctx, func(ctx context.Context, r Repository) error {
		account, err := r.GetOrCreateForUpdate(ctx, address)
		if err != nil {
			return err
		}
		if account.Balance > math.MaxUint64-amount {
			return ErrMathOverflow
		}
		account.Balance += amount
		return r.Update(ctx, account)
	})
}
