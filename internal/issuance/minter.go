package issuance

import (
	"context"

	"go.uber.org/zap"
)

// TokenMinter is the delegated asset-transfer module. Each call either
// fully applies or returns an error with no partial balance change.
type TokenMinter interface {
	Mint(ctx context.Context, mintRef, destination string, amount uint64) error
	Burn(ctx context.Context, mintRef, source string, amount uint64) error
	Transfer(ctx context.Context, source, destination string, amount uint64) error
}

// loggingMinter records delegated calls without touching an external
// token program. Stand-in wiring until the asset-transfer endpoint is
// configured.
type loggingMinter struct {
	logger *zap.Logger
}

// NewLoggingMinter creates a TokenMinter that only logs.
func NewLoggingMinter(logger *zap.Logger) TokenMinter {
	return &loggingMinter{logger: logger}
}

func (m *loggingMinter) Mint(ctx context.Context, mintRef, destination string, amount uint64) error {
	m.logger.Info("delegated mint",
		zap.String("mint", mintRef),
		zap.String("destination", destination),
		zap.Uint64("amount", amount))
	return nil
}

func (m *loggingMinter) Burn(ctx context.Context, mintRef, source string, amount uint64) error {
	m.logger.Info("delegated burn",
		zap.String("mint", mintRef),
		zap.String("source", source),
		zap.Uint64("amount", amount))
	return nil
}

func (m *loggingMinter) Transfer(ctx context.Context, source, destination string, amount uint64) error {
	m.logger.Info("delegated transfer",
		zap.String("source", source),
		zap.String("destination", destination),
		zap.Uint64("amount", amount))
	return nil
}
