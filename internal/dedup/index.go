// Package dedup implements the double-counting prevention index: a shared,
// append-only set of H3 cells covering land already claimed by a registered
// project. One cell can be claimed at most once for the life of the
// registry; there is no removal.
package dedup

import (
	"context"
	"errors"
	"sync"

	h3 "github.com/uber/h3-go/v4"
	"go.uber.org/zap"
)

// ClaimResolution is the H3 resolution used for land claims. Resolution 8
// yields cells of roughly 0.73 km²: coarse enough to keep the set small,
// fine enough that distinct projects rarely collide.
const ClaimResolution = 8

var (
	// ErrInvalidCoordinates is returned for coordinates outside WGS84 range.
	ErrInvalidCoordinates = errors.New("invalid geographic coordinates")
	// ErrCellAlreadyClaimed is returned when the derived cell is taken.
	ErrCellAlreadyClaimed = errors.New("location already claimed by another project")
)

// Index is the claim set service. Check-and-insert is a single critical
// section; the mutex stands in for the per-slot serialization the hosting
// ledger provides on-chain.
type Index struct {
	mu     sync.Mutex
	repo   Repository
	logger *zap.Logger
}

// NewIndex creates the claim index.
func NewIndex(repo Repository, logger *zap.Logger) *Index {
	return &Index{repo: repo, logger: logger}
}

// CellFor maps a coordinate pair to its fixed-resolution cell identifier.
func CellFor(lat, lng float64) (uint64, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, ErrInvalidCoordinates
	}
	cell := h3.LatLngToCell(h3.NewLatLng(lat, lng), ClaimResolution)
	if !cell.IsValid() {
		return 0, ErrInvalidCoordinates
	}
	return uint64(cell), nil
}

// CellString renders a cell identifier in canonical H3 form, used as the
// double-counting prevention reference on the project record.
func CellString(cell uint64) string {
	return h3.Cell(cell).String()
}

// Claim atomically checks membership and inserts the cell if absent.
// Returns ErrCellAlreadyClaimed if any project already holds the cell.
func (i *Index) Claim(ctx context.Context, cell uint64, projectID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	taken, err := i.repo.Exists(ctx, cell)
	if err != nil {
		return err
	}
	if taken {
		return ErrCellAlreadyClaimed
	}
	if err := i.repo.Insert(ctx, cell, projectID); err != nil {
		return err
	}

	i.logger.Info("land claim registered",
		zap.String("cell", CellString(cell)),
		zap.String("project_id", projectID))
	return nil
}

// IsClaimed reports whether a cell is already in the set.
func (i *Index) IsClaimed(ctx context.Context, cell uint64) (bool, error) {
	return i.repo.Exists(ctx, cell)
}

// Count returns the number of claimed cells.
func (i *Index) Count(ctx context.Context) (int64, error) {
	return i.repo.Count(ctx)
}
