package dedup

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"accord-registry/registry-backend/internal/database"
)

// LandClaim is one row of the claim set. CellID carries a unique index so
// the database rejects a duplicate insert even if two claims race past the
// in-process check.
type LandClaim struct {
	CellID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"cell_id"`
	ProjectID string    `gorm:"size:32;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines storage for the claim set. Calls join a registry
// transaction carried in ctx, so a claim rolls back with the registration
// that made it.
type Repository interface {
	Exists(ctx context.Context, cell uint64) (bool, error)
	Insert(ctx context.Context, cell uint64, projectID string) error
	Count(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed claim repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) handle(ctx context.Context) *gorm.DB {
	return database.Handle(ctx, r.db).WithContext(ctx)
}

func (r *gormRepository) Exists(ctx context.Context, cell uint64) (bool, error) {
	var count int64
	err := r.handle(ctx).Model(&LandClaim{}).Where("cell_id = ?", cell).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) Insert(ctx context.Context, cell uint64, projectID string) error {
	claim := &LandClaim{CellID: cell, ProjectID: projectID, CreatedAt: time.Now()}
	err := r.handle(ctx).Create(claim).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCellAlreadyClaimed
	}
	return err
}

func (r *gormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.handle(ctx).Model(&LandClaim{}).Count(&count).Error
	return count, err
}
