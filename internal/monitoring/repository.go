package monitoring

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNoSnapshots is returned when a project has no monitoring history.
var ErrNoSnapshots = errors.New("no monitoring snapshots for project")

// Repository defines storage for monitoring snapshots.
type Repository interface {
	Create(ctx context.Context, snapshot *Snapshot) error
	Latest(ctx context.Context, projectID string) (*Snapshot, error)
	ListByProject(ctx context.Context, projectID string, limit int) ([]*Snapshot, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed snapshot repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, snapshot *Snapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *gormRepository) Latest(ctx context.Context, projectID string) (*Snapshot, error) {
	var snapshot Snapshot
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("timestamp DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshots
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *gormRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]*Snapshot, error) {
	query := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var snapshots []*Snapshot
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
