package registry

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accord-registry/registry-backend/internal/database"
)

// ProjectFilter narrows project listings
type ProjectFilter struct {
	Owner  string
	Status VerificationStatus
	Sector ProjectSector
	Limit  int
	Offset int
}

// Repository defines data access for project records and the global
// registry singleton. InTx runs fn inside one database transaction and
// hands it a context bound to that transaction; repository calls made
// with that context — including the dedup, escrow and verifier
// repositories — join the same commit, so every check-then-act sequence
// either applies across all stores or leaves none of them changed.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error

	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, projectID string) (*Project, error)
	GetProjectForUpdate(ctx context.Context, projectID string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	ListProjects(ctx context.Context, filter ProjectFilter) ([]*Project, error)
	ListProjectsInStatus(ctx context.Context, status VerificationStatus, before int64) ([]*Project, error)

	GetGlobalRegistry(ctx context.Context) (*GlobalRegistry, error)
	UpdateGlobalRegistry(ctx context.Context, reg *GlobalRegistry) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	return database.InTx(ctx, r.db, func(txCtx context.Context) error {
		return fn(txCtx, r)
	})
}

func (r *gormRepository) handle(ctx context.Context) *gorm.DB {
	return database.Handle(ctx, r.db).WithContext(ctx)
}

func (r *gormRepository) CreateProject(ctx context.Context, project *Project) error {
	err := r.handle(ctx).Create(project).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrProjectExists
	}
	return err
}

func (r *gormRepository) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	err := r.handle(ctx).First(&project, "project_id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectForUpdate locks the row for the duration of the enclosing
// transaction so concurrent writers serialize on the record.
func (r *gormRepository) GetProjectForUpdate(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	err := r.handle(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&project, "project_id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *gormRepository) UpdateProject(ctx context.Context, project *Project) error {
	return r.handle(ctx).Save(project).Error
}

func (r *gormRepository) ListProjects(ctx context.Context, filter ProjectFilter) ([]*Project, error) {
	query := r.handle(ctx).Model(&Project{})
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}
	if filter.Status != "" {
		query = query.Where("verification_status = ?", filter.Status)
	}
	if filter.Sector != "" {
		query = query.Where("sector = ?", filter.Sector)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var projects []*Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListProjectsInStatus returns projects in the given status created before
// the given unix timestamp. Used by the expiry sweeper.
func (r *gormRepository) ListProjectsInStatus(ctx context.Context, status VerificationStatus, before int64) ([]*Project, error) {
	var projects []*Project
	err := r.handle(ctx).
		Where("verification_status = ? AND created_at < to_timestamp(?)", status, before).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *gormRepository) GetGlobalRegistry(ctx context.Context) (*GlobalRegistry, error) {
	var reg GlobalRegistry
	err := r.handle(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reg, "id = ?", GlobalRegistryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("global registry not initialized")
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *gormRepository) UpdateGlobalRegistry(ctx context.Context, reg *GlobalRegistry) error {
	return r.handle(ctx).Save(reg).Error
}
