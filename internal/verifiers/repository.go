package verifiers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"accord-registry/registry-backend/internal/database"
)

// ErrVerifierNotFound is returned when no directory entry exists.
var ErrVerifierNotFound = errors.New("verifier not found")

// ErrVerifierExists is returned on duplicate registration.
var ErrVerifierExists = errors.New("verifier is already registered")

// Repository defines storage for the verifier directory. Calls join a
// registry transaction carried in ctx, so reputation updates commit with
// the verification that earned them.
type Repository interface {
	Create(ctx context.Context, verifier *Verifier) error
	Get(ctx context.Context, address string) (*Verifier, error)
	Update(ctx context.Context, verifier *Verifier) error
	List(ctx context.Context, activeOnly bool) ([]*Verifier, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed verifier repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) handle(ctx context.Context) *gorm.DB {
	return database.Handle(ctx, r.db).WithContext(ctx)
}

func (r *gormRepository) Create(ctx context.Context, verifier *Verifier) error {
	err := r.handle(ctx).Create(verifier).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrVerifierExists
	}
	return err
}

func (r *gormRepository) Get(ctx context.Context, address string) (*Verifier, error) {
	var verifier Verifier
	err := r.handle(ctx).First(&verifier, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerifierNotFound
	}
	if err != nil {
		return nil, err
	}
	return &verifier, nil
}

func (r *gormRepository) Update(ctx context.Context, verifier *Verifier) error {
	return r.handle(ctx).Save(verifier).Error
}

func (r *gormRepository) List(ctx context.Context, activeOnly bool) ([]*Verifier, error) {
	query := r.handle(ctx).Model(&Verifier{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var list []*Verifier
	if err := query.Order("registration_date").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
