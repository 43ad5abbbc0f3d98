package escrow

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accord-registry/registry-backend/internal/database"
)

// Account holds the native-currency balance of one address.
type Account struct {
	Address   string    `gorm:"size:64;primaryKey" json:"address"`
	Balance   uint64    `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository defines storage for ledger accounts. InTx joins a
// transaction already carried in ctx, so balance moves made on behalf of
// a registry operation commit or roll back with it.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
	Get(ctx context.Context, address string) (*Account, error)
	GetForUpdate(ctx context.Context, address string) (*Account, error)
	GetOrCreateForUpdate(ctx context.Context, address string) (*Account, error)
	Update(ctx context.Context, account *Account) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed account repository.
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

func (r *gormRepository) Get(ctx context.Context, address string) (*Account, error) {
	var account Account
	err := r.handle(ctx).First(&account, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) GetForUpdate(ctx context.Context, address string) (*Account, error) {
	var account Account
	err := r.handle(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) GetOrCreateForUpdate(ctx context.Context, address string) (*Account, error) {
	account := &Account{Address: address}
	err := r.handle(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account).Error
	if err != nil {
		return nil, err
	}
	return r.GetForUpdate(ctx, address)
}

func (r *gormRepository) Update(ctx context.Context, account *Account) error {
	return r.handle(ctx).Save(account).Error
}
