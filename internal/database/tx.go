// Package database carries a shared gorm transaction through the request
// context so repositories in different packages can join one commit
// boundary. A registry operation that claims a cell, moves escrow and
// writes the project record commits all three or none.
package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// InTx runs fn inside a single transaction and binds it to the context
// passed to fn. If ctx already carries a transaction the work joins it
// through a savepoint, so nested calls commit or roll back with the
// outermost transaction.
func InTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return Handle(ctx, db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Handle resolves the database handle for ctx: the transaction bound to
// it, or fallback when none is.
func Handle(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
