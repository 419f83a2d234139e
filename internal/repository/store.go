package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share a database handle.
type Store interface {
	Users() UserRepository
	PasswordResets() PasswordResetRepository
	// WithTransaction runs fn inside a database transaction. fn receives a Store bound
	// to the transaction; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore builds a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) PasswordResets() PasswordResetRepository {
	return &passwordResetRepository{db: s.db}
}

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}
