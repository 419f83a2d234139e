package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
)

// PasswordResetRepository defines reset token persistence operations.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error
	// FindByTokenHashForUpdate finds a token by digest with a row-level lock.
	// Only meaningful inside WithTransaction.
	FindByTokenHashForUpdate(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error)
	// Claim marks the token used if it is still unused. It reports false when
	// another redemption got there first.
	Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// ExpireOutstanding marks every other unused token of the user as used.
	ExpireOutstanding(ctx context.Context, userID uuid.UUID, except uuid.UUID, at time.Time) (int64, error)
	// DeleteSpent removes tokens that are used or expired at before.
	DeleteSpent(ctx context.Context, before time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository builds a GORM-backed repository.
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *passwordResetRepository) FindByTokenHashForUpdate(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *passwordResetRepository) Claim(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]any{"used": true, "used_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *passwordResetRepository) ExpireOutstanding(ctx context.Context, userID uuid.UUID, except uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("user_id = ? AND id <> ? AND used = ?", userID, except, false).
		Updates(map[string]any{"used": true, "used_at": at})
	return res.RowsAffected, res.Error
}

func (r *passwordResetRepository) DeleteSpent(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("used = ? OR expiration_time <= ?", true, before).
		Delete(&model.PasswordResetToken{})
	return res.RowsAffected, res.Error
}
