package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasswordResetToken is a single-use, time-boxed grant to change one user's password.
// Only the SHA-256 digest of the emailed token is stored.
type PasswordResetToken struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	TokenHash string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	ExpiresAt time.Time  `json:"expiration_time" gorm:"column:expiration_time;not null;index"`
	Used      bool       `json:"used" gorm:"not null;default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Redeemable reports whether the token can still be exchanged for a password change at now.
func (t *PasswordResetToken) Redeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
