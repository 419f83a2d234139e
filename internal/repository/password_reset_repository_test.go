package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/repository"
	"github.com/i-yashvi/E-Commerce-Backend/internal/testutil"
)

func seedToken(t *testing.T, store repository.Store, userID uuid.UUID, hash string, expires time.Time) *model.PasswordResetToken {
	t.Helper()
	token := &model.PasswordResetToken{TokenHash: hash, UserID: userID, ExpiresAt: expires}
	require.NoError(t, store.PasswordResets().Create(context.Background(), token))
	return token
}

func TestPasswordResetRepository_FindAndClaim(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testutil.NewDB(t))
	user := newUser("ann@example.com", model.RoleUser)
	require.NoError(t, store.Users().Create(ctx, user))

	now := time.Now().UTC().Truncate(time.Second)
	token := seedToken(t, store, user.ID, "hash-1", now.Add(30*time.Minute))

	found, err := store.PasswordResets().FindByTokenHashForUpdate(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)
	assert.False(t, found.Used)
	assert.True(t, found.Redeemable(now))

	_, err = store.PasswordResets().FindByTokenHashForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	claimed, err := store.PasswordResets().Claim(ctx, token.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.PasswordResets().Claim(ctx, token.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed, "a token can only be claimed once")

	found, err = store.PasswordResets().FindByTokenHashForUpdate(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, found.Used)
	require.NotNil(t, found.UsedAt)
}

func TestPasswordResetRepository_DuplicateHash(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testutil.NewDB(t))
	userID := uuid.New()
	seedToken(t, store, userID, "same", time.Now().Add(time.Hour))

	err := store.PasswordResets().Create(ctx, &model.PasswordResetToken{TokenHash: "same", UserID: userID, ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestPasswordResetRepository_ExpireOutstanding(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testutil.NewDB(t))
	now := time.Now().UTC()

	userID, otherUser := uuid.New(), uuid.New()
	current := seedToken(t, store, userID, "current", now.Add(time.Hour))
	seedToken(t, store, userID, "older", now.Add(time.Hour))
	seedToken(t, store, userID, "oldest", now.Add(time.Hour))
	seedToken(t, store, otherUser, "unrelated", now.Add(time.Hour))

	n, err := store.PasswordResets().ExpireOutstanding(ctx, userID, current.ID, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	for hash, wantUsed := range map[string]bool{"current": false, "older": true, "oldest": true, "unrelated": false} {
		tok, err := store.PasswordResets().FindByTokenHashForUpdate(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, wantUsed, tok.Used, hash)
	}
}

func TestPasswordResetRepository_DeleteSpent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testutil.NewDB(t))
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New()

	seedToken(t, store, userID, "live", now.Add(time.Hour))
	seedToken(t, store, userID, "expired", now.Add(-time.Hour))
	used := seedToken(t, store, userID, "used", now.Add(time.Hour))
	_, err := store.PasswordResets().Claim(ctx, used.ID, now)
	require.NoError(t, err)

	n, err := store.PasswordResets().DeleteSpent(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = store.PasswordResets().FindByTokenHashForUpdate(ctx, "live")
	assert.NoError(t, err)
	_, err = store.PasswordResets().FindByTokenHashForUpdate(ctx, "expired")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_WithTransaction(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testutil.NewDB(t))

	t.Run("commit", func(t *testing.T) {
		err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			return tx.Users().Create(ctx, newUser("commit@example.com", model.RoleUser))
		})
		require.NoError(t, err)
		_, err = store.Users().FindByEmail(ctx, "commit@example.com")
		assert.NoError(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			if err := tx.Users().Create(ctx, newUser("rollback@example.com", model.RoleUser)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = store.Users().FindByEmail(ctx, "rollback@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
