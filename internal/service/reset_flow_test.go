package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/repository"
	"github.com/i-yashvi/E-Commerce-Backend/internal/testutil"
)

type resetFlow struct {
	store  repository.Store
	users  *MockUserService
	sender *MockSender
	now    time.Time
	svc    AuthService
	alice  *model.User
}

func newResetFlow(t *testing.T) *resetFlow {
	t.Helper()
	f := &resetFlow{
		store:  repository.NewStore(testutil.NewDB(t)),
		users:  new(MockUserService),
		sender: new(MockSender),
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("Invalidate", mock.Anything, mock.AnythingOfType("*model.User")).Maybe()

	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", Now: testutil.FixedClock(&f.now)})
	require.NoError(t, err)

	f.svc = NewAuthService(f.store, auth.NewBcryptHasher(bcrypt.MinCost), tokens, f.sender, f.users, AuthOptions{
		ResetTokenTTL: 30 * time.Minute,
		PublicBaseURL: "http://localhost:8000",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:           testutil.FixedClock(&f.now),
	})

	f.alice, err = f.svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "alice@x.com", Password: "Aa1!aaaa", Role: model.RoleUser,
	})
	require.NoError(t, err)
	return f
}

func (f *resetFlow) forgot(t *testing.T) string {
	t.Helper()
	req, err := f.svc.ForgotPassword(context.Background(), "alice@x.com")
	require.NoError(t, err)
	return req.Token
}

func TestResetPassword_SingleUse(t *testing.T) {
	f := newResetFlow(t)
	ctx := context.Background()
	token := f.forgot(t)

	require.NoError(t, f.svc.ResetPassword(ctx, token, "Bb2@bbbb"))

	err := f.svc.ResetPassword(ctx, token, "Cc3#cccc")
	assert.ErrorIs(t, err, apperrors.ErrExpiredOrUsed)
	testutil.AssertErrorCode(t, err, "RESET_TOKEN_EXPIRED_OR_USED")

	_, err = f.svc.Signin(ctx, "alice@x.com", "Aa1!aaaa")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = f.svc.Signin(ctx, "alice@x.com", "Cc3#cccc")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	_, err = f.svc.Signin(ctx, "alice@x.com", "Bb2@bbbb")
	assert.NoError(t, err)

	f.users.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestResetPassword_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name          string
		advance       time.Duration
		expectedError error
	}{
		{name: "just before expiry", advance: 30*time.Minute - time.Nanosecond},
		{name: "at expiry", advance: 30 * time.Minute, expectedError: apperrors.ErrExpiredOrUsed},
		{name: "after expiry", advance: time.Hour, expectedError: apperrors.ErrExpiredOrUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResetFlow(t)
			token := f.forgot(t)
			f.now = f.now.Add(tt.advance)

			err := f.svc.ResetPassword(context.Background(), token, "Bb2@bbbb")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newResetFlow(t)
	f.forgot(t)

	err := f.svc.ResetPassword(context.Background(), "not-a-real-token", "Bb2@bbbb")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "Invalid token.", apperrors.MapErrorToHTTP(err).Message)
	f.users.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestResetPassword_ConcurrentRedemption(t *testing.T) {
	f := newResetFlow(t)
	token := f.forgot(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.ResetPassword(context.Background(), token, "Bb2@bbbb")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, apperrors.ErrExpiredOrUsed), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestResetPassword_RejectedPasswordRollsBack(t *testing.T) {
	f := newResetFlow(t)
	ctx := context.Background()
	token := f.forgot(t)

	err := f.svc.ResetPassword(ctx, token, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// the claim was rolled back so the token still works
	require.NoError(t, f.svc.ResetPassword(ctx, token, "Bb2@bbbb"))
	_, err = f.svc.Signin(ctx, "alice@x.com", "Bb2@bbbb")
	assert.NoError(t, err)
}

func TestResetPassword_ExpiresOtherOutstandingTokens(t *testing.T) {
	f := newResetFlow(t)
	ctx := context.Background()
	first := f.forgot(t)
	second := f.forgot(t)

	require.NoError(t, f.svc.ResetPassword(ctx, second, "Bb2@bbbb"))

	err := f.svc.ResetPassword(ctx, first, "Cc3#cccc")
	assert.ErrorIs(t, err, apperrors.ErrExpiredOrUsed)
}

func TestResetPassword_InvalidatesCachedUser(t *testing.T) {
	f := newResetFlow(t)
	token := f.forgot(t)

	require.NoError(t, f.svc.ResetPassword(context.Background(), token, "Bb2@bbbb"))

	f.users.AssertCalled(t, "Invalidate", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == f.alice.ID && u.Email == "alice@x.com"
	}))
}

func TestPurgeResetTokens(t *testing.T) {
	f := newResetFlow(t)
	ctx := context.Background()

	used := f.forgot(t)
	require.NoError(t, f.svc.ResetPassword(ctx, used, "Bb2@bbbb"))

	f.now = f.now.Add(time.Minute)
	f.forgot(t)
	live := f.forgot(t)

	f.now = f.now.Add(10 * time.Minute)
	purged, err := f.svc.PurgeResetTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	// the newest token is still redeemable
	require.NoError(t, f.svc.ResetPassword(ctx, live, "Cc3#cccc"))

	f.now = f.now.Add(time.Hour)
	purged, err = f.svc.PurgeResetTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
}
