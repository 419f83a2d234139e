package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
	"github.com/i-yashvi/E-Commerce-Backend/internal/email"
	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/repository"
)

// TokenTypeBearer is the token_type returned with every token pair.
const TokenTypeBearer = "bearer"

// DefaultResetTokenTTL is how long a password reset link stays valid.
const DefaultResetTokenTTL = 30 * time.Minute

// dummyPassword is hashed once at startup; unknown emails are verified against its
// digest so that signin takes the same time whether or not the account exists.
const dummyPassword = "dummy-password-for-timing"

// SignupInput carries a new account's details.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// TokenPair is the result of a successful signin or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// ResetRequest describes a reset token that was issued and emailed.
type ResetRequest struct {
	Token     string
	ExpiresAt time.Time
}

// EventRecorder counts auth flow outcomes.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
	RecordEmailFailure()
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthEvent(string, string) {}
func (noopRecorder) RecordEmailFailure()            {}

// AuthOptions holds the optional collaborators and settings of the auth service.
type AuthOptions struct {
	ResetTokenTTL time.Duration
	PublicBaseURL string
	Logger        *slog.Logger
	Events        EventRecorder
	Now           func() time.Time
}

// AuthService handles authentication operations. Each method serves one request.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Signin(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ForgotPassword(ctx context.Context, email string) (*ResetRequest, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	// PurgeResetTokens deletes reset tokens that can no longer be redeemed.
	PurgeResetTokens(ctx context.Context) (int64, error)
}

type authService struct {
	store     repository.Store
	hasher    auth.PasswordHasher
	tokens    *auth.TokenService
	mailer    email.Sender
	users     UserService
	events    EventRecorder
	logger    *slog.Logger
	resetTTL  time.Duration
	baseURL   string
	now       func() time.Time
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store repository.Store,
	hasher auth.PasswordHasher,
	tokens *auth.TokenService,
	mailer email.Sender,
	users UserService,
	opts AuthOptions,
) AuthService {
	s := &authService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		users:    users,
		events:   opts.Events,
		logger:   opts.Logger,
		resetTTL: opts.ResetTokenTTL,
		baseURL:  strings.TrimRight(opts.PublicBaseURL, "/"),
		now:      opts.Now,
	}
	if s.events == nil {
		s.events = noopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.resetTTL <= 0 {
		s.resetTTL = DefaultResetTokenTTL
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if digest, err := hasher.Hash(dummyPassword); err == nil {
		s.dummyHash = digest
	}
	return s
}

func internalErr(code, operation string, err error) error {
	return oops.Code(code).With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", apperrors.ErrInternal, err))
}

func passwordErr(code string, err error) error {
	if errors.Is(err, auth.ErrEmptyPassword) || errors.Is(err, auth.ErrPasswordTooLong) {
		return oops.Code(code).Public(err.Error()).
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrValidation, err))
	}
	return internalErr(code, "hash password", err)
}

// Signup creates a new user with a hashed password. No token is issued.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, oops.Code("INVALID_ROLE").Public("Role must be admin or user.").
			With("role", role.String()).
			Wrap(apperrors.ErrValidation)
	}

	_, err := s.store.Users().FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		s.events.RecordAuthEvent("signup", "conflict")
		return nil, oops.Code("EMAIL_ALREADY_REGISTERED").Public("Email already registered.").
			Wrap(apperrors.ErrConflict)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, internalErr("SIGNUP_FAILED", "check email", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, passwordErr("SIGNUP_FAILED", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: digest,
		Role:         role,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent signup for the same email
			s.events.RecordAuthEvent("signup", "conflict")
			return nil, oops.Code("EMAIL_ALREADY_REGISTERED").Public("Email already registered.").
				Wrap(fmt.Errorf("%w: %w", apperrors.ErrConflict, err))
		}
		return nil, internalErr("SIGNUP_FAILED", "create user", err)
	}

	s.events.RecordAuthEvent("signup", "success")
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.String(), "role", user.Role.String())
	return user, nil
}

// Signin authenticates a user and returns access and refresh tokens.
// Unknown emails and wrong passwords produce the same error.
func (s *authService) Signin(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, internalErr("SIGNIN_FAILED", "find user", err)
	}

	target := s.dummyHash
	if user != nil {
		target = user.PasswordHash
	}
	valid := s.hasher.Verify(password, target)

	if user == nil || !valid {
		s.events.RecordAuthEvent("signin", "failure")
		return nil, oops.Code("INVALID_CREDENTIALS").Public("Invalid credentials.").
			Wrap(apperrors.ErrUnauthenticated)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	s.events.RecordAuthEvent("signin", "success")
	return pair, nil
}

func (s *authService) issuePair(user *model.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, internalErr("TOKEN_ISSUE_FAILED", "issue access token", err)
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, internalErr("TOKEN_ISSUE_FAILED", "issue refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

// Refresh exchanges a refresh token for a new access token for a user that still exists.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.events.RecordAuthEvent("refresh", "failure")
		return nil, oops.Code("INVALID_REFRESH_TOKEN").Public("Invalid or expired refresh token.").
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err))
	}

	user, err := s.store.Users().FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.events.RecordAuthEvent("refresh", "failure")
			return nil, oops.Code("INVALID_REFRESH_TOKEN").Public("Invalid or expired refresh token.").
				Wrap(fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err))
		}
		return nil, internalErr("REFRESH_FAILED", "find user", err)
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, internalErr("TOKEN_ISSUE_FAILED", "issue access token", err)
	}
	s.events.RecordAuthEvent("refresh", "success")
	return &TokenPair{AccessToken: access, TokenType: TokenTypeBearer}, nil
}

// ForgotPassword issues a reset token for a known email and emails the reset link.
// Email delivery is best effort.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) (*ResetRequest, error) {
	user, err := s.store.Users().FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.events.RecordAuthEvent("forgot_password", "unknown_email")
			return nil, oops.Code("EMAIL_NOT_FOUND").Public("Email not found").
				Wrap(fmt.Errorf("%w: %w", apperrors.ErrNotFound, err))
		}
		return nil, internalErr("FORGOT_PASSWORD_FAILED", "find user", err)
	}

	token, digest, err := auth.GenerateResetToken()
	if err != nil {
		return nil, internalErr("FORGOT_PASSWORD_FAILED", "generate reset token", err)
	}
	record := &model.PasswordResetToken{
		TokenHash: digest,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.store.PasswordResets().Create(ctx, record); err != nil {
		return nil, internalErr("FORGOT_PASSWORD_FAILED", "store reset token", err)
	}

	link := s.baseURL + "/auth/reset-password-form?token=" + url.QueryEscape(token)
	s.sendResetEmail(ctx, user, link)

	s.events.RecordAuthEvent("forgot_password", "success")
	return &ResetRequest{Token: token, ExpiresAt: record.ExpiresAt}, nil
}

func (s *authService) sendResetEmail(ctx context.Context, user *model.User, link string) {
	body, err := email.ResetPasswordBody(link, s.resetTTL)
	if err == nil {
		err = s.mailer.Send(ctx, user.Email, email.ResetPasswordSubject, body)
	}
	if err != nil {
		s.events.RecordEmailFailure()
		apperrors.LogError(ctx, s.logger, "reset email not delivered",
			oops.Code("RESET_EMAIL_FAILED").With("user_id", user.ID.String()).Wrap(err))
	}
}

// ResetPassword redeems a reset token and replaces the user's password. The lookup,
// the used-flag transition and the password update commit or roll back together.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	digest := auth.HashResetToken(token)
	var user *model.User

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		record, err := tx.PasswordResets().FindByTokenHashForUpdate(ctx, digest)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return oops.Code("RESET_TOKEN_NOT_FOUND").Public("Invalid token.").
					Wrap(fmt.Errorf("%w: %w", apperrors.ErrNotFound, err))
			}
			return internalErr("RESET_FAILED", "find reset token", err)
		}

		now := s.now()
		if !record.Redeemable(now) {
			return oops.Code("RESET_TOKEN_EXPIRED_OR_USED").Public("Token expired or already used.").
				With("used", record.Used, "expires_at", record.ExpiresAt).
				Wrap(apperrors.ErrExpiredOrUsed)
		}

		claimed, err := tx.PasswordResets().Claim(ctx, record.ID, now)
		if err != nil {
			return internalErr("RESET_FAILED", "claim reset token", err)
		}
		if !claimed {
			return oops.Code("RESET_TOKEN_EXPIRED_OR_USED").Public("Token expired or already used.").
				Wrap(apperrors.ErrExpiredOrUsed)
		}

		passwordHash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return passwordErr("RESET_FAILED", err)
		}

		user, err = tx.Users().FindByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return oops.Code("RESET_TOKEN_NOT_FOUND").Public("Invalid token.").
					Wrap(fmt.Errorf("%w: %w", apperrors.ErrNotFound, err))
			}
			return internalErr("RESET_FAILED", "find user", err)
		}
		if err := tx.Users().UpdatePassword(ctx, user.ID, passwordHash); err != nil {
			return internalErr("RESET_FAILED", "update password", err)
		}
		if _, err := tx.PasswordResets().ExpireOutstanding(ctx, user.ID, record.ID, now); err != nil {
			return internalErr("RESET_FAILED", "expire outstanding tokens", err)
		}
		return nil
	})
	if err != nil {
		s.events.RecordAuthEvent("reset_password", "failure")
		return err
	}

	s.users.Invalidate(ctx, user)
	s.events.RecordAuthEvent("reset_password", "success")
	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID.String())
	return nil
}

func (s *authService) PurgeResetTokens(ctx context.Context) (int64, error) {
	n, err := s.store.PasswordResets().DeleteSpent(ctx, s.now())
	if err != nil {
		return 0, internalErr("PURGE_FAILED", "delete spent reset tokens", err)
	}
	return n, nil
}
