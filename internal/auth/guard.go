package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"

	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/repository"
)

// IdentityLookup resolves the subject of an access token to a stored user.
// A missing user is reported as repository.ErrNotFound.
type IdentityLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Guard resolves bearer tokens to identities and enforces role requirements.
type Guard struct {
	tokens *TokenService
	users  IdentityLookup
}

// NewGuard creates a guard.
func NewGuard(tokens *TokenService, users IdentityLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// CurrentIdentity verifies an access token and loads the user it names.
func (g *Guard) CurrentIdentity(ctx context.Context, bearer string) (*model.User, error) {
	if bearer == "" {
		return nil, oops.Code("UNAUTHENTICATED").With("reason", "missing_token").Wrap(apperrors.ErrUnauthenticated)
	}

	claims, err := g.tokens.VerifyAccess(bearer)
	if err != nil {
		reason := "invalid_token"
		if errors.Is(err, ErrTokenExpired) {
			reason = "expired_token"
		}
		return nil, oops.Code("UNAUTHENTICATED").With("reason", reason).
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err))
	}

	user, err := g.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oops.Code("UNAUTHENTICATED").With("reason", "unknown_subject").
				Wrap(fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err))
		}
		return nil, oops.Code("IDENTITY_LOOKUP_FAILED").
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrInternal, err))
	}
	return user, nil
}

// Authorize allows the user only when its role equals expected. Roles have no hierarchy.
func (g *Guard) Authorize(user *model.User, expected model.Role) error {
	if user == nil {
		return oops.Code("UNAUTHENTICATED").Wrap(apperrors.ErrUnauthenticated)
	}

	switch user.Role {
	case model.RoleAdmin, model.RoleUser:
		if user.Role == expected {
			return nil
		}
		return oops.Code("FORBIDDEN").
			With("role", user.Role.String(), "required", expected.String()).
			Wrap(apperrors.ErrForbidden)
	default:
		return oops.Code("FORBIDDEN").With("role", user.Role.String()).
			Wrapf(apperrors.ErrForbidden, "unknown role")
	}
}
