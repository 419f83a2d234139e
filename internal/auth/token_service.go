package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
)

const (
	// DefaultAccessTokenTTL is the lifetime of access tokens when none is configured.
	DefaultAccessTokenTTL = 30 * time.Minute
	// DefaultRefreshTokenTTL is the lifetime of refresh tokens when none is configured.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrTokenExpired is returned when a token's expiry is at or before the current time.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for bad signatures, malformed payloads, missing expiry,
	// algorithm mismatch or the wrong kind of token.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims represents JWT claims. The subject is the user's email.
type Claims struct {
	Role model.Role `json:"role,omitempty"`
	Kind TokenKind  `json:"typ"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// TokenService handles JWT token generation and validation.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service. Only HMAC algorithms are accepted;
// an empty algorithm means HS256.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret cannot be empty")
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "", jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	s := &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTokenTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Algorithm returns the configured signing algorithm name.
func (s *TokenService) Algorithm() string {
	return s.method.Alg()
}

// Issue signs claims with exp = now + ttl and iat = now.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// IssueAccess generates a new access token for the user.
func (s *TokenService) IssueAccess(user *model.User) (string, error) {
	return s.Issue(Claims{
		Role:             user.Role,
		Kind:             TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.Email},
	}, s.accessTTL)
}

// IssueRefresh generates a new refresh token for the user. Refresh tokens carry no role.
func (s *TokenService) IssueRefresh(user *model.User) (string, error) {
	return s.Issue(Claims{
		Kind:             TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.Email},
	}, s.refreshTTL)
}

// Verify validates signature, algorithm and expiry and returns the claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// VerifyAccess verifies an access token. Refresh tokens are rejected.
func (s *TokenService) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindAccess {
		return nil, fmt.Errorf("%w: expected access token, got %q", ErrTokenInvalid, claims.Kind)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}
	return claims, nil
}

// VerifyRefresh verifies a refresh token. Access tokens are rejected.
func (s *TokenService) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindRefresh {
		return nil, fmt.Errorf("%w: expected refresh token, got %q", ErrTokenInvalid, claims.Kind)
	}
	return claims, nil
}
