package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/i-yashvi/E-Commerce-Backend/internal/cache"
	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/repository"
)

// UserService exposes user lookups. Lookups are cached; password digests are never cached.
type UserService interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]model.User, error)
	// Invalidate drops the cached copies of user.
	Invalidate(ctx context.Context, user *model.User)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
	ttl   time.Duration
}

// NewUserService builds a UserService with repository and cache. A zero ttl disables caching.
func NewUserService(repo repository.UserRepository, cache *cache.Client, ttl time.Duration) UserService {
	return &userService{repo: repo, cache: cache, ttl: ttl}
}

func emailKey(email string) string {
	return "user:email:" + email
}

func idKey(id uuid.UUID) string {
	return fmt.Sprintf("user:id:%s", id)
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.cached(ctx, emailKey(email), func() (*model.User, error) {
		return s.repo.FindByEmail(ctx, email)
	})
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.cached(ctx, idKey(id), func() (*model.User, error) {
		return s.repo.FindByID(ctx, id)
	})
}

func (s *userService) cached(ctx context.Context, key string, load func() (*model.User, error)) (*model.User, error) {
	if s.ttl > 0 {
		if data, _ := s.cache.Get(ctx, key); data != nil {
			var cached model.User
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	user, err := load()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oops.Code("USER_NOT_FOUND").Public("User not found.").
				Wrap(fmt.Errorf("%w: %w", apperrors.ErrNotFound, err))
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").With("key", key).
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrInternal, err))
	}

	if s.ttl > 0 {
		if payload, err := json.Marshal(user); err == nil {
			_ = s.cache.Set(ctx, key, payload, s.ttl)
		}
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, error) {
	users, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(fmt.Errorf("%w: %w", apperrors.ErrInternal, err))
	}
	return users, nil
}

func (s *userService) Invalidate(ctx context.Context, user *model.User) {
	if user == nil {
		return
	}
	_ = s.cache.Delete(ctx, emailKey(user.Email))
	_ = s.cache.Delete(ctx, idKey(user.ID))
}
