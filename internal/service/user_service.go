package service

import (
	"context"
	"fmt"
	"time"

	"protoform/internal/cache"
	"protoform/internal/model"
	"protoform/internal/repository"
)

const (
	userCacheTTL      = 5 * time.Minute
	listCacheTTL      = 30 * time.Second
	usersListCacheKey = "users:all"
)

// UserService exposes read operations over registered users.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

// ListUsers returns every user. Password hashes never reach the cache or the
// caller's JSON since the field is excluded from serialization.
func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	var cached []model.User
	if s.cache.GetJSON(ctx, usersListCacheKey, &cached) {
		return cached, nil
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}

	s.cache.SetJSON(ctx, usersListCacheKey, users, listCacheTTL)
	return users, nil
}
