package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"protoform/internal/auth"
	"protoform/internal/cache"
	"protoform/internal/db"
	apperrors "protoform/internal/errors"
	"protoform/internal/metrics"
	"protoform/internal/model"
	"protoform/internal/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
)

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, name, email, phone, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	cache      *cache.Client
	logger     zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, cache *cache.Client, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		cache:      cache,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a user after checking email and phone are both unused.
// The two lookups and the insert are not atomic; the unique indexes on the
// users table catch the race and surface as the same duplicate errors.
func (s *authService) Register(ctx context.Context, name, email, phone, password string) (*model.User, error) {
	name, email, phone = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone)
	if name == "" || email == "" || phone == "" || password == "" {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%w: name, email, phone and password are required", apperrors.ErrValidation)
	}
	if len(password) < minPasswordLength {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}

	if err := s.ensureUnused(ctx, email, phone); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if db.IsDuplicateKey(err) {
			metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
			return nil, duplicateCause(err)
		}
		metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("create user: %w", err)
	}

	_ = s.cache.Delete(ctx, usersListCacheKey)
	metrics.Registrations.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")

	return user, nil
}

func (s *authService) ensureUnused(ctx context.Context, email, phone string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		return apperrors.ErrEmailAlreadyRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("check email: %w", err)
	}

	existing, err = s.userRepo.FindByPhone(ctx, phone)
	if err == nil && existing != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		return apperrors.ErrPhoneAlreadyRegistered
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("check phone: %w", err)
	}

	return nil
}

// Login verifies the credential pair and issues a bearer token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Logins.WithLabelValues(metrics.ResultRejected).Inc()
			s.logger.Debug().Str("reason", "unknown_email").Msg("login rejected")
			return "", nil, apperrors.ErrInvalidCredentials
		}
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.Logins.WithLabelValues(metrics.ResultRejected).Inc()
		s.logger.Debug().Str("reason", "password_mismatch").Uint("user_id", user.ID).Msg("login rejected")
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	metrics.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return token, user, nil
}

// duplicateCause picks the duplicate error matching the index named in a
// MySQL 1062 message ("... for key 'users.idx_users_phone'").
func duplicateCause(err error) error {
	msg := err.Error()
	if i := strings.LastIndex(msg, "for key"); i >= 0 && strings.Contains(msg[i:], "phone") {
		return apperrors.ErrPhoneAlreadyRegistered
	}
	return apperrors.ErrEmailAlreadyRegistered
}
