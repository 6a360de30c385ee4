package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"protoform/internal/auth"
	"protoform/internal/cache"
	apperrors "protoform/internal/errors"
	"protoform/internal/model"
)

func newTestAuthService(repo *MockUserRepository) AuthService {
	return NewAuthService(repo, auth.NewJWTService("test-secret"), cache.New("", "", 0), zerolog.Nop())
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		phone         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			email:    "maker@example.com",
			phone:    "+15550100",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "maker@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByPhone", mock.Anything, "+15550100").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:     "email already registered",
			email:    "existing@example.com",
			phone:    "+15550101",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{ID: 1, Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailAlreadyRegistered,
		},
		{
			name:     "phone already registered",
			email:    "new@example.com",
			phone:    "+15550102",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByPhone", mock.Anything, "+15550102").Return(&model.User{ID: 2, Phone: "+15550102"}, nil)
			},
			expectedError: apperrors.ErrPhoneAlreadyRegistered,
		},
		{
			name:     "phone taken between check and insert",
			email:    "race@example.com",
			phone:    "+15550103",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByPhone", mock.Anything, "+15550103").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(&mysql.MySQLError{
					Number:  1062,
					Message: "Duplicate entry '+15550103' for key 'users.idx_users_phone'",
				})
			},
			expectedError: apperrors.ErrPhoneAlreadyRegistered,
		},
		{
			name:          "password too short",
			email:         "short@example.com",
			phone:         "+15550104",
			password:      "12345",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			user, err := newTestAuthService(mockRepo).Register(context.Background(), "Test User", tt.email, tt.phone, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.phone, user.Phone)
				assert.NotEqual(t, tt.password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_LookupFailureIsNotAConflict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, errors.New("connection reset"))

	_, err := newTestAuthService(mockRepo).Register(context.Background(), "A", "a@example.com", "+15550100", "password123")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrEmailAlreadyRegistered)
	assert.Equal(t, "INTERNAL_ERROR", apperrors.MapErrorToHTTP(err).Code)
}

func TestAuthService_Register_TwiceConflicts(t *testing.T) {
	repo := &memUserRepository{}
	svc := NewAuthService(repo, auth.NewJWTService("test-secret"), cache.New("", "", 0), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Register(ctx, "First", "same@example.com", "+15550200", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Second", "same@example.com", "+15550201", "password123")
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyRegistered)

	_, err = svc.Register(ctx, "Third", "other@example.com", "+15550200", "password123")
	assert.ErrorIs(t, err, apperrors.ErrPhoneAlreadyRegistered)

	users, _ := repo.List(ctx)
	assert.Len(t, users, 1)
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	require.NoError(t, err)
	stored := &model.User{
		ID:           7,
		Name:         "Test User",
		Email:        "test@example.com",
		Phone:        "+15550100",
		PasswordHash: string(hashedPassword),
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "password124",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			token, user, err := newTestAuthService(mockRepo).Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, stored.ID, user.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_TokenBindsUserForOneHour(t *testing.T) {
	repo := &memUserRepository{}
	jwtService := auth.NewJWTService("test-secret")
	svc := NewAuthService(repo, jwtService, cache.New("", "", 0), zerolog.Nop())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Maker", "maker@example.com", "+15550300", "password123")
	require.NoError(t, err)

	before := time.Now().Truncate(time.Second)
	token, user, err := svc.Login(ctx, "maker@example.com", "password123")
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.False(t, claims.IssuedAt.Time.Before(before))
}

func TestAuthService_Login_WrongPasswordIsAlwaysGeneric(t *testing.T) {
	repo := &memUserRepository{}
	svc := NewAuthService(repo, auth.NewJWTService("test-secret"), cache.New("", "", 0), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Maker", "maker@example.com", "+15550300", "password123")
	require.NoError(t, err)

	for _, password := range []string{"", "password12", "PASSWORD123", "password1234"} {
		_, _, err := svc.Login(ctx, "maker@example.com", password)
		assert.Equal(t, apperrors.ErrInvalidCredentials, err, password)
	}
	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.Equal(t, apperrors.ErrInvalidCredentials, err)
}
