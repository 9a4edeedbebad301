package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campusportal/internal/auth"
	"campusportal/internal/cache"
	apperrors "campusportal/internal/errors"
	"campusportal/internal/model"
	"campusportal/internal/repository"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Profile(ctx context.Context, userID string) (*model.PublicUser, error)
	EnsureUser(ctx context.Context, username, email, password string) (*model.User, bool, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	profiles   cache.ProfileCache
	logger     *zap.Logger
	cost       int
	// dummyHash is compared against on unknown emails so both login
	// failures cost one bcrypt comparison.
	dummyHash []byte
	now       func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	profiles cache.ProfileCache,
	logger *zap.Logger,
	bcryptCost int,
) (AuthService, error) {
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	if profiles == nil {
		// A nil *cache.Client always misses.
		profiles = (*cache.Client)(nil)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		profiles:   profiles,
		logger:     logger.Named("auth"),
		cost:       bcryptCost,
		dummyHash:  dummy,
		now:        time.Now,
	}, nil
}

// Register creates a new user with a hashed password and issues a token.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	if len(password) > MaxPasswordBytes {
		return nil, "", apperrors.ErrPasswordTooLong
	}

	existing, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrDuplicateUser
	}
	// Anything other than "not found" is a storage fault.
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// Lost a race with a concurrent registration.
			return nil, "", apperrors.ErrDuplicateUser
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login verifies the password for email and issues a token.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Result ignored: the comparison only pads the unknown-email path
			// to the cost of a wrong password.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("user_id", user.ID))
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, token, nil
}

// Profile returns the public view of the user a token names.
func (s *authService) Profile(ctx context.Context, userID string) (*model.PublicUser, error) {
	if cached, ok := s.profiles.GetProfile(ctx, userID); ok {
		return cached, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	public := user.Public()
	s.profiles.SetProfile(ctx, public)
	return &public, nil
}

// EnsureUser registers a fixture user unless one already holds the email or
// username. Existing records are returned untouched.
func (s *authService) EnsureUser(ctx context.Context, username, email, password string) (*model.User, bool, error) {
	existing, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err == nil && existing != nil {
		return existing, false, nil
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("check user existence: %w", err)
	}

	user, _, err := s.Register(ctx, username, email, password)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
