package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"campusportal/internal/model"
)

var (
	// ErrUserNotFound is returned when no record matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned by Create when the username or email is taken.
	ErrDuplicateUser = errors.New("user already exists")
)

// UserRepository is the credential store. Create must check uniqueness and
// insert as one atomic step.
type UserRepository interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository. The db must be opened
// with TranslateError so unique-index violations surface as gorm.ErrDuplicatedKey.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", email, username).
		Order("created_at").
		First(&user).Error
	return found(&user, err)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return found(&user, err)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return found(&user, err)
}

// Create relies on the unique indexes on username and email.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	return err
}

func found(user *model.User, err error) (*model.User, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
