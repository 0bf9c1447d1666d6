package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindhaven/internal/model"
)

// ErrDuplicateKey reports a write rejected by a unique index. GORM must be
// opened with TranslateError for drivers to surface it.
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user failed: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// UpdateProfile writes only the profile columns; email and password hash are never touched here.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("Name", "Username", "Gender", "Age", "Bio", "ProfilePicture").
		Updates(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("update user profile failed: %w", ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("update user profile failed: %w", err)
	}
	return nil
}
