package app

import (
	"context"
	"errors"
	"strings"

	"mindhaven/internal/model"
	"mindhaven/internal/repository"
)

// CreatorPosts is satisfied by PostService, so per-user listings share the post cache.
type CreatorPosts interface {
	ListByCreator(ctx context.Context, userID uint) ([]model.Post, error)
}

type UserService struct {
	users UserStore
	posts CreatorPosts
}

// ProfileUpdate carries only the fields the caller supplied.
type ProfileUpdate struct {
	Name     *string
	Username *string
	Gender   *string
	Age      *int
	Bio      *string
}

func NewUserService(users UserStore, posts CreatorPosts) *UserService {
	return &UserService{users: users, posts: posts}
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// PostsByUser lists a user's posts newest first.
func (s *UserService) PostsByUser(ctx context.Context, id uint) ([]model.Post, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.posts.ListByCreator(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, callerID, id uint, input ProfileUpdate) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != user.ID {
		return nil, ErrForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		user.Name = name
	}
	if input.Age != nil {
		if *input.Age < 0 {
			return nil, validationError("age must not be negative")
		}
		user.Age = *input.Age
	}
	if input.Bio != nil {
		user.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.Gender != nil && *input.Gender != user.Gender {
		if !model.IsGender(*input.Gender) {
			return nil, validationError("gender must be one of %s", strings.Join(model.Genders, ", "))
		}
		user.Gender = *input.Gender
		user.ProfilePicture = ProfilePictureURL(user.Gender, user.Email)
	}
	if input.Username != nil {
		if err := s.applyUsername(ctx, user, strings.TrimSpace(*input.Username)); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) applyUsername(ctx context.Context, user *model.User, username string) error {
	if username == "" {
		user.Username = nil
		return nil
	}
	if user.Username != nil && *user.Username == username {
		return nil
	}
	if err := validateUsername(username); err != nil {
		return err
	}
	taken, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken != nil && taken.ID != user.ID {
		return ErrDuplicateUsername
	}
	user.Username = &username
	return nil
}
