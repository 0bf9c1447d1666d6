package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindhaven/internal/model"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post failed: %w", err)
	}
	return nil
}

// List returns every post in insertion order.
func (r *PostRepository) List(ctx context.Context) ([]model.Post, error) {
	posts := []model.Post{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts failed: %w", err)
	}
	return posts, nil
}

// ListByCreator returns the posts of one user, newest first.
func (r *PostRepository) ListByCreator(ctx context.Context, userID uint) ([]model.Post, error) {
	posts := []model.Post{}
	err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts by creator failed: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post failed: %w", err)
	}
	return &post, nil
}

// UpdateContent overwrites the client-editable columns. CreatedBy and CreatedAt are excluded.
func (r *PostRepository) UpdateContent(ctx context.Context, post *model.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Select("Title", "Article", "Category", "Tags").
		Updates(post).Error
	if err != nil {
		return fmt.Errorf("update post failed: %w", err)
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Post{}, id).Error; err != nil {
		return fmt.Errorf("delete post failed: %w", err)
	}
	return nil
}
