package app

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"mindhaven/internal/model"
)

const (
	maxTitleLength = 200
	maxTags        = 20
	maxTagLength   = 40
)

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	List(ctx context.Context) ([]model.Post, error)
	ListByCreator(ctx context.Context, userID uint) ([]model.Post, error)
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	UpdateContent(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id uint) error
}

type PostCache interface {
	GetAll(ctx context.Context) ([]model.Post, bool, error)
	SetAll(ctx context.Context, posts []model.Post) error
	GetByCreator(ctx context.Context, userID uint) ([]model.Post, bool, error)
	SetByCreator(ctx context.Context, userID uint, posts []model.Post) error
	Invalidate(ctx context.Context, creatorID uint) error
}

type PostService struct {
	posts PostStore
	cache PostCache
	log   *slog.Logger
}

// PostInput is the client-editable part of a post.
type PostInput struct {
	Title    string
	Article  string
	Category string
	Tags     []string
}

// NewPostService accepts a nil cache, in which case every read hits the store.
func NewPostService(posts PostStore, cache PostCache, log *slog.Logger) *PostService {
	return &PostService{posts: posts, cache: cache, log: log}
}

func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetAll(ctx)
		if err != nil {
			s.log.Warn("post cache read failed", "err", err)
		} else if hit {
			return cached, nil
		}
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAll(ctx, posts); err != nil {
			s.log.Warn("post cache write failed", "err", err)
		}
	}
	return posts, nil
}

// ListByCreator serves the per-user listing through the same cache.
func (s *PostService) ListByCreator(ctx context.Context, userID uint) ([]model.Post, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetByCreator(ctx, userID)
		if err != nil {
			s.log.Warn("post cache read failed", "user_id", userID, "err", err)
		} else if hit {
			return cached, nil
		}
	}

	posts, err := s.posts.ListByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetByCreator(ctx, userID, posts); err != nil {
			s.log.Warn("post cache write failed", "user_id", userID, "err", err)
		}
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, callerID uint, input PostInput) (*model.Post, error) {
	clean, err := sanitizePostInput(input)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:     clean.Title,
		Article:   clean.Article,
		Category:  clean.Category,
		Tags:      clean.Tags,
		CreatedBy: callerID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate(ctx, callerID)
	return post, nil
}

// Update checks existence, then ownership, then the payload.
func (s *PostService) Update(ctx context.Context, callerID, id uint, input PostInput) (*model.Post, error) {
	post, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	clean, err := sanitizePostInput(input)
	if err != nil {
		return nil, err
	}

	post.Title = clean.Title
	post.Article = clean.Article
	post.Category = clean.Category
	post.Tags = clean.Tags
	if err := s.posts.UpdateContent(ctx, post); err != nil {
		return nil, err
	}
	s.invalidate(ctx, post.CreatedBy)
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, callerID, id uint) error {
	post, err := s.owned(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return err
	}
	s.invalidate(ctx, post.CreatedBy)
	return nil
}

func (s *PostService) owned(ctx context.Context, callerID, id uint) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.CreatedBy != callerID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *PostService) invalidate(ctx context.Context, creatorID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, creatorID); err != nil {
		s.log.Warn("post cache invalidate failed", "user_id", creatorID, "err", err)
	}
}

func sanitizePostInput(input PostInput) (PostInput, error) {
	out := PostInput{
		Title:    strings.TrimSpace(input.Title),
		Article:  strings.TrimSpace(input.Article),
		Category: strings.ToLower(strings.TrimSpace(input.Category)),
	}
	if out.Title == "" {
		return PostInput{}, validationError("title is required")
	}
	if utf8.RuneCountInString(out.Title) > maxTitleLength {
		return PostInput{}, validationError("title must be at most %d characters", maxTitleLength)
	}
	if out.Article == "" {
		return PostInput{}, validationError("article is required")
	}
	if !model.IsCategory(out.Category) {
		return PostInput{}, validationError("options must be one of %s", strings.Join(model.Categories, ", "))
	}

	out.Tags = make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			return PostInput{}, validationError("tags must be at most %d characters", maxTagLength)
		}
		out.Tags = append(out.Tags, tag)
	}
	if len(out.Tags) > maxTags {
		return PostInput{}, validationError("at most %d tags are allowed", maxTags)
	}
	return out, nil
}
