package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/cache"
	"mindhaven/internal/model"
)

func newPostService(t *testing.T, f *fixture) *PostService {
	t.Helper()
	return NewPostService(f.posts, nil, discardLog)
}

func TestPostService_CreateGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)
	ctx := context.Background()

	in := PostInput{
		Title:    "Small wins",
		Article:  "Went for a walk today.",
		Category: model.CategoryHappy,
		Tags:     []string{"walks", " outside ", ""},
	}
	created, err := svc.Create(ctx, 5, in)
	require.NoError(t, err)
	assert.Equal(t, uint(5), created.CreatedBy)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Article, got.Article)
	assert.Equal(t, in.Category, got.Category)
	assert.Equal(t, []string{"walks", "outside"}, got.Tags)
}

func TestPostService_EmptyTitleNotPersisted(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)

	_, err := svc.Create(context.Background(), 1, PostInput{Title: "  ", Article: "body"})
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, f.db.Model(&model.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostService_Validation(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)
	ctx := context.Background()

	cases := []PostInput{
		{Title: "t", Article: ""},
		{Title: strings.Repeat("x", 201), Article: "a"},
		{Title: "t", Article: "a", Category: "angry"},
		{Title: "t", Article: "a", Tags: []string{strings.Repeat("y", 41)}},
		{Title: "t", Article: "a", Tags: make21Tags()},
	}
	for _, in := range cases {
		_, err := svc.Create(ctx, 1, in)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func make21Tags() []string {
	tags := make([]string, 21)
	for i := range tags {
		tags[i] = "tag"
	}
	return tags
}

func TestPostService_OwnerReplacesExactly(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)
	ctx := context.Background()

	created, err := svc.Create(ctx, 3, PostInput{Title: "Old", Article: "old body", Category: model.CategorySad, Tags: []string{"a"}})
	require.NoError(t, err)
	before, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 3, created.ID, PostInput{Title: "New", Article: "new body", Tags: []string{"b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)

	after, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", after.Title)
	assert.Equal(t, "new body", after.Article)
	assert.Empty(t, after.Category)
	assert.Equal(t, []string{"b", "c"}, after.Tags)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedBy, after.CreatedBy)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
}

func TestPostService_NonOwnerForbidden(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, PostInput{Title: "Mine", Article: "body"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 2, created.ID, PostInput{Title: "Hijack", Article: "x"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, 2, created.ID), ErrForbidden)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.Equal(t, uint(1), got.CreatedBy)
}

func TestPostService_ErrorOrder(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, 999, PostInput{})
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.Create(ctx, 1, PostInput{Title: "t", Article: "a"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, 2, created.ID, PostInput{})
	assert.ErrorIs(t, err, ErrForbidden, "ownership is checked before the payload")

	_, err = svc.Update(ctx, 1, created.ID, PostInput{Title: "", Article: "a"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPostService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := newPostService(t, f)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, PostInput{Title: "t", Article: "a"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 1, created.ID), ErrPostNotFound)
}

func newPostCache(t *testing.T) (*miniredis.Miniredis, *cache.PostCache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, cache.NewPostCache(rdb, time.Minute, 5*time.Second)
}

func TestPostService_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	mr, postCache := newPostCache(t)
	svc := NewPostService(f.posts, postCache, discardLog)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, mr.Exists("posts:all"))

	_, err = svc.ListByCreator(ctx, 4)
	require.NoError(t, err)
	assert.True(t, mr.Exists("posts:user:4"))

	created, err := svc.Create(ctx, 4, PostInput{Title: "t", Article: "a"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("posts:all"))
	assert.False(t, mr.Exists("posts:user:4"))

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.False(t, mr.Exists("posts:all"), "not refilled while the write is fresh")

	mr.FastForward(6 * time.Second)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("posts:all"))

	// served from cache until the next mutation
	require.NoError(t, f.db.Model(&model.Post{}).Where("id = ?", created.ID).Update("title", "out of band").Error)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t", list[0].Title)

	require.NoError(t, svc.Delete(ctx, 4, created.ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// interleavingPosts runs a write between the store read and the cache refill of a listing.
type interleavingPosts struct {
	PostStore
	during func()
}

func (s *interleavingPosts) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.PostStore.List(ctx)
	if s.during != nil {
		during := s.during
		s.during = nil
		during()
	}
	return posts, err
}

func TestPostService_ListRacingCreateDoesNotCacheStaleRows(t *testing.T) {
	f := newFixture(t)
	_, postCache := newPostCache(t)
	store := &interleavingPosts{PostStore: f.posts}
	svc := NewPostService(store, postCache, discardLog)
	ctx := context.Background()

	var created *model.Post
	store.during = func() {
		var err error
		created, err = svc.Create(ctx, 2, PostInput{Title: "fresh", Article: "a"})
		require.NoError(t, err)
	}

	stale, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stale)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}
