package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindhaven/internal/model"
)

func newUserService(f *fixture) (*UserService, *PostService) {
	posts := NewPostService(f.posts, nil, discardLog)
	return NewUserService(f.users, posts), posts
}

func TestUserService_GetByID(t *testing.T) {
	f := newFixture(t)
	svc, _ := newUserService(f)
	ctx := context.Background()
	u := f.signup(t, "get@x.com")

	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "get@x.com", got.Public().Email)

	_, err = svc.GetByID(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_PostsByUser(t *testing.T) {
	f := newFixture(t)
	svc, posts := newUserService(f)
	ctx := context.Background()
	a := f.signup(t, "a@x.com")
	b := f.signup(t, "b@x.com")

	first, err := posts.Create(ctx, a.ID, PostInput{Title: "first", Article: "x"})
	require.NoError(t, err)
	second, err := posts.Create(ctx, a.ID, PostInput{Title: "second", Article: "x"})
	require.NoError(t, err)
	_, err = posts.Create(ctx, b.ID, PostInput{Title: "other", Article: "x"})
	require.NoError(t, err)

	list, err := svc.PostsByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = svc.PostsByUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	svc, _ := newUserService(f)
	ctx := context.Background()
	u := f.signup(t, "me@x.com")

	updated, err := svc.UpdateProfile(ctx, u.ID, u.ID, ProfileUpdate{
		Bio:    ptr("  breathing daily  "),
		Gender: ptr(model.GenderMale),
	})
	require.NoError(t, err)
	assert.Equal(t, "breathing daily", updated.Bio)
	assert.Equal(t, "Someone", updated.Name, "unsupplied fields are unchanged")
	assert.Equal(t, 30, updated.Age)
	assert.Equal(t, ProfilePictureURL(model.GenderMale, "me@x.com"), updated.ProfilePicture)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GenderMale, stored.Gender)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
	assert.Equal(t, "me@x.com", stored.Email)
}

func TestUserService_UpdateProfileRules(t *testing.T) {
	f := newFixture(t)
	svc, _ := newUserService(f)
	ctx := context.Background()
	me := f.signup(t, "me@x.com")
	other := f.signup(t, "other@x.com")

	_, err := svc.UpdateProfile(ctx, other.ID, me.ID, ProfileUpdate{Name: ptr("Mallory")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateProfile(ctx, me.ID, 999, ProfileUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UpdateProfile(ctx, me.ID, me.ID, ProfileUpdate{Age: ptr(-3)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateProfile(ctx, me.ID, me.ID, ProfileUpdate{Gender: ptr("robot")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateProfile(ctx, me.ID, me.ID, ProfileUpdate{Name: ptr(" ")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateProfile(ctx, other.ID, other.ID, ProfileUpdate{Username: ptr("taken_name")})
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, me.ID, me.ID, ProfileUpdate{Username: ptr("taken_name")})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	again, err := svc.UpdateProfile(ctx, other.ID, other.ID, ProfileUpdate{Username: ptr("taken_name")})
	require.NoError(t, err, "keeping your own username is not a conflict")
	require.NotNil(t, again.Username)

	cleared, err := svc.UpdateProfile(ctx, other.ID, other.ID, ProfileUpdate{Username: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.Username)
}

// staleUsernames misses every username lookup, as a check that ran before a
// concurrent update committed would.
type staleUsernames struct {
	UserStore
}

func (staleUsernames) GetByUsername(context.Context, string) (*model.User, error) {
	return nil, nil
}

func TestUserService_UpdateProfile_UsernameTakenConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Signup(ctx, SignupInput{
		Email:    "first@x.com",
		Username: "river",
		Password: "pw123456",
		Name:     "First",
		Gender:   model.GenderMale,
		Age:      30,
	})
	require.NoError(t, err)
	second := f.signup(t, "second@x.com")

	svc := NewUserService(staleUsernames{f.users}, NewPostService(f.posts, nil, discardLog))
	_, err = svc.UpdateProfile(ctx, second.ID, second.ID, ProfileUpdate{Username: ptr("river")})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	got, err := f.users.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Username)
}
