package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mindhaven/internal/model"
	"mindhaven/internal/repository"
	"mindhaven/internal/testutil"
)

const testSecret = "test-secret"

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	db    *gorm.DB
	users *repository.UserRepository
	posts *repository.PostRepository
	auth  *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	return &fixture{
		db:    db,
		users: users,
		posts: repository.NewPostRepository(db),
		auth:  NewAuthService(users, testSecret, 15*24*time.Hour),
	}
}

func (f *fixture) signup(t *testing.T, email string) *model.User {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), SignupInput{
		Email:    email,
		Password: "pw123456",
		Name:     "Someone",
		Gender:   model.GenderFemale,
		Age:      30,
	})
	require.NoError(t, err)
	return res.User
}

func ptr[T any](v T) *T {
	return &v
}
