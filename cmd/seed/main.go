// Command seed fills a database with demo users and posts through the same
// services the API uses.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"mindhaven/internal/app"
	"mindhaven/internal/bootstrap"
	"mindhaven/internal/config"
	"mindhaven/internal/model"
	"mindhaven/internal/observability"
	mysqlClient "mindhaven/internal/platform/mysql"
	"mindhaven/internal/repository"
)

func main() {
	users := flag.Int("users", 10, "number of demo users")
	postsPerUser := flag.Int("posts", 3, "posts per demo user")
	seed := flag.Int64("seed", 42, "faker seed, 0 for random")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Log.Level)

	ctx := context.Background()
	db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), logger)
	if err != nil {
		logger.Error("connect mysql failed", "err", err)
		os.Exit(1)
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	faker := gofakeit.New(*seed)
	userRepo := repository.NewUserRepository(db)
	authService := app.NewAuthService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpireHour)*time.Hour)
	postService := app.NewPostService(repository.NewPostRepository(db), nil, logger)

	created := 0
	for i := 0; i < *users; i++ {
		res, err := authService.Signup(ctx, app.SignupInput{
			Email:    faker.Email(),
			Password: "password123",
			Name:     faker.Name(),
			Username: faker.Username(),
			Gender:   model.Genders[faker.Number(0, len(model.Genders)-1)],
			Age:      faker.Number(16, 70),
			Bio:      faker.Sentence(12),
		})
		if errors.Is(err, app.ErrDuplicateEmail) || errors.Is(err, app.ErrDuplicateUsername) || errors.Is(err, app.ErrValidation) {
			logger.Warn("skip demo user", "err", err)
			continue
		}
		if err != nil {
			logger.Error("create demo user failed", "err", err)
			os.Exit(1)
		}

		for j := 0; j < *postsPerUser; j++ {
			_, err := postService.Create(ctx, res.User.ID, app.PostInput{
				Title:    faker.Sentence(5),
				Article:  faker.Paragraph(2, 4, 12, " "),
				Category: model.Categories[faker.Number(0, len(model.Categories)-1)],
				Tags:     []string{faker.Hobby(), faker.Adjective()},
			})
			if err != nil {
				logger.Error("create demo post failed", "user_id", res.User.ID, "err", err)
				os.Exit(1)
			}
		}
		created++
	}

	logger.Info("seed finished", "users", created, "posts_per_user", *postsPerUser)
}
