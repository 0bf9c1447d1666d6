package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mindhaven/internal/model"
	"mindhaven/internal/pkg/jwtutil"
	"mindhaven/internal/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
}

type AuthService struct {
	users         UserStore
	jwtSecret     string
	jwtExpiration time.Duration
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
	Username string
	Gender   string
	Age      int
	Bio      string
}

type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(users UserStore, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.Username)

	if !emailPattern.MatchString(email) {
		return nil, validationError("please use a valid email address")
	}
	if len(input.Password) < minPasswordLength || len(input.Password) > maxPasswordLength {
		return nil, validationError("password must be %d to %d characters", minPasswordLength, maxPasswordLength)
	}
	if name == "" {
		return nil, validationError("name is required")
	}
	if !model.IsGender(input.Gender) {
		return nil, validationError("gender must be one of %s", strings.Join(model.Genders, ", "))
	}
	if input.Age < 0 {
		return nil, validationError("age must not be negative")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}
	if username != "" {
		taken, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, ErrDuplicateUsername
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Email:          email,
		Name:           name,
		PasswordHash:   string(hash),
		Gender:         input.Gender,
		Age:            input.Age,
		Bio:            strings.TrimSpace(input.Bio),
		ProfilePicture: ProfilePictureURL(input.Gender, email),
	}
	if username != "" {
		user.Username = &username
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, s.signupConflict(ctx, email)
		}
		return nil, err
	}

	return s.issue(user)
}

// signupConflict names the unique column a concurrent signup won. Email and
// username are the only unique user columns.
func (s *AuthService) signupConflict(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// ProfilePictureURL derives the default avatar from gender and email.
func ProfilePictureURL(gender, email string) string {
	escaped := url.QueryEscape(email)
	switch gender {
	case model.GenderMale:
		return "https://avatar.iran.liara.run/public/boy?username=" + escaped
	case model.GenderFemale:
		return "https://avatar.iran.liara.run/public/girl?username=" + escaped
	default:
		return "https://avatar.iran.liara.run/public?username=" + escaped
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if username == "" {
		return nil
	}
	if len(username) < 3 || len(username) > 64 {
		return validationError("username must be 3 to 64 characters")
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return validationError("username must not contain whitespace")
	}
	return nil
}
