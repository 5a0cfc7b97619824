package user

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidUsername    = errors.New("username must be 3-64 letters, digits, dots, dashes or underscores")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Service struct {
	repo Repository
}

func (s *Service) Get(ctx context.Context, username string) (User, error) {
	return s.repo.Get(ctx, username)
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	if !usernamePattern.MatchString(req.Username) {
		return User{}, ErrInvalidUsername
	}
	if !emailPattern.MatchString(req.Email) {
		return User{}, ErrInvalidEmail
	}
	if len(req.PlainTextPassword) < 8 {
		return User{}, ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PlainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return User{}, errors.WithStack(err)
	}
	user := &User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: string(hash),
		IsAdmin:        req.IsAdmin,
		IsActive:       true,
		Created:        time.Now(),
	}
	if err = s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	log.Info().Str("username", user.Username).Bool("isAdmin", user.IsAdmin).Msg("user created")
	return *user, nil
}

// List pages through users ordered by username.
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, username string) error {
	return s.repo.Delete(ctx, username)
}

// Login checks a username and password. Unknown users, inactive users and wrong
// passwords all produce ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.Get(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !u.IsActive {
		return User{}, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return u, nil
}

type Repository interface {
	Create(ctx context.Context, user *User, tx ...core.UpdateOptions) error
	Get(ctx context.Context, username string, tx ...core.QueryOptions) (User, error)
	List(ctx context.Context, limit, offset int, tx ...core.QueryOptions) ([]User, error)
	Delete(ctx context.Context, username string, tx ...core.UpdateOptions) error
}
