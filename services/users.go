package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shootmap/models"
	"shootmap/storage"
)

// ErrInvalidCredentials is returned for an unknown, inactive or
// wrong-password login. The three cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid username or password")

// NewUser is the input to UserService.Create.
type NewUser struct {
	Username    string
	Password    string
	DisplayName string
	Role        models.Role
	StoreName   string
}

// UserService manages operator accounts. Passwords are stored as bcrypt hashes.
type UserService struct {
	users *storage.UserStore
	cost  int
	now   func() time.Time
}

func NewUserService(users *storage.UserStore) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *UserService) Create(ctx context.Context, nu NewUser) (string, error) {
	hash, err := s.hash(nu.Password)
	if err != nil {
		return "", err
	}
	id, err := s.users.Create(ctx, models.AccountUser{
		Username:     nu.Username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(nu.DisplayName),
		Role:         nu.Role,
		StoreName:    strings.TrimSpace(nu.StoreName),
		CreatedAt:    models.Ptr(s.now()),
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	log.Printf("Created user %s (%s)", id, nu.Username)
	return id, nil
}

// Authenticate checks the password of an active user and stamps last login.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.AccountUser, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	updated, err := s.users.UpdateFields(ctx, u.ID, models.UserPatch{LastLogin: models.Some(&now)})
	if err != nil {
		log.Printf("Warning: last login of user %s not recorded: %v", u.ID, err)
		u.LastLogin = &now
		return u, nil
	}
	return updated, nil
}

func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*models.AccountUser, error) {
	return s.users.UpdateFields(ctx, id, models.UserPatch{Active: models.Some(active)})
}

func (s *UserService) ChangePassword(ctx context.Context, id, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if _, err := s.users.UpdateFields(ctx, id, models.UserPatch{PasswordHash: models.Some(hash)}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", models.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}
	return string(hash), nil
}
