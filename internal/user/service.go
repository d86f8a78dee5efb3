package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role Role) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
	cost int
}

type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, cost: bcrypt.DefaultCost}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	Email    string
	Name     string
	Password string
	Role     Role
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if params.Role == "" {
		params.Role = RoleUser
	}

	if !params.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, params.Role)
	}

	if len(params.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Email:        normalizeEmail(params.Email),
		Name:         strings.TrimSpace(params.Name),
		PasswordHash: string(hash),
		Role:         params.Role,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate returns the user owning email when password matches its hash.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("looking up admin: %w", err)
	}

	if _, err := s.Create(ctx, CreateParams{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	return true, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	return s.repo.UpdateUserRole(ctx, id, role)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}
