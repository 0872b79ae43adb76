package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, name, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, p repository.UserPatch) (model.User, error)
	Delete(ctx context.Context, id uint64) error
}

var validate = validator.New()

type UserService struct {
	repo    UserRepository
	timeout time.Duration
	log     *zap.Logger
}

func NewUserService(repo UserRepository, storeTimeout time.Duration, log *zap.Logger) *UserService {
	return &UserService{repo: repo, timeout: storeTimeout, log: log.Named("users")}
}

// CreateUser registers a user.  Emails are unique case-insensitively.
func (s *UserService) CreateUser(ctx context.Context, name, email string) (model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, &ValidationError{Field: "name", Reason: "is required"}
	}
	if err := validate.Var(strings.TrimSpace(email), "required,email,max=255"); err != nil {
		return model.User{}, &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	u, err := s.repo.Create(ctx, name, email)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.User{}, conflict("email already registered")
	}
	if err != nil {
		return model.User{}, classify(s.log, "create user", err)
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.User{}, storeErr(s.log, "get user", "user", err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, classify(s.log, "list users", err)
	}
	return users, nil
}

// UpdateUser changes the name and/or email of a user.  Moving to an email
// another user holds is a conflict.
func (s *UserService) UpdateUser(ctx context.Context, id uint64, p repository.UserPatch) (model.User, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return model.User{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Email != nil {
		if err := validate.Var(strings.TrimSpace(*p.Email), "required,email,max=255"); err != nil {
			return model.User{}, &ValidationError{Field: "email", Reason: "must be a valid email address"}
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	u, err := s.repo.Update(ctx, id, p)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.User{}, conflict("email already registered")
	}
	if err != nil {
		return model.User{}, storeErr(s.log, "update user", "user", err)
	}
	return u, nil
}

// DeleteUser removes a user without bookings.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrReferenced) {
		return conflict("user has bookings")
	}
	if err != nil {
		return storeErr(s.log, "delete user", "user", err)
	}
	return nil
}
