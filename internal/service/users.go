package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

// NewUserRequest carries the fields of a new account.  RequestedRole is
// overwritten by Register and CreateManager; callers cannot choose it.
type NewUserRequest struct {
	Username      string `validate:"required,max=100"`
	Email         string `validate:"required,email,max=255"`
	Password      string `validate:"required,min=6,max=72"`
	Age           int    `validate:"gte=0,lte=150"`
	RequestedRole model.Role
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (r NewUserRequest) validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	return validationError(structValidator.Struct(r))
}

// validationError turns validator failures into a VALIDATION_FAILED error
// naming the first offending field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		if f.Param() != "" {
			return apperr.Validation("%s failed %s=%s", strings.ToLower(f.Field()), f.Tag(), f.Param())
		}
		return apperr.Validation("%s failed %s", strings.ToLower(f.Field()), f.Tag())
	}
	return apperr.Validation("%s", err.Error())
}

// UserService manages accounts and the watch history derived from tickets.
type UserService struct {
	users      UserRepository
	tickets    *TicketService
	catalog    *CatalogService
	bcryptCost int
	log        *zap.Logger
}

func NewUserService(users UserRepository, tickets *TicketService, catalog *CatalogService, bcryptCost int, log *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		tickets:    tickets,
		catalog:    catalog,
		bcryptCost: bcryptCost,
		log:        log.Named("users"),
	}
}

// Register creates a CUSTOMER account.
func (s *UserService) Register(ctx context.Context, req NewUserRequest) (*model.User, error) {
	req.RequestedRole = model.RoleCustomer
	return s.createUser(ctx, req)
}

// CreateManager creates a MANAGER account.
func (s *UserService) CreateManager(ctx context.Context, req NewUserRequest) (*model.User, error) {
	req.RequestedRole = model.RoleManager
	return s.createUser(ctx, req)
}

func (s *UserService) createUser(ctx context.Context, req NewUserRequest) (*model.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !req.RequestedRole.Valid() {
		return nil, fmt.Errorf("create user: unknown role %q", req.RequestedRole)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.UserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: hash,
		Age:          req.Age,
		Role:         req.RequestedRole,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperr.UserAlreadyExists.Wrap(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.log.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// FindByEmail returns the user with the given email or UserNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	return userOrNotFound(u, err)
}

// FindByID returns the user with the given id or UserNotFound.
func (s *UserService) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	return userOrNotFound(u, err)
}

func (s *UserService) FindByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	out, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return out, nil
}

// GetWatchHistory returns the distinct movies the user has watched.
func (s *UserService) GetWatchHistory(ctx context.Context, userID string) ([]model.Movie, error) {
	used, err := s.tickets.GetUsedTickets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(used) == 0 {
		return []model.Movie{}, nil
	}
	ids := make([]string, 0, len(used))
	for _, t := range used {
		ids = append(ids, t.MovieID)
	}
	return s.catalog.FindMoviesByIDs(ctx, ids)
}

func userOrNotFound(u *model.User, err error) (*model.User, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.UserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
