package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"
	"go-order-ws/pkg/validator"

	"github.com/google/uuid"
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor model.Actor) (*model.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	// ListRoles returns the roles a new user can be given, ordered by code.
	ListRoles(ctx context.Context) ([]model.Role, error)
	// ResetPassword sets a new password and revokes every open session of the user.
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleCode string `json:"role" validate:"required"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{userRepo: userRepo, roleRepo: roleRepo}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor model.Actor) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Invalid("%s", validator.FirstError(errs))
	}
	role, err := s.roleRepo.FindByCode(ctx, strings.ToUpper(req.RoleCode))
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:   req.FullName,
		RoleID:     &role.ID,
		Role:       role,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	user.CreatedBy = actor.ID
	user.UpdatedBy = actor.ID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Code < roles[j].Code })
	return roles, nil
}

func (s *userService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.Invalid("password must have at least 6 characters").WithField("password")
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}
	return s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.New().String())
}
