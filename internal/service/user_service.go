package service

import (
	"context"
	"errors"
	"strings"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	FullName string     `json:"full_name" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=admin manager cashier"`
}

type UpdateUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password *string    `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName string     `json:"full_name" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=admin manager cashier"`
	IsActive *bool      `json:"is_active"`
}

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor *model.Actor) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest, actor *model.Actor) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID, actor *model.Actor) error
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	SeedAdmin(ctx context.Context, email, password string) (bool, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor *model.Actor) (*model.UserResponse, error) {
	const op = "UserService.CreateUser"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: true,
	}
	user.CreatedBy = actor.AuditName()
	user.UpdatedBy = actor.AuditName()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, storeFailure(op, err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(op, ErrEmailExists)
		}
		return nil, storeFailure(op, err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest, actor *model.Actor) (*model.UserResponse, error) {
	const op = "UserService.UpdateUser"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure(op, err, ErrUserNotFound)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing.ID != user.ID {
			return nil, conflict(op, ErrEmailExists)
		}
	}

	user.Email = email
	user.FullName = req.FullName
	user.Role = req.Role
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.AuditName()

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, storeFailure(op, err)
		}
		user.TokenVersion = ""
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(op, ErrEmailExists)
		}
		return nil, storeFailure(op, err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID, actor *model.Actor) error {
	const op = "UserService.DeleteUser"

	if actor != nil && actor.UserID == id {
		return ruleViolation(op, errors.New("you cannot delete your own account"))
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return lookupFailure(op, err, ErrUserNotFound)
	}
	return nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, storeFailure("UserService.GetAllUsers", err)
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure("UserService.GetUserByID", err, ErrUserNotFound)
	}
	response := user.ToResponse()
	return &response, nil
}

// SeedAdmin creates the first admin account when email is not taken yet.
// It reports whether a user was created.
func (s *userService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	const op = "UserService.SeedAdmin"

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, storeFailure(op, err)
	}

	admin := &model.User{
		Email:    email,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		return false, storeFailure(op, err)
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, storeFailure(op, err)
	}
	return true, nil
}
