package service

import (
	"context"
	"errors"
	"strings"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/pkg/jwt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSessionReplaced = errors.New("session expired (logged in on another device)")

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*model.Actor, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	const op = "AuthService.Login"

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized(op, ErrInvalidCredentials)
		}
		return nil, storeFailure(op, err)
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, unauthorized(op, ErrUserInactive)
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, unauthorized(op, ErrInvalidCredentials)
	}

	// 4. Single session: a new token version invalidates older tokens
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, version); err != nil {
		return nil, storeFailure(op, err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, string(user.Role), version)
	if err != nil {
		return nil, storeFailure(op, err)
	}

	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	const op = "AuthService.ResetPassword"

	if len(newPassword) < 6 {
		return invalidf(op, "new password must be at least 6 characters")
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return lookupFailure(op, err, ErrUserNotFound)
	}
	if !user.CheckPassword(oldPassword) {
		return unauthorized(op, ErrWrongPassword)
	}
	if err := user.SetPassword(newPassword); err != nil {
		return storeFailure(op, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return storeFailure(op, err)
	}
	// Existing sessions end with the old password.
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		return storeFailure(op, err)
	}
	return nil
}

// ValidateToken checks the signature, then the user's state and token version.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.Actor, error) {
	const op = "AuthService.ValidateToken"

	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, unauthorized(op, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized(op, ErrUserNotFound)
		}
		return nil, storeFailure(op, err)
	}
	if !user.IsActive {
		return nil, unauthorized(op, ErrUserInactive)
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, unauthorized(op, ErrSessionReplaced)
	}

	return &model.Actor{
		UserID: user.ID,
		Name:   user.FullName,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdateTokenVersion(ctx, userID, ""); err != nil {
		return storeFailure("AuthService.Logout", err)
	}
	return nil
}
