package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"quillblog/internal/model"
	"quillblog/internal/repository"
)

// UserService handles business logic for user operations
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new user account. Validation order matters for the
// error the client sees: presence, password length, password match, then
// the email uniqueness pre-check.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Password2 == "" {
		return nil, model.ErrMissingFields
	}

	if len(strings.TrimSpace(req.Password)) < model.MinPasswordLength {
		return nil, model.ErrPasswordTooShort
	}
	if req.Password != req.Password2 {
		return nil, model.ErrPasswordMismatch
	}

	// Explicit pre-check, compared exactly as stored (case-sensitive)
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	// bcrypt.DefaultCost is 10, matching the credential contract
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FullName:       req.FullName,
		Email:          req.Email,
		PasswordHashed: string(hashedPassword),
		AvatarURL:      "",
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		// Don't reveal whether the email exists or not
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the requested profile mutations to the given user.
// Each block is independent: avatar, password change, email change, name
// change. A password change only happens when all three password fields are
// present.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if req.OldPassword != "" && req.NewPassword != "" && req.ConfirmNewPass != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.OldPassword)); err != nil {
			return nil, model.ErrWrongOldPassword
		}
		if len(strings.TrimSpace(req.NewPassword)) < model.MinPasswordLength {
			return nil, model.ErrPasswordTooShort
		}
		if req.NewPassword != req.ConfirmNewPass {
			return nil, model.ErrPasswordMismatch
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHashed = string(hashedPassword)
	}

	if req.Email != "" && req.Email != user.Email {
		exists, err := s.repo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, model.ErrEmailExists
		}
		user.Email = req.Email
	}

	if req.Name != "" && req.Name != user.FullName {
		user.FullName = req.Name
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
