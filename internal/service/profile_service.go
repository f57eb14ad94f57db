package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
)

// ProfileService updates the caller's own user record
type ProfileService interface {
	Update(ctx context.Context, caller domain.Caller, patch domain.ProfilePatch) (*domain.User, error)
}

type profileService struct {
	userRepo repository.UserRepository
}

// NewProfileService creates a new instance of ProfileService
func NewProfileService(userRepo repository.UserRepository) ProfileService {
	return &profileService{userRepo: userRepo}
}

// Update sets the name and, when present, the email and password. The email
// must not belong to another user; the password is re-hashed.
func (s *profileService) Update(ctx context.Context, caller domain.Caller, patch domain.ProfilePatch) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if patch.Email != nil && *patch.Email != user.Email {
		other, err := s.userRepo.FindByEmail(ctx, *patch.Email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, NewValidationError("email", MsgEmailTaken)
		}
	}

	user.Name = patch.Name
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		hashed, err := hashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, NewValidationError("email", MsgEmailTaken)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
