package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

const (
	// MinSearchQueryLength keeps the directory lookup from matching
	// everyone on a single keystroke.
	MinSearchQueryLength = 2
	MaxSearchResults     = 10
	MaxNameLength        = 100
)

// UserService handles profile lookups and updates.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Search matches the query against user emails and names. Queries
// shorter than two characters return an empty result rather than an
// error, matching the search-as-you-type flow.
func (s *UserService) Search(ctx context.Context, query string) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinSearchQueryLength {
		return []model.User{}, nil
	}

	users, err := s.users.SearchUsers(ctx, query, MaxSearchResults)
	if err != nil {
		s.logger.Error("failed to search users",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching users: %w", err)
	}

	return users, nil
}

// GetByID looks a user up by their internal ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// GetByEmail looks a user up by their email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	return s.users.GetUserByEmail(ctx, email)
}

// UpdateProfile changes the user's display name and/or avatar URL.
// Empty fields are left unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, avatarURL string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		if len(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		user.Name = name
	}
	if avatarURL = strings.TrimSpace(avatarURL); avatarURL != "" {
		user.AvatarURL = avatarURL
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}
