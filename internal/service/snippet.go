package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

// Validation limits for snippet fields.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxCodeLength        = 100000 // ~100KB of code
	MaxTags              = 10
	MaxTagLength         = 50
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// SnippetInput carries the caller-editable snippet fields.
type SnippetInput struct {
	Title       string
	Description string
	Code        string
	Language    string
	Tags        []string
	IsPublic    bool
}

// SnippetService handles business logic for code snippets, including
// the write-access rules that come from accepted invitations.
type SnippetService struct {
	snippets    repository.SnippetRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	logger      *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(
	snippets repository.SnippetRepository,
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets:    snippets,
		invitations: invitations,
		users:       users,
		logger:      logger,
	}
}

// Create validates and saves a new snippet. ownerID may be empty for
// anonymous creation, in which case the snippet must be public.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in SnippetInput) (*model.Snippet, error) {
	if err := validateSnippetInput(&in); err != nil {
		return nil, err
	}

	if ownerID == "" && !in.IsPublic {
		return nil, apperror.Forbidden("sign in to create private snippets")
	}

	snippet := &model.Snippet{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Language:    in.Language,
		Tags:        in.Tags,
		IsPublic:    in.IsPublic,
		OwnerID:     ownerID,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("ownerID", ownerID),
	)

	return snippet, nil
}

// Get retrieves a snippet, enforcing visibility: private snippets are
// readable only by their owner or a user holding any invitation-granted
// access.
func (s *SnippetService) Get(ctx context.Context, userID, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if snippet.IsPublic || snippet.OwnerID == userID {
		return snippet, nil
	}

	ok, err := s.hasAcceptedInvitation(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Reported as not-found so the existence of private snippets
		// doesn't leak.
		return nil, apperror.NotFound("snippet", id)
	}

	return snippet, nil
}

// Update modifies a snippet. Allowed for the owner and for users whose
// accepted invitation grants write or admin. The editor is recorded as
// the last modifier.
func (s *SnippetService) Update(ctx context.Context, userID, id string, in SnippetInput) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to edit snippets")
	}
	if err := validateSnippetInput(&in); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if snippet.OwnerID != userID {
		ok, err := s.hasAcceptedInvitation(ctx, userID, id, true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.Forbidden("you do not have write access to this snippet")
		}
	}

	snippet.Title = in.Title
	snippet.Description = in.Description
	snippet.Code = in.Code
	snippet.Language = in.Language
	snippet.Tags = in.Tags
	snippet.IsPublic = in.IsPublic
	snippet.LastModifiedBy = userID

	if err := s.snippets.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("userID", userID),
	)

	return snippet, nil
}

// Delete removes a snippet. Owner only.
func (s *SnippetService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if snippet.OwnerID == "" || snippet.OwnerID != userID {
		return apperror.Forbidden("only the owner can delete a snippet")
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// ListPublic returns public snippets with pagination, newest first.
func (s *SnippetService) ListPublic(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListPublic(ctx, clampOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list public snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing public snippets: %w", err)
	}
	return snippets, nil
}

// ListByOwner returns the user's own snippets, newest first.
func (s *SnippetService) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListByOwner(ctx, ownerID, clampOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list snippets",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing snippets for owner: %w", err)
	}
	return snippets, nil
}

// Search matches the query against public snippets' title, description,
// code, and tags.
func (s *SnippetService) Search(ctx context.Context, query string, limit, offset int) ([]model.Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("q", "search query is required")
	}

	snippets, err := s.snippets.Search(ctx, query, true, clampOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to search snippets",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching snippets: %w", err)
	}
	return snippets, nil
}

// SharedWith returns snippets the email can reach through accepted
// invitations. Snippets deleted since the invitation was accepted are
// skipped.
func (s *SnippetService) SharedWith(ctx context.Context, email string) ([]model.Snippet, error) {
	invitations, err := s.invitations.ListAcceptedInvitations(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("listing accepted invitations: %w", err)
	}

	shared := make([]model.Snippet, 0, len(invitations))
	for _, inv := range invitations {
		snippet, err := s.snippets.GetByID(ctx, inv.SnippetID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				s.logger.Warn("accepted invitation references missing snippet",
					slog.String("invitationID", inv.ID),
					slog.String("snippetID", inv.SnippetID),
				)
				continue
			}
			return nil, err
		}
		shared = append(shared, *snippet)
	}

	return shared, nil
}

// AccessibleResult groups a user's own snippets with those shared
// with them.
type AccessibleResult struct {
	Owned  []model.Snippet `json:"owned"`
	Shared []model.Snippet `json:"shared"`
}

// Accessible returns everything the user can reach: owned plus shared.
func (s *SnippetService) Accessible(ctx context.Context, userID string) (*AccessibleResult, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.ListByOwner(ctx, userID, MaxListLimit, 0)
	if err != nil {
		return nil, err
	}

	shared, err := s.SharedWith(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	return &AccessibleResult{Owned: owned, Shared: shared}, nil
}

// hasAcceptedInvitation reports whether the user holds an accepted
// invitation for the snippet, optionally requiring write/admin.
func (s *SnippetService) hasAcceptedInvitation(ctx context.Context, userID, snippetID string, needWrite bool) (bool, error) {
	if userID == "" {
		return false, nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	inv, err := s.invitations.GetInvitationByKey(ctx, snippetID, user.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if inv.Status != model.StatusAccepted {
		return false, nil
	}
	if needWrite && !model.HasWrite(inv.Permissions) {
		return false, nil
	}

	return true, nil
}

func validateSnippetInput(in *SnippetInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Language = strings.ToLower(strings.TrimSpace(in.Language))

	if in.Title == "" {
		return apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(in.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if in.Language == "" {
		return apperror.ValidationFailed("language", "snippet language is required")
	}
	if len(in.Tags) > MaxTags {
		return apperror.ValidationFailed("tags",
			fmt.Sprintf("a snippet can have at most %d tags", MaxTags))
	}

	tags := make([]string, 0, len(in.Tags))
	seen := make(map[string]bool, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > MaxTagLength {
			return apperror.ValidationFailed("tags",
				fmt.Sprintf("tags must be %d characters or less", MaxTagLength))
		}
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	in.Tags = tags

	return nil
}

func clampOptions(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
