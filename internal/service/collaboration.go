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

// MaxCollabMessageLength bounds the optional free-text message.
const MaxCollabMessageLength = 1000

// CollaborationService governs user-to-user collaboration requests.
// The lifecycle mirrors invitations, keyed on
// (snippet, requester, recipient), with no token and no expiry.
type CollaborationService struct {
	requests repository.CollaborationRequestRepository
	snippets repository.SnippetRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewCollaborationService creates a CollaborationService.
func NewCollaborationService(
	requests repository.CollaborationRequestRepository,
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CollaborationService {
	return &CollaborationService{
		requests: requests,
		snippets: snippets,
		users:    users,
		logger:   logger,
	}
}

// Create submits a collaboration request from requester to recipient.
//
// Decision table, keyed on the existing request for the triple:
//
//	none     → create pending
//	pending  → conflict
//	accepted → conflict
//	declined → renew in place (permissions, message, status reset)
func (s *CollaborationService) Create(ctx context.Context, snippetID, requesterID, recipientID, message string, perms []model.Permission) (*model.CollaborationRequest, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, apperror.ValidationFailed("recipientId", "recipient is required")
	}
	if recipientID == requesterID {
		return nil, apperror.ValidationFailed("recipientId", "cannot send a collaboration request to yourself")
	}
	if err := model.ValidatePermissions(perms); err != nil {
		return nil, apperror.ValidationFailed("permissions", err.Error())
	}
	message = strings.TrimSpace(message)
	if len(message) > MaxCollabMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxCollabMessageLength))
	}

	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, recipientID); err != nil {
		return nil, err
	}

	existing, err := s.requests.GetCollabRequestByKey(ctx, snippetID, requesterID, recipientID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up existing collaboration request: %w", err)
	}

	if existing != nil {
		switch existing.Status {
		case model.StatusPending:
			return nil, apperror.Conflict(
				"a collaboration request has already been sent to this user for this snippet")

		case model.StatusAccepted:
			return nil, apperror.Conflict(
				"this user has already accepted a collaboration request for this snippet")

		default: // declined: renew the same record
			existing.Permissions = perms
			existing.Message = message
			existing.Status = model.StatusPending

			if err := s.requests.UpdateCollabRequest(ctx, existing); err != nil {
				s.logger.Error("failed to renew collaboration request",
					slog.String("id", existing.ID),
					slog.String("error", err.Error()),
				)
				return nil, fmt.Errorf("renewing collaboration request: %w", err)
			}

			s.logger.Info("collaboration request renewed",
				slog.String("id", existing.ID),
				slog.String("snippetID", snippetID),
			)
			return existing, nil
		}
	}

	req := &model.CollaborationRequest{
		SnippetID:   snippetID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Permissions: perms,
		Message:     message,
		Status:      model.StatusPending,
	}

	if err := s.requests.CreateCollabRequest(ctx, req); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create collaboration request",
			slog.String("snippetID", snippetID),
			slog.String("recipientID", recipientID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating collaboration request: %w", err)
	}

	s.logger.Info("collaboration request created",
		slog.String("id", req.ID),
		slog.String("snippetID", snippetID),
		slog.String("recipientID", recipientID),
	)

	return req, nil
}

// Accept marks the request accepted. Unconditional, last-write-wins.
func (s *CollaborationService) Accept(ctx context.Context, id string) (*model.CollaborationRequest, error) {
	return s.setStatus(ctx, id, model.StatusAccepted)
}

// Decline marks the request declined. Same write semantics as Accept.
func (s *CollaborationService) Decline(ctx context.Context, id string) (*model.CollaborationRequest, error) {
	return s.setStatus(ctx, id, model.StatusDeclined)
}

func (s *CollaborationService) setStatus(ctx context.Context, id string, status model.InviteStatus) (*model.CollaborationRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "collaboration request ID is required")
	}

	req, err := s.requests.SetCollabRequestStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collaboration request status set",
		slog.String("id", id),
		slog.String("status", string(status)),
	)

	return req, nil
}

// Get retrieves a single collaboration request by ID.
func (s *CollaborationService) Get(ctx context.Context, id string) (*model.CollaborationRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "collaboration request ID is required")
	}
	return s.requests.GetCollabRequestByID(ctx, id)
}

// ListReceived returns requests addressed to the user.
func (s *CollaborationService) ListReceived(ctx context.Context, userID string) ([]model.CollaborationRequest, error) {
	return s.requests.ListCollabRequestsByRecipient(ctx, userID)
}

// ListSent returns requests the user has sent.
func (s *CollaborationService) ListSent(ctx context.Context, userID string) ([]model.CollaborationRequest, error) {
	return s.requests.ListCollabRequestsByRequester(ctx, userID)
}
