// Package service contains the business logic layer: validation, the
// sharing lifecycle, and orchestration between repositories and the
// mailer. Services know nothing about HTTP; handlers translate.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/mail"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

// emailPattern is a basic shape check, not full RFC 5322. Deliverability
// is proven by the invitation email itself.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InvitationService governs the invitation lifecycle: create, renew,
// accept, decline, and listing.
type InvitationService struct {
	invitations repository.InvitationRepository
	snippets    repository.SnippetRepository
	mailer      mail.Mailer
	logger      *slog.Logger
	now         func() time.Time
}

// NewInvitationService creates an InvitationService.
func NewInvitationService(
	invitations repository.InvitationRepository,
	snippets repository.SnippetRepository,
	mailer mail.Mailer,
	logger *slog.Logger,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		snippets:    snippets,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
	}
}

// Share submits a share request for (snippetID, inviteeEmail).
//
// Decision table, keyed on the existing invitation for the pair:
//
//	none                      → create pending, fresh token, 7-day expiry
//	pending and unexpired     → conflict
//	accepted and unexpired    → conflict
//	declined, or expired      → renew in place (same record, new token)
//
// A successful create or renewal triggers the invitation email as a
// best-effort side effect; a send failure is logged and never surfaced.
func (s *InvitationService) Share(ctx context.Context, snippetID, inviterID, inviteeEmail string, perms []model.Permission) (*model.Invitation, error) {
	inviteeEmail = strings.ToLower(strings.TrimSpace(inviteeEmail))

	if !emailPattern.MatchString(inviteeEmail) {
		return nil, apperror.ValidationFailed("inviteeEmail", "invitee email address is not valid")
	}
	if err := model.ValidatePermissions(perms); err != nil {
		return nil, apperror.ValidationFailed("permissions", err.Error())
	}

	// Resolves the snippet title for the notification and confirms the
	// snippet exists before any invitation write.
	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	existing, err := s.invitations.GetInvitationByKey(ctx, snippetID, inviteeEmail)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up existing invitation: %w", err)
	}

	now := s.now()

	if existing != nil {
		switch existing.EffectiveStatus(now) {
		case model.StatusPending:
			return nil, apperror.Conflict(fmt.Sprintf(
				"an invitation has already been sent to %s for this snippet", inviteeEmail))

		case model.StatusAccepted:
			return nil, apperror.Conflict(fmt.Sprintf(
				"%s has already accepted an invitation to this snippet", inviteeEmail))

		default:
			// Declined or expired: renew the same record rather than
			// creating a second one.
			existing.Permissions = perms
			existing.Status = model.StatusPending
			existing.Token = uuid.NewString()
			existing.ExpiresAt = now.Add(model.InvitationTTL)

			if err := s.invitations.UpdateInvitation(ctx, existing); err != nil {
				s.logger.Error("failed to renew invitation",
					slog.String("id", existing.ID),
					slog.String("error", err.Error()),
				)
				return nil, fmt.Errorf("renewing invitation: %w", err)
			}

			s.logger.Info("invitation renewed",
				slog.String("id", existing.ID),
				slog.String("snippetID", snippetID),
				slog.String("inviteeEmail", inviteeEmail),
			)

			s.notify(ctx, existing, snippet.Title)
			return existing, nil
		}
	}

	inv := &model.Invitation{
		SnippetID:    snippetID,
		InviterID:    inviterID,
		InviteeEmail: inviteeEmail,
		Permissions:  perms,
		Status:       model.StatusPending,
		Token:        uuid.NewString(),
		ExpiresAt:    now.Add(model.InvitationTTL),
	}

	if err := s.invitations.CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// A concurrent share won the race; the unique index kept the
			// invariant. Surface it as the same duplicate conflict.
			return nil, err
		}
		s.logger.Error("failed to create invitation",
			slog.String("snippetID", snippetID),
			slog.String("inviteeEmail", inviteeEmail),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	s.logger.Info("invitation created",
		slog.String("id", inv.ID),
		slog.String("snippetID", snippetID),
		slog.String("inviteeEmail", inviteeEmail),
	)

	s.notify(ctx, inv, snippet.Title)
	return inv, nil
}

// notify dispatches the invitation email. Best-effort: failures are
// logged and swallowed so they cannot fail the invitation write.
func (s *InvitationService) notify(ctx context.Context, inv *model.Invitation, snippetTitle string) {
	if err := s.mailer.SendInvitation(ctx, inv, snippetTitle); err != nil {
		s.logger.Error("failed to send invitation email",
			slog.String("invitationID", inv.ID),
			slog.String("to", inv.InviteeEmail),
			slog.String("error", err.Error()),
		)
	}
}

// Accept marks the invitation accepted. The write is unconditional;
// repeated calls are last-write-wins.
func (s *InvitationService) Accept(ctx context.Context, id string) (*model.Invitation, error) {
	return s.setStatus(ctx, id, model.StatusAccepted)
}

// Decline marks the invitation declined. Same write semantics as Accept.
func (s *InvitationService) Decline(ctx context.Context, id string) (*model.Invitation, error) {
	return s.setStatus(ctx, id, model.StatusDeclined)
}

func (s *InvitationService) setStatus(ctx context.Context, id string, status model.InviteStatus) (*model.Invitation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "invitation ID is required")
	}

	inv, err := s.invitations.SetInvitationStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("invitation status set",
		slog.String("id", id),
		slog.String("status", string(status)),
	)

	return inv, nil
}

// ListForInvitee returns every invitation addressed to the email,
// including expired and resolved ones. Callers decide which are
// actionable via the effective status.
func (s *InvitationService) ListForInvitee(ctx context.Context, email string) ([]model.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "invitee email is required")
	}

	return s.invitations.ListInvitationsByEmail(ctx, email)
}

// ListForSnippet returns every invitation sent for a snippet.
func (s *InvitationService) ListForSnippet(ctx context.Context, snippetID string) ([]model.Invitation, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperror.ValidationFailed("snippetId", "snippet ID is required")
	}

	return s.invitations.ListInvitationsBySnippet(ctx, snippetID)
}
