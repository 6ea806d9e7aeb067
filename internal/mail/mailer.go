// Package mail is the outbound notification side channel. Invitation
// emails are best-effort: a send failure is logged by the caller and
// never rolls back the invitation write.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codecache/codecache/internal/model"
)

// Mailer dispatches invitation notifications.
type Mailer interface {
	// SendInvitation notifies the invitee that a snippet was shared with
	// them. snippetTitle is resolved by the caller so the mailer needs
	// no repository access.
	SendInvitation(ctx context.Context, inv *model.Invitation, snippetTitle string) error
}

// LogMailer writes the would-be email to the log instead of sending it.
// Used when no SendGrid API key is configured, and in tests.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendInvitation(_ context.Context, inv *model.Invitation, snippetTitle string) error {
	m.Logger.Info("invitation email (log only)",
		slog.String("to", inv.InviteeEmail),
		slog.String("invitationID", inv.ID),
		slog.String("snippetID", inv.SnippetID),
		slog.String("snippetTitle", snippetTitle),
		slog.Any("permissions", inv.Permissions),
		slog.Time("expiresAt", inv.ExpiresAt),
	)
	return nil
}

func invitationSubject(snippetTitle string) string {
	return fmt.Sprintf("You've been invited to collaborate on %q", snippetTitle)
}

func invitationBody(inv *model.Invitation, snippetTitle, baseURL string) string {
	return fmt.Sprintf(
		"You've been invited to collaborate on the code snippet %q.\n\n"+
			"Permissions: %v\n"+
			"This invitation expires on %s.\n\n"+
			"Accept it here: %s/invitations?token=%s\n",
		snippetTitle,
		inv.Permissions,
		inv.ExpiresAt.Format(time.RFC1123),
		baseURL,
		inv.Token,
	)
}
