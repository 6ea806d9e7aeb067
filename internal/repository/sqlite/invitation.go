package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

// Compile-time check that *DB implements repository.InvitationRepository.
var _ repository.InvitationRepository = (*DB)(nil)

const invitationColumns = `id, snippet_id, inviter_id, invitee_email,
	permissions, status, token, expires_at, created_at, updated_at`

// CreateInvitation inserts a new invitation. The UNIQUE index on
// (snippet_id, invitee_email) turns a concurrent duplicate share into a
// conflict error instead of a second row.
func (db *DB) CreateInvitation(ctx context.Context, inv *model.Invitation) error {
	inv.ID = xid.New().String()
	inv.InviteeEmail = strings.ToLower(strings.TrimSpace(inv.InviteeEmail))
	inv.CreatedAt = time.Now()

	perms, err := encodePermissions(inv.Permissions)
	if err != nil {
		return fmt.Errorf("sqlite: creating invitation: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO invitations (id, snippet_id, inviter_id, invitee_email,
		 permissions, status, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.SnippetID,
		inv.InviterID,
		inv.InviteeEmail,
		perms,
		inv.Status,
		inv.Token,
		inv.ExpiresAt,
		inv.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict(fmt.Sprintf(
				"an invitation for %s already exists on this snippet", inv.InviteeEmail))
		}
		return fmt.Errorf("sqlite: creating invitation: %w", err)
	}

	return nil
}

// GetInvitationByID retrieves a single invitation.
func (db *DB) GetInvitationByID(ctx context.Context, id string) (*model.Invitation, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)

	inv, err := scanInvitation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("invitation", id)
		}
		return nil, fmt.Errorf("sqlite: getting invitation %s: %w", id, err)
	}

	return inv, nil
}

// GetInvitationByKey retrieves the invitation for the
// (snippet, invitee email) pair.
func (db *DB) GetInvitationByKey(ctx context.Context, snippetID, email string) (*model.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE snippet_id = ? AND invitee_email = ?`,
		snippetID, email)

	inv, err := scanInvitation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("invitation", snippetID+"/"+email)
		}
		return nil, fmt.Errorf("sqlite: getting invitation for %s/%s: %w", snippetID, email, err)
	}

	return inv, nil
}

// ListInvitationsByEmail returns every invitation addressed to the email,
// newest first, with no status or expiry filtering.
func (db *DB) ListInvitationsByEmail(ctx context.Context, email string) ([]model.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE invitee_email = ?
		 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing invitations for %s: %w", email, err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

// ListInvitationsBySnippet returns every invitation sent for a snippet.
func (db *DB) ListInvitationsBySnippet(ctx context.Context, snippetID string) ([]model.Invitation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE snippet_id = ?
		 ORDER BY created_at DESC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing invitations for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

// ListAcceptedInvitations returns only accepted invitations for the email.
func (db *DB) ListAcceptedInvitations(ctx context.Context, email string) ([]model.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE invitee_email = ? AND status = ?
		 ORDER BY created_at DESC`,
		email, model.StatusAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing accepted invitations for %s: %w", email, err)
	}
	defer rows.Close()

	return collectInvitations(rows)
}

// UpdateInvitation rewrites the mutable fields of an invitation. Renewal
// goes through here: new permissions, token, expiry, status reset to
// pending, updated_at stamped.
func (db *DB) UpdateInvitation(ctx context.Context, inv *model.Invitation) error {
	inv.UpdatedAt = time.Now()

	perms, err := encodePermissions(inv.Permissions)
	if err != nil {
		return fmt.Errorf("sqlite: updating invitation %s: %w", inv.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE invitations
		 SET permissions = ?, status = ?, token = ?, expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		perms,
		inv.Status,
		inv.Token,
		inv.ExpiresAt,
		inv.UpdatedAt,
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating invitation %s: %w", inv.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("invitation", inv.ID)
	}

	return nil
}

// SetInvitationStatus overwrites the stored status unconditionally.
// There is deliberately no pending/expiry guard here: a repeated accept
// or decline is last-write-wins.
func (db *DB) SetInvitationStatus(ctx context.Context, id string, status model.InviteStatus) (*model.Invitation, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE invitations SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: setting invitation %s status: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("invitation", id)
	}

	return db.GetInvitationByID(ctx, id)
}

func scanInvitation(row scanner) (*model.Invitation, error) {
	var inv model.Invitation
	var perms string
	var updatedAt sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.SnippetID,
		&inv.InviterID,
		&inv.InviteeEmail,
		&perms,
		&inv.Status,
		&inv.Token,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Permissions, err = decodePermissions(perms)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		inv.UpdatedAt = updatedAt.Time
	}

	return &inv, nil
}

func collectInvitations(rows *sql.Rows) ([]model.Invitation, error) {
	invitations := []model.Invitation{}

	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning invitation row: %w", err)
		}
		invitations = append(invitations, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating invitations: %w", err)
	}

	return invitations, nil
}
