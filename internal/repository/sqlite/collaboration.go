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

// Compile-time check that *DB implements
// repository.CollaborationRequestRepository.
var _ repository.CollaborationRequestRepository = (*DB)(nil)

const collabColumns = `id, snippet_id, requester_id, recipient_id,
	permissions, message, status, created_at, updated_at`

// CreateCollabRequest inserts a new collaboration request. The UNIQUE
// index on (snippet_id, requester_id, recipient_id) prevents duplicates
// under concurrent creation.
func (db *DB) CreateCollabRequest(ctx context.Context, req *model.CollaborationRequest) error {
	now := time.Now()
	req.ID = xid.New().String()
	req.CreatedAt = now
	req.UpdatedAt = now

	perms, err := encodePermissions(req.Permissions)
	if err != nil {
		return fmt.Errorf("sqlite: creating collaboration request: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO collaboration_requests (id, snippet_id, requester_id,
		 recipient_id, permissions, message, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.SnippetID,
		req.RequesterID,
		req.RecipientID,
		perms,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict(
				"a collaboration request for this user already exists on this snippet")
		}
		return fmt.Errorf("sqlite: creating collaboration request: %w", err)
	}

	return nil
}

// GetCollabRequestByID retrieves a single collaboration request.
func (db *DB) GetCollabRequestByID(ctx context.Context, id string) (*model.CollaborationRequest, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+collabColumns+` FROM collaboration_requests WHERE id = ?`, id)

	req, err := scanCollabRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("collaboration request", id)
		}
		return nil, fmt.Errorf("sqlite: getting collaboration request %s: %w", id, err)
	}

	return req, nil
}

// GetCollabRequestByKey retrieves the request for the
// (snippet, requester, recipient) triple.
func (db *DB) GetCollabRequestByKey(ctx context.Context, snippetID, requesterID, recipientID string) (*model.CollaborationRequest, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+collabColumns+` FROM collaboration_requests
		 WHERE snippet_id = ? AND requester_id = ? AND recipient_id = ?`,
		snippetID, requesterID, recipientID)

	req, err := scanCollabRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("collaboration request",
				snippetID+"/"+requesterID+"/"+recipientID)
		}
		return nil, fmt.Errorf("sqlite: getting collaboration request: %w", err)
	}

	return req, nil
}

// ListCollabRequestsByRecipient returns requests received by the user.
func (db *DB) ListCollabRequestsByRecipient(ctx context.Context, recipientID string) ([]model.CollaborationRequest, error) {
	return db.listCollabRequests(ctx, "recipient_id", recipientID)
}

// ListCollabRequestsByRequester returns requests sent by the user.
func (db *DB) ListCollabRequestsByRequester(ctx context.Context, requesterID string) ([]model.CollaborationRequest, error) {
	return db.listCollabRequests(ctx, "requester_id", requesterID)
}

func (db *DB) listCollabRequests(ctx context.Context, column, userID string) ([]model.CollaborationRequest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+collabColumns+` FROM collaboration_requests
		 WHERE `+column+` = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing collaboration requests for %s: %w", userID, err)
	}
	defer rows.Close()

	requests := []model.CollaborationRequest{}
	for rows.Next() {
		req, err := scanCollabRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning collaboration request row: %w", err)
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating collaboration requests: %w", err)
	}

	return requests, nil
}

// UpdateCollabRequest rewrites the mutable fields of a request. Renewal
// of a declined request goes through here.
func (db *DB) UpdateCollabRequest(ctx context.Context, req *model.CollaborationRequest) error {
	req.UpdatedAt = time.Now()

	perms, err := encodePermissions(req.Permissions)
	if err != nil {
		return fmt.Errorf("sqlite: updating collaboration request %s: %w", req.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE collaboration_requests
		 SET permissions = ?, message = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		perms,
		req.Message,
		req.Status,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating collaboration request %s: %w", req.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("collaboration request", req.ID)
	}

	return nil
}

// SetCollabRequestStatus overwrites the stored status unconditionally,
// stamping updated_at, and returns the updated record.
func (db *DB) SetCollabRequestStatus(ctx context.Context, id string, status model.InviteStatus) (*model.CollaborationRequest, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE collaboration_requests SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: setting collaboration request %s status: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("collaboration request", id)
	}

	return db.GetCollabRequestByID(ctx, id)
}

func scanCollabRequest(row scanner) (*model.CollaborationRequest, error) {
	var req model.CollaborationRequest
	var perms string

	err := row.Scan(
		&req.ID,
		&req.SnippetID,
		&req.RequesterID,
		&req.RecipientID,
		&perms,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Permissions, err = decodePermissions(perms)
	if err != nil {
		return nil, err
	}

	return &req, nil
}
