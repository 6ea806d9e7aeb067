package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, description, code, language, tags,
	is_public, owner_id, last_modified_by, created_at, updated_at`

// Create inserts a new snippet, generating its ID and timestamps.
// The caller's struct is updated in place.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	tags, err := encodeStrings(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, code, language, tags,
		 is_public, owner_id, last_modified_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		tags,
		snippet.IsPublic,
		snippet.OwnerID,
		snippet.LastModifiedBy,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet. Returns apperror.ErrNotFound when
// no row matches.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	snippet, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// ListPublic returns public snippets with pagination, newest first.
func (db *DB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE is_public = 1
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing public snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows, limit)
}

// ListByOwner returns the user's snippets (public and private), newest first.
func (db *DB) ListByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE owner_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return collectSnippets(rows, limit)
}

// Search matches the query as a substring of title, description, code,
// or the serialized tag list.
func (db *DB) Search(ctx context.Context, query string, publicOnly bool, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampListOptions(opts)
	pattern := "%" + query + "%"

	visibility := ""
	if publicOnly {
		visibility = "AND is_public = 1"
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE (title LIKE ? OR description LIKE ? OR code LIKE ? OR tags LIKE ?)
		 `+visibility+`
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		pattern, pattern, pattern, pattern, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows, limit)
}

// Update rewrites the mutable fields of an existing snippet.
// ID and created_at are immutable.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	tags, err := encodeStrings(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, tags = ?,
		     is_public = ?, last_modified_by = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		tags,
		snippet.IsPublic,
		snippet.LastModifiedBy,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet by its ID.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner) (*model.Snippet, error) {
	var s model.Snippet
	var tags string

	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Code,
		&s.Language,
		&tags,
		&s.IsPublic,
		&s.OwnerID,
		&s.LastModifiedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Tags, err = decodeStrings(tags)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func collectSnippets(rows *sql.Rows, capacity int) ([]model.Snippet, error) {
	snippets := make([]model.Snippet, 0, capacity)

	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}
