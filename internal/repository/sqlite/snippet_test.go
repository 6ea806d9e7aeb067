package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

// newTestDB opens an in-memory database that lives for one test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestSnippet(t *testing.T, db *DB, title, ownerID string, public bool) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		Title:    title,
		Code:     "print('hello')",
		Language: "python",
		Tags:     []string{"demo"},
		IsPublic: public,
		OwnerID:  ownerID,
	}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return snippet
}

func TestSnippetCreate(t *testing.T) {
	db := newTestDB(t)

	snippet := &model.Snippet{
		Title:    "Hello World",
		Code:     "print('hello')",
		Language: "python",
		IsPublic: true,
	}

	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("Create() did not set snippet.ID")
	}
	if snippet.CreatedAt.IsZero() {
		t.Error("Create() did not set snippet.CreatedAt")
	}
}

func TestSnippetRoundTrip(t *testing.T) {
	db := newTestDB(t)

	original := createTestSnippet(t, db, "roundtrip", "owner-1", false)

	found, err := db.GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.Title != original.Title {
		t.Errorf("Title = %q, want %q", found.Title, original.Title)
	}
	if found.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want %q", found.OwnerID, "owner-1")
	}
	if found.IsPublic {
		t.Error("IsPublic = true, want false")
	}
	if len(found.Tags) != 1 || found.Tags[0] != "demo" {
		t.Errorf("Tags = %v, want [demo]", found.Tags)
	}
}

func TestSnippetGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSnippetListPublic(t *testing.T) {
	db := newTestDB(t)

	createTestSnippet(t, db, "public one", "owner-1", true)
	createTestSnippet(t, db, "public two", "owner-2", true)
	createTestSnippet(t, db, "private", "owner-1", false)

	snippets, err := db.ListPublic(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}

	if len(snippets) != 2 {
		t.Fatalf("ListPublic() returned %d snippets, want 2", len(snippets))
	}
	for _, s := range snippets {
		if !s.IsPublic {
			t.Errorf("ListPublic() returned private snippet %q", s.Title)
		}
	}
}

func TestSnippetListByOwner(t *testing.T) {
	db := newTestDB(t)

	createTestSnippet(t, db, "mine", "owner-1", true)
	createTestSnippet(t, db, "also mine", "owner-1", false)
	createTestSnippet(t, db, "theirs", "owner-2", true)

	snippets, err := db.ListByOwner(context.Background(), "owner-1", repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}

	if len(snippets) != 2 {
		t.Fatalf("ListByOwner() returned %d snippets, want 2", len(snippets))
	}
}

func TestSnippetSearch(t *testing.T) {
	db := newTestDB(t)

	createTestSnippet(t, db, "binary search tree", "owner-1", true)
	createTestSnippet(t, db, "linked list", "owner-1", true)
	createTestSnippet(t, db, "private search thing", "owner-1", false)

	results, err := db.Search(context.Background(), "search", true, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1 (public only)", len(results))
	}
	if results[0].Title != "binary search tree" {
		t.Errorf("Search() returned %q", results[0].Title)
	}

	all, err := db.Search(context.Background(), "search", false, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Search() with private returned %d results, want 2", len(all))
	}
}

func TestSnippetUpdate(t *testing.T) {
	db := newTestDB(t)

	snippet := createTestSnippet(t, db, "before", "owner-1", true)
	snippet.Title = "after"
	snippet.Code = "print('changed')"
	snippet.LastModifiedBy = "editor-1"

	if err := db.Update(context.Background(), snippet); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "after" {
		t.Errorf("Title = %q, want %q", found.Title, "after")
	}
	if found.LastModifiedBy != "editor-1" {
		t.Errorf("LastModifiedBy = %q, want %q", found.LastModifiedBy, "editor-1")
	}
}

func TestSnippetUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.Snippet{ID: "no-such-id", Title: "ghost"}
	err := db.Update(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestSnippetDelete(t *testing.T) {
	db := newTestDB(t)

	snippet := createTestSnippet(t, db, "doomed", "owner-1", true)

	if err := db.Delete(context.Background(), snippet.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.GetByID(context.Background(), snippet.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	if err := db.Delete(context.Background(), snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
