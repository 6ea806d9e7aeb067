package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
)

func createTestCollabRequest(t *testing.T, db *DB, snippetID, requesterID, recipientID string) *model.CollaborationRequest {
	t.Helper()
	req := &model.CollaborationRequest{
		SnippetID:   snippetID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Permissions: []model.Permission{model.PermissionRead},
		Message:     "let me in",
		Status:      model.StatusPending,
	}
	if err := db.CreateCollabRequest(context.Background(), req); err != nil {
		t.Fatalf("failed to create test collaboration request: %v", err)
	}
	return req
}

func TestCreateCollabRequest(t *testing.T) {
	db := newTestDB(t)

	req := createTestCollabRequest(t, db, "snip-1", "user-a", "user-b")

	if req.ID == "" {
		t.Error("CreateCollabRequest() did not set ID")
	}

	found, err := db.GetCollabRequestByID(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("GetCollabRequestByID() error = %v", err)
	}
	if found.Message != "let me in" {
		t.Errorf("Message = %q", found.Message)
	}
	if found.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", found.Status)
	}
}

func TestCreateCollabRequest_DuplicateTripleConflicts(t *testing.T) {
	db := newTestDB(t)

	createTestCollabRequest(t, db, "snip-1", "user-a", "user-b")

	dup := &model.CollaborationRequest{
		SnippetID:   "snip-1",
		RequesterID: "user-a",
		RecipientID: "user-b",
		Permissions: []model.Permission{model.PermissionWrite},
		Status:      model.StatusPending,
	}
	err := db.CreateCollabRequest(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate CreateCollabRequest() error = %v, want ErrConflict", err)
	}

	// Any other triple is a distinct request.
	createTestCollabRequest(t, db, "snip-1", "user-b", "user-a")
	createTestCollabRequest(t, db, "snip-2", "user-a", "user-b")
}

func TestGetCollabRequestByKey(t *testing.T) {
	db := newTestDB(t)

	created := createTestCollabRequest(t, db, "snip-1", "user-a", "user-b")

	found, err := db.GetCollabRequestByKey(context.Background(), "snip-1", "user-a", "user-b")
	if err != nil {
		t.Fatalf("GetCollabRequestByKey() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}

	_, err = db.GetCollabRequestByKey(context.Background(), "snip-1", "user-b", "user-a")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("reversed key error = %v, want ErrNotFound", err)
	}
}

func TestListCollabRequests(t *testing.T) {
	db := newTestDB(t)

	createTestCollabRequest(t, db, "snip-1", "user-a", "user-b")
	createTestCollabRequest(t, db, "snip-2", "user-a", "user-c")
	createTestCollabRequest(t, db, "snip-3", "user-c", "user-a")

	sent, err := db.ListCollabRequestsByRequester(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("ListCollabRequestsByRequester() error = %v", err)
	}
	if len(sent) != 2 {
		t.Errorf("sent = %d requests, want 2", len(sent))
	}

	received, err := db.ListCollabRequestsByRecipient(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("ListCollabRequestsByRecipient() error = %v", err)
	}
	if len(received) != 1 {
		t.Errorf("received = %d requests, want 1", len(received))
	}
}

func TestUpdateCollabRequest_Renewal(t *testing.T) {
	db := newTestDB(t)

	req := createTestCollabRequest(t, db, "snip-1", "user-a", "user-b")
	if _, err := db.SetCollabRequestStatus(context.Background(), req.ID, model.StatusDeclined); err != nil {
		t.Fatalf("SetCollabRequestStatus() error = %v", err)
	}

	req.Status = model.StatusPending
	req.Message = "please reconsider"
	req.Permissions = []model.Permission{model.PermissionRead, model.PermissionWrite}

	if err := db.UpdateCollabRequest(context.Background(), req); err != nil {
		t.Fatalf("UpdateCollabRequest() error = %v", err)
	}

	found, err := db.GetCollabRequestByID(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("GetCollabRequestByID() error = %v", err)
	}
	if found.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending after renewal", found.Status)
	}
	if found.Message != "please reconsider" {
		t.Errorf("Message = %q", found.Message)
	}
}

func TestSetCollabRequestStatus(t *testing.T) {
	db := newTestDB(t)

	req := createTestCollabRequest(t, db, "snip-1", "user-a", "user-b")

	got, err := db.SetCollabRequestStatus(context.Background(), req.ID, model.StatusAccepted)
	if err != nil {
		t.Fatalf("SetCollabRequestStatus() error = %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Errorf("Status = %q, want accepted", got.Status)
	}

	_, err = db.SetCollabRequestStatus(context.Background(), "no-such-id", model.StatusAccepted)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
}
