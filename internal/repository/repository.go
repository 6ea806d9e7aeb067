// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/codecache/codecache/internal/model"
)

// ListOptions carries limit/offset pagination. Zero values mean
// "use the repository defaults".
type ListOptions struct {
	Limit  int
	Offset int
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// ListPublic returns public snippets, newest first.
	ListPublic(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	// ListByOwner returns all snippets owned by the user, newest first.
	ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Snippet, error)
	// Search matches query against title, description, code, and tags.
	// When publicOnly is true, private snippets are excluded.
	Search(ctx context.Context, query string, publicOnly bool, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail looks a user up by their unique email address.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub inserts or refreshes a user keyed on their GitHub ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
	// SearchUsers matches query as an exact email or a name/email prefix.
	SearchUsers(ctx context.Context, query string, limit int) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type InvitationRepository interface {
	CreateInvitation(ctx context.Context, inv *model.Invitation) error
	GetInvitationByID(ctx context.Context, id string) (*model.Invitation, error)
	// GetInvitationByKey returns the single invitation for the
	// (snippet, invitee email) pair, or ErrNotFound if none exists.
	GetInvitationByKey(ctx context.Context, snippetID, email string) (*model.Invitation, error)
	// ListInvitationsByEmail returns every invitation addressed to the
	// email, including expired and resolved ones. Filtering is the
	// caller's job.
	ListInvitationsByEmail(ctx context.Context, email string) ([]model.Invitation, error)
	ListInvitationsBySnippet(ctx context.Context, snippetID string) ([]model.Invitation, error)
	// ListAcceptedInvitations returns only accepted invitations for the
	// email, used to resolve which shared snippets a user can reach.
	ListAcceptedInvitations(ctx context.Context, email string) ([]model.Invitation, error)
	// UpdateInvitation rewrites the mutable fields (permissions, status,
	// token, expiry, updated_at) of an existing invitation.
	UpdateInvitation(ctx context.Context, inv *model.Invitation) error
	// SetInvitationStatus overwrites the stored status unconditionally
	// and returns the updated record.
	SetInvitationStatus(ctx context.Context, id string, status model.InviteStatus) (*model.Invitation, error)
}

type CollaborationRequestRepository interface {
	CreateCollabRequest(ctx context.Context, req *model.CollaborationRequest) error
	GetCollabRequestByID(ctx context.Context, id string) (*model.CollaborationRequest, error)
	// GetCollabRequestByKey returns the single request for the
	// (snippet, requester, recipient) triple, or ErrNotFound.
	GetCollabRequestByKey(ctx context.Context, snippetID, requesterID, recipientID string) (*model.CollaborationRequest, error)
	ListCollabRequestsByRecipient(ctx context.Context, recipientID string) ([]model.CollaborationRequest, error)
	ListCollabRequestsByRequester(ctx context.Context, requesterID string) ([]model.CollaborationRequest, error)
	UpdateCollabRequest(ctx context.Context, req *model.CollaborationRequest) error
	SetCollabRequestStatus(ctx context.Context, id string, status model.InviteStatus) (*model.CollaborationRequest, error)
}
