package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/model"
	"github.com/codecache/codecache/internal/repository"
)

// In-memory fakes for the repository interfaces. Each stores copies so
// tests cannot accidentally mutate repository state through returned
// pointers.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------
// snippets

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) add(s model.Snippet) *model.Snippet {
	if s.ID == "" {
		m.nextID++
		s.ID = fmt.Sprintf("snip-%d", m.nextID)
	}
	stored := s
	m.snippets[s.ID] = &stored
	return &s
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("snip-%d", m.nextID)
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *s
	return &result, nil
}

func (m *mockSnippetRepo) ListPublic(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	result := []model.Snippet{}
	for _, s := range m.snippets {
		if s.IsPublic {
			result = append(result, *s)
		}
	}
	return paginate(result, opts), nil
}

func (m *mockSnippetRepo) ListByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Snippet, error) {
	result := []model.Snippet{}
	for _, s := range m.snippets {
		if s.OwnerID == ownerID {
			result = append(result, *s)
		}
	}
	return paginate(result, opts), nil
}

func (m *mockSnippetRepo) Search(_ context.Context, query string, publicOnly bool, opts repository.ListOptions) ([]model.Snippet, error) {
	result := []model.Snippet{}
	for _, s := range m.snippets {
		if publicOnly && !s.IsPublic {
			continue
		}
		if strings.Contains(s.Title, query) || strings.Contains(s.Code, query) {
			result = append(result, *s)
		}
	}
	return paginate(result, opts), nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	snippet.UpdatedAt = time.Now()
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func paginate(items []model.Snippet, opts repository.ListOptions) []model.Snippet {
	if opts.Offset >= len(items) {
		return []model.Snippet{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// ---------------------------------------------------------------------
// users

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(name, email string) *model.User {
	m.nextID++
	u := &model.User{
		ID:    fmt.Sprintf("user-%d", m.nextID),
		Name:  name,
		Email: strings.ToLower(email),
	}
	m.users[u.ID] = u
	result := *u
	return &result
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict(fmt.Sprintf("an account with email %s already exists", user.Email))
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpsertGitHub(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID && u.GitHubID != 0 {
			user.ID = u.ID
			u.Name = user.Name
			u.AvatarURL = user.AvatarURL
			return nil
		}
	}
	return m.CreateUser(context.Background(), user)
}

func (m *mockUserRepo) SearchUsers(_ context.Context, query string, limit int) ([]model.User, error) {
	result := []model.User{}
	for _, u := range m.users {
		if u.Email == query || strings.HasPrefix(u.Email, query) || strings.HasPrefix(u.Name, query) {
			result = append(result, *u)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// ---------------------------------------------------------------------
// invitations

type mockInvitationRepo struct {
	invitations map[string]*model.Invitation
	nextID      int
}

func newMockInvitationRepo() *mockInvitationRepo {
	return &mockInvitationRepo{invitations: make(map[string]*model.Invitation)}
}

func (m *mockInvitationRepo) CreateInvitation(_ context.Context, inv *model.Invitation) error {
	for _, existing := range m.invitations {
		if existing.SnippetID == inv.SnippetID && existing.InviteeEmail == inv.InviteeEmail {
			return apperror.Conflict(fmt.Sprintf(
				"an invitation for %s already exists on this snippet", inv.InviteeEmail))
		}
	}
	m.nextID++
	inv.ID = fmt.Sprintf("inv-%d", m.nextID)
	inv.CreatedAt = time.Now()
	stored := *inv
	m.invitations[inv.ID] = &stored
	return nil
}

func (m *mockInvitationRepo) GetInvitationByID(_ context.Context, id string) (*model.Invitation, error) {
	inv, ok := m.invitations[id]
	if !ok {
		return nil, apperror.NotFound("invitation", id)
	}
	result := *inv
	return &result, nil
}

func (m *mockInvitationRepo) GetInvitationByKey(_ context.Context, snippetID, email string) (*model.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.SnippetID == snippetID && inv.InviteeEmail == email {
			result := *inv
			return &result, nil
		}
	}
	return nil, apperror.NotFound("invitation", snippetID+"/"+email)
}

func (m *mockInvitationRepo) ListInvitationsByEmail(_ context.Context, email string) ([]model.Invitation, error) {
	result := []model.Invitation{}
	for _, inv := range m.invitations {
		if inv.InviteeEmail == email {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (m *mockInvitationRepo) ListInvitationsBySnippet(_ context.Context, snippetID string) ([]model.Invitation, error) {
	result := []model.Invitation{}
	for _, inv := range m.invitations {
		if inv.SnippetID == snippetID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (m *mockInvitationRepo) ListAcceptedInvitations(_ context.Context, email string) ([]model.Invitation, error) {
	result := []model.Invitation{}
	for _, inv := range m.invitations {
		if inv.InviteeEmail == email && inv.Status == model.StatusAccepted {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (m *mockInvitationRepo) UpdateInvitation(_ context.Context, inv *model.Invitation) error {
	if _, ok := m.invitations[inv.ID]; !ok {
		return apperror.NotFound("invitation", inv.ID)
	}
	inv.UpdatedAt = time.Now()
	stored := *inv
	m.invitations[inv.ID] = &stored
	return nil
}

func (m *mockInvitationRepo) SetInvitationStatus(_ context.Context, id string, status model.InviteStatus) (*model.Invitation, error) {
	inv, ok := m.invitations[id]
	if !ok {
		return nil, apperror.NotFound("invitation", id)
	}
	inv.Status = status
	result := *inv
	return &result, nil
}

// ---------------------------------------------------------------------
// collaboration requests

type mockCollabRepo struct {
	requests map[string]*model.CollaborationRequest
	nextID   int
}

func newMockCollabRepo() *mockCollabRepo {
	return &mockCollabRepo{requests: make(map[string]*model.CollaborationRequest)}
}

func (m *mockCollabRepo) CreateCollabRequest(_ context.Context, req *model.CollaborationRequest) error {
	for _, existing := range m.requests {
		if existing.SnippetID == req.SnippetID &&
			existing.RequesterID == req.RequesterID &&
			existing.RecipientID == req.RecipientID {
			return apperror.Conflict("a collaboration request for this user already exists on this snippet")
		}
	}
	m.nextID++
	req.ID = fmt.Sprintf("collab-%d", m.nextID)
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m *mockCollabRepo) GetCollabRequestByID(_ context.Context, id string) (*model.CollaborationRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, apperror.NotFound("collaboration request", id)
	}
	result := *req
	return &result, nil
}

func (m *mockCollabRepo) GetCollabRequestByKey(_ context.Context, snippetID, requesterID, recipientID string) (*model.CollaborationRequest, error) {
	for _, req := range m.requests {
		if req.SnippetID == snippetID && req.RequesterID == requesterID && req.RecipientID == recipientID {
			result := *req
			return &result, nil
		}
	}
	return nil, apperror.NotFound("collaboration request", snippetID)
}

func (m *mockCollabRepo) ListCollabRequestsByRecipient(_ context.Context, recipientID string) ([]model.CollaborationRequest, error) {
	result := []model.CollaborationRequest{}
	for _, req := range m.requests {
		if req.RecipientID == recipientID {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (m *mockCollabRepo) ListCollabRequestsByRequester(_ context.Context, requesterID string) ([]model.CollaborationRequest, error) {
	result := []model.CollaborationRequest{}
	for _, req := range m.requests {
		if req.RequesterID == requesterID {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (m *mockCollabRepo) UpdateCollabRequest(_ context.Context, req *model.CollaborationRequest) error {
	if _, ok := m.requests[req.ID]; !ok {
		return apperror.NotFound("collaboration request", req.ID)
	}
	req.UpdatedAt = time.Now()
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m *mockCollabRepo) SetCollabRequestStatus(_ context.Context, id string, status model.InviteStatus) (*model.CollaborationRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, apperror.NotFound("collaboration request", id)
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	result := *req
	return &result, nil
}

// ---------------------------------------------------------------------
// mailer

type mockMailer struct {
	sent  []string // invitation IDs, in send order
	fail  bool
	calls int
}

func (m *mockMailer) SendInvitation(_ context.Context, inv *model.Invitation, _ string) error {
	m.calls++
	if m.fail {
		return fmt.Errorf("smtp unreachable")
	}
	m.sent = append(m.sent, inv.ID)
	return nil
}
