package model

import "time"

// CollaborationRequest is the user-to-user analogue of an Invitation: a
// known user asks another known user to collaborate on a snippet. Unlike
// invitations, requests carry no token and never expire.
//
// At most one request exists per (SnippetID, RequesterID, RecipientID)
// triple; a declined request is renewed in place.
type CollaborationRequest struct {
	ID          string       `json:"id"`
	SnippetID   string       `json:"snippetId"`
	RequesterID string       `json:"requesterId"`
	RecipientID string       `json:"recipientId"`
	Permissions []Permission `json:"permissions"`
	Message     string       `json:"message,omitempty"`
	Status      InviteStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
