package model

import "time"

// Snippet represents a saved code snippet.
//
// The `json:"..."` tags control how the struct is serialized by
// encoding/json; field names match what the frontend expects.
//
// OwnerID is empty for snippets created anonymously. Anonymous snippets
// are always public; the service layer enforces that at creation time.
// LastModifiedBy records the user who made the most recent edit, which
// matters once collaborators with write access can modify snippets they
// don't own.
type Snippet struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Code           string    `json:"code"`
	Language       string    `json:"language"`
	Tags           []string  `json:"tags"`
	IsPublic       bool      `json:"isPublic"`
	OwnerID        string    `json:"ownerId,omitempty"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
