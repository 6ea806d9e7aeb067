// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account and its public profile.
//
// Email doubles as the lookup key for invitations: an invitation can be
// addressed to an email before any account with that address exists, and
// is matched to the user once they register. The UNIQUE constraint on
// email in the DB keeps that mapping one-to-one.
//
// GitHubID is zero for accounts created through email/password signup and
// set only when the user logged in through GitHub OAuth.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	PasswordHash string    `json:"-"         db:"password_hash"` // bcrypt; empty for OAuth-only accounts
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
