package model

import "time"

// InviteStatus is the stored lifecycle state of an invitation or
// collaboration request.
type InviteStatus string

const (
	StatusPending  InviteStatus = "pending"
	StatusAccepted InviteStatus = "accepted"
	StatusDeclined InviteStatus = "declined"

	// StatusExpired is never stored. It is the effective status of a
	// pending/accepted/declined invitation whose expiry has passed.
	StatusExpired InviteStatus = "expired"
)

// InvitationTTL is how long a newly created or renewed invitation stays
// actionable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is an email-addressed, time-limited offer of access to a
// snippet, carrying a permission set and a single-use token.
//
// At most one invitation exists per (SnippetID, InviteeEmail) pair; a
// declined or expired invitation is renewed in place rather than
// duplicated. UpdatedAt is zero until the first renewal.
type Invitation struct {
	ID           string       `json:"id"`
	SnippetID    string       `json:"snippetId"`
	InviterID    string       `json:"inviterId"`
	InviteeEmail string       `json:"inviteeEmail"`
	Permissions  []Permission `json:"permissions"`
	Status       InviteStatus `json:"status"`
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt,omitzero"`
}

// EffectiveStatus resolves the status an invitation should be treated as
// having at the given instant. Once the expiry has passed the invitation
// reads as expired regardless of what is stored; otherwise the stored
// status stands.
func EffectiveStatus(status InviteStatus, expiresAt, now time.Time) InviteStatus {
	if now.After(expiresAt) {
		return StatusExpired
	}
	return status
}

// EffectiveStatus resolves the invitation's status against the current
// time. The effective status, not the stored one, decides which actions
// the invitee is offered.
func (i *Invitation) EffectiveStatus(now time.Time) InviteStatus {
	return EffectiveStatus(i.Status, i.ExpiresAt, now)
}

// Actionable reports whether the invitation can still be accepted or
// declined: pending and unexpired.
func (i *Invitation) Actionable(now time.Time) bool {
	return i.EffectiveStatus(now) == StatusPending
}
