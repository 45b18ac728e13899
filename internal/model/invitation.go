package model

import "time"

// Invitation statuses. Accepted and rejected are terminal.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRejected = "rejected"
)

// Invitation is a time-limited offer allowing a specific email address to
// become a member of a specific list.
type Invitation struct {
	ID            string    `json:"id"`
	ListID        string    `json:"list_id"`
	ListName      string    `json:"list_name"`
	OwnerID       int64     `json:"owner_id"`
	OwnerEmail    string    `json:"owner_email"`
	InvitedEmail  string    `json:"invited_email"`
	InvitedUserID *int64    `json:"invited_user_id,omitempty"`
	Status        string    `json:"status"`
	Token         string    `json:"token"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the invitation is past its expiry at the given time.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
