package model

import "time"

// ShoppingList is a named list with one owner and a set of members. The owner
// is always a member.
type ShoppingList struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    int64     `json:"owner_id"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ListMember struct {
	ID       int64      `json:"id"`
	ListID   string     `json:"list_id"`
	UserID   int64      `json:"user_id"`
	Role     string     `json:"role"`
	JoinedAt *time.Time `json:"joined_at"`
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)
