package model

import "time"

// Visibility of a board
const (
	VisibilityPrivate = "private"
	VisibilityShared  = "shared"
)

// Board is a named collection of grants
type Board struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Visibility string    `json:"visibility"`
	OwnerID    string    `json:"owner_id"`
	Members    []string  `json:"members,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsShared returns true if other users can see the board
func (b *Board) IsShared() bool {
	return b.Visibility == VisibilityShared
}

// CanView returns true if the user owns the board, is a member, or the board is shared
func (b *Board) CanView(userID string) bool {
	if b.IsShared() || b.OwnerID == userID {
		return true
	}
	for _, m := range b.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// BoardStats summarises grant status on a board at a point in time
type BoardStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}
