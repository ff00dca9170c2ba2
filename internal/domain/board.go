package domain

import "time"

// Board is a pure grouping of sessions. Session references are soft: a
// board may list a session that has since been deleted.
type Board struct {
	ID          string    `json:"board_id"`
	Slug        string    `json:"slug,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Sessions    []string  `json:"sessions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"last_updated"`
}

// HasSession reports whether the board already lists the session.
func (b *Board) HasSession(sessionID string) bool {
	for _, id := range b.Sessions {
		if id == sessionID {
			return true
		}
	}
	return false
}
