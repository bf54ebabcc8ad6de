package domain

import "time"

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// UserProfile is a room participant. Every join creates a new profile.
type UserProfile struct {
	ID          string     `json:"id"`
	RoomID      string     `json:"room_id"`
	Role        Role       `json:"role"`
	DisplayName string     `json:"display_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastSeenAt  *time.Time `json:"last_seen_at"`
}

func (u UserProfile) IsHost() bool {
	return u.Role == RoleHost
}
