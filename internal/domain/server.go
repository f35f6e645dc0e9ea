package domain

import "time"

// DiscordServer is a monitored community.
type DiscordServer struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
