package dto

import (
	"time"

	"github.com/spec-kit/monitor-report/internal/domain"
)

// ServerRequest is the body of server create and update. Omitted fields are unchanged.
type ServerRequest struct {
	ServerName  *string `json:"server_name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// UserRequest is the body of user create and update. Omitted fields are unchanged.
type UserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// ServerResponse is a server as returned to clients.
type ServerResponse struct {
	ServerID    int64     `json:"server_id"`
	ServerName  string    `json:"server_name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewServerResponse maps a domain server.
func NewServerResponse(s *domain.DiscordServer) ServerResponse {
	return ServerResponse{
		ServerID:    s.ID,
		ServerName:  s.Name,
		Description: s.Description,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// NewServerResponses maps a slice of servers.
func NewServerResponses(servers []domain.DiscordServer) []ServerResponse {
	out := make([]ServerResponse, 0, len(servers))
	for i := range servers {
		out = append(out, NewServerResponse(&servers[i]))
	}
	return out
}
