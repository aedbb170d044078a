package httpdto

import (
	"time"

	"linkup-chat/internal/domain"
)

// PeersResponse is returned when listing messaging peers
type PeersResponse struct {
	Peers []UserDTO `json:"peers"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profile_pic,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// FromUser converts a domain user to UserDTO
func FromUser(u domain.User) UserDTO {
	dto := UserDTO{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.ProfilePic != nil {
		dto.ProfilePic = *u.ProfilePic
	}
	return dto
}

// FromUserSlice converts a slice of domain users to UserDTO slice
func FromUserSlice(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = FromUser(u)
	}
	return dtos
}
