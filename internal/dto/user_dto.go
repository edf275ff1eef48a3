package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Name     string `json:"name" binding:"required,min=3,max=30"`
	Bio      string `json:"bio" binding:"max=1000"`
	Image    string `json:"image" binding:"omitempty,url"`
	Path     string `json:"path" binding:"required"`
}

type UserResponse struct {
	ID          uuid.UUID              `json:"id"`
	ExternalID  string                 `json:"external_id"`
	Username    string                 `json:"username"`
	Name        string                 `json:"name"`
	Bio         *string                `json:"bio,omitempty"`
	Image       *string                `json:"image,omitempty"`
	Onboarded   bool                   `json:"onboarded"`
	Communities []CommunityRefResponse `json:"communities,omitempty"`
}

type UserPostsResponse struct {
	User    UserResponse     `json:"user"`
	Threads []ThreadResponse `json:"threads"`
}

// ActivityItem is a reply someone else left on one of the user's threads.
type ActivityItem struct {
	ID        uuid.UUID           `json:"id"`
	ParentID  uuid.UUID           `json:"parent_id"`
	Text      string              `json:"text"`
	Author    ReplyAuthorResponse `json:"author"`
	CreatedAt time.Time           `json:"created_at"`
}
