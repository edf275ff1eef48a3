package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Text        string  `json:"text" binding:"required,min=3"`
	CommunityID *string `json:"community_id"`
	Path        string  `json:"path" binding:"required"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required,min=3"`
	Path string `json:"path" binding:"required"`
}

// AuthorResponse is the full author projection used on top-level threads.
type AuthorResponse struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Image      *string   `json:"image,omitempty"`
}

// ReplyAuthorResponse is the minimal projection replies carry: enough for a
// name and an avatar, nothing more.
type ReplyAuthorResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Image *string   `json:"image,omitempty"`
}

type CommunityRefResponse struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Image      *string   `json:"image,omitempty"`
}

// ReplyResponse is one node of the reply tree. Children is populated only to
// the depth the operation resolves; a nil slice means "not resolved", not
// "no replies".
type ReplyResponse struct {
	ID        uuid.UUID           `json:"id"`
	ParentID  *uuid.UUID          `json:"parent_id,omitempty"`
	Text      string              `json:"text"`
	Author    ReplyAuthorResponse `json:"author"`
	Children  []ReplyResponse     `json:"children,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type ThreadResponse struct {
	ID        uuid.UUID             `json:"id"`
	Text      string                `json:"text"`
	Author    AuthorResponse        `json:"author"`
	Community *CommunityRefResponse `json:"community,omitempty"`
	ParentID  *uuid.UUID            `json:"parent_id,omitempty"`
	Children  []ReplyResponse       `json:"children"`
	CreatedAt time.Time             `json:"created_at"`
}

type FeedResponse struct {
	Data []ThreadResponse `json:"data"`
	Meta PaginationMeta   `json:"meta"`
}

type CreatedResponse struct {
	ID uuid.UUID `json:"id"`
}
