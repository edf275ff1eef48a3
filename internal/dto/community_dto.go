package dto

import "github.com/google/uuid"

type CommunityFilter struct {
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"q"`
}

type CommunityResponse struct {
	ID         uuid.UUID             `json:"id"`
	ExternalID string                `json:"external_id"`
	Username   string                `json:"username"`
	Name       string                `json:"name"`
	Bio        *string               `json:"bio,omitempty"`
	Image      *string               `json:"image,omitempty"`
	Members    []ReplyAuthorResponse `json:"members,omitempty"`
}

type CommunityListResponse struct {
	Data []CommunityResponse `json:"data"`
	Meta PaginationMeta      `json:"meta"`
}

type CommunityPostsResponse struct {
	Community CommunityResponse `json:"community"`
	Threads   []ThreadResponse  `json:"threads"`
}
