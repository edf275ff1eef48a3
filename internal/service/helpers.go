package service

import (
	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/model"
)

func toAuthorResponse(u model.User) dto.AuthorResponse {
	return dto.AuthorResponse{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Username:   u.Username,
		Name:       u.Name,
		Image:      u.Image,
	}
}

func toReplyAuthorResponse(u model.User) dto.ReplyAuthorResponse {
	return dto.ReplyAuthorResponse{
		ID:    u.ID,
		Name:  u.Name,
		Image: u.Image,
	}
}

func toCommunityRefResponse(c *model.Community) *dto.CommunityRefResponse {
	if c == nil {
		return nil
	}
	return &dto.CommunityRefResponse{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		Image:      c.Image,
	}
}

// toReplyResponses maps a populated children slice to the response tree.
// depth states how many populated levels to carry over; it is deliberately an
// explicit argument so an operation's resolved depth can never drift by
// accident.
func toReplyResponses(children []*model.Thread, depth int) []dto.ReplyResponse {
	if depth <= 0 || len(children) == 0 {
		return nil
	}

	replies := make([]dto.ReplyResponse, 0, len(children))
	for _, child := range children {
		replies = append(replies, dto.ReplyResponse{
			ID:        child.ID,
			ParentID:  child.ParentID,
			Text:      child.Text,
			Author:    toReplyAuthorResponse(child.Author),
			Children:  toReplyResponses(child.Children, depth-1),
			CreatedAt: child.CreatedAt,
		})
	}
	return replies
}

func toThreadResponse(t *model.Thread, replyDepth int) dto.ThreadResponse {
	children := toReplyResponses(t.Children, replyDepth)
	if children == nil {
		children = []dto.ReplyResponse{}
	}

	return dto.ThreadResponse{
		ID:        t.ID,
		Text:      t.Text,
		Author:    toAuthorResponse(t.Author),
		Community: toCommunityRefResponse(t.Community),
		ParentID:  t.ParentID,
		Children:  children,
		CreatedAt: t.CreatedAt,
	}
}

func toThreadResponses(threads []*model.Thread, replyDepth int) []dto.ThreadResponse {
	responses := make([]dto.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		responses = append(responses, toThreadResponse(t, replyDepth))
	}
	return responses
}
