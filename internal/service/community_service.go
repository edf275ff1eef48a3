package service

import (
	"context"
	"fmt"

	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/model"
	"github.com/threadnest/api/internal/repository"
)

// CommunityService is read-only: communities come into existence through the
// identity provider's organization webhooks, outside this API.
type CommunityService interface {
	FetchCommunities(ctx context.Context, filter dto.CommunityFilter) (*dto.CommunityListResponse, error)
	// FetchCommunityDetails returns (nil, nil) when no community matches.
	FetchCommunityDetails(ctx context.Context, externalID string) (*dto.CommunityResponse, error)
	// FetchCommunityPosts returns (nil, nil) when no community matches.
	FetchCommunityPosts(ctx context.Context, externalID string) (*dto.CommunityPostsResponse, error)
}

type communityService struct {
	communityRepo repository.CommunityRepository
}

func NewCommunityService(communityRepo repository.CommunityRepository) CommunityService {
	return &communityService{communityRepo: communityRepo}
}

func (s *communityService) FetchCommunities(ctx context.Context, filter dto.CommunityFilter) (*dto.CommunityListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	offset := (page - 1) * limit
	communities, total, err := s.communityRepo.FindAll(ctx, filter.Search, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching communities: %w", err)
	}

	data := make([]dto.CommunityResponse, 0, len(communities))
	for _, c := range communities {
		data = append(data, toCommunityResponse(c))
	}

	return &dto.CommunityListResponse{
		Data: data,
		Meta: dto.PaginationMeta{
			Page:    page,
			Limit:   limit,
			HasNext: total > int64(offset+len(communities)),
		},
	}, nil
}

func (s *communityService) FetchCommunityDetails(ctx context.Context, externalID string) (*dto.CommunityResponse, error) {
	community, err := s.communityRepo.FindDetails(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetching community details: %w", err)
	}
	if community == nil {
		return nil, nil
	}

	resp := toCommunityResponse(community)
	for _, m := range community.Members {
		resp.Members = append(resp.Members, toReplyAuthorResponse(*m))
	}
	return &resp, nil
}

func (s *communityService) FetchCommunityPosts(ctx context.Context, externalID string) (*dto.CommunityPostsResponse, error) {
	community, err := s.communityRepo.FindPosts(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetching community posts: %w", err)
	}
	if community == nil {
		return nil, nil
	}

	// Threads fetched through the community already belong to it; point them
	// back so the response carries the community ref.
	for _, t := range community.Threads {
		t.Community = community
	}

	return &dto.CommunityPostsResponse{
		Community: toCommunityResponse(community),
		Threads:   toThreadResponses(community.Threads, listingReplyDepth),
	}, nil
}

func toCommunityResponse(c *model.Community) dto.CommunityResponse {
	return dto.CommunityResponse{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Username:   c.Username,
		Name:       c.Name,
		Bio:        c.Bio,
		Image:      c.Image,
	}
}
