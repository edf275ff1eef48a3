package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/threadnest/api/internal/cache"
	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/model"
	"github.com/threadnest/api/internal/repository"
	"github.com/threadnest/api/pkg/apperror"
)

// ProfileEditPath is the one path whose cached render is revalidated after a
// profile upsert. Other callers of UpdateUser (e.g. onboarding) render fresh
// anyway, so invalidating for them would be redundant work.
const ProfileEditPath = "/profile/edit"

type UserService interface {
	UpdateUser(ctx context.Context, externalID string, req dto.UpdateUserRequest) error
	// FetchUser returns (nil, nil) when no user matches.
	FetchUser(ctx context.Context, externalID string) (*dto.UserResponse, error)
	// FetchUserPosts returns (nil, nil) when no user matches.
	FetchUserPosts(ctx context.Context, externalID string) (*dto.UserPostsResponse, error)
	GetActivity(ctx context.Context, externalID string) ([]dto.ActivityItem, error)
	SearchUsers(query string, limit int) ([]dto.UserHit, error)
}

type userService struct {
	userRepo    repository.UserRepository
	threadRepo  repository.ThreadRepository
	search      SearchIndex
	revalidator cache.Revalidator
}

func NewUserService(
	userRepo repository.UserRepository,
	threadRepo repository.ThreadRepository,
	search SearchIndex,
	revalidator cache.Revalidator,
) UserService {
	return &userService{
		userRepo:    userRepo,
		threadRepo:  threadRepo,
		search:      search,
		revalidator: revalidator,
	}
}

func (s *userService) UpdateUser(ctx context.Context, externalID string, req dto.UpdateUserRequest) error {
	user := &model.User{
		ExternalID: externalID,
		Username:   strings.ToLower(req.Username),
		Name:       req.Name,
		Bio:        optional(req.Bio),
		Image:      optional(req.Image),
		Onboarded:  true,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	if s.search != nil {
		if err := s.search.IndexUser(user); err != nil {
			log.Printf("update user: failed to index %s: %v", externalID, err)
		}
	}

	if req.Path == ProfileEditPath {
		s.revalidator.Revalidate(ctx, req.Path)
	}

	return nil
}

func (s *userService) FetchUser(ctx context.Context, externalID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	resp := toUserResponse(user)
	for _, c := range user.Communities {
		resp.Communities = append(resp.Communities, *toCommunityRefResponse(c))
	}
	return &resp, nil
}

func (s *userService) FetchUserPosts(ctx context.Context, externalID string) (*dto.UserPostsResponse, error) {
	user, err := s.userRepo.FindWithThreads(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetching user posts: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	// Authored threads carry the author implicitly; fill it in so the
	// response shape matches the feed's.
	for _, t := range user.Threads {
		t.Author = *user
	}

	return &dto.UserPostsResponse{
		User:    toUserResponse(user),
		Threads: toThreadResponses(user.Threads, listingReplyDepth),
	}, nil
}

func (s *userService) GetActivity(ctx context.Context, externalID string) ([]dto.ActivityItem, error) {
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetching activity: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("fetching activity: user %s: %w", externalID, apperror.ErrNotFound)
	}

	replies, err := s.threadRepo.FindRepliesTo(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching activity: %w", err)
	}

	items := make([]dto.ActivityItem, 0, len(replies))
	for _, reply := range replies {
		if reply.ParentID == nil {
			continue
		}
		items = append(items, dto.ActivityItem{
			ID:        reply.ID,
			ParentID:  *reply.ParentID,
			Text:      reply.Text,
			Author:    toReplyAuthorResponse(reply.Author),
			CreatedAt: reply.CreatedAt,
		})
	}
	return items, nil
}

func (s *userService) SearchUsers(query string, limit int) ([]dto.UserHit, error) {
	if s.search == nil {
		return []dto.UserHit{}, nil
	}
	return s.search.SearchUsers(query, limit)
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Username:   u.Username,
		Name:       u.Name,
		Bio:        u.Bio,
		Image:      u.Image,
		Onboarded:  u.Onboarded,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
