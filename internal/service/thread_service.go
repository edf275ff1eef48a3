package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"

	"github.com/threadnest/api/internal/cache"
	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/model"
	"github.com/threadnest/api/internal/repository"
	"github.com/threadnest/api/pkg/apperror"
)

// Reply trees are resolved to a fixed depth: one level in listings, two in
// the thread detail view. Deeper replies exist in storage but are fetched by
// navigating to the reply's own page.
const (
	listingReplyDepth = 1
	detailReplyDepth  = 2
)

type ThreadService interface {
	CreateThread(ctx context.Context, authorExternalID string, req dto.CreateThreadRequest) (uuid.UUID, error)
	FetchFeed(ctx context.Context, page, limit int) (*dto.FeedResponse, error)
	// FetchThreadByID returns (nil, nil) when no thread matches; the caller
	// decides how to react to an absent thread.
	FetchThreadByID(ctx context.Context, id uuid.UUID) (*dto.ThreadResponse, error)
	AddComment(ctx context.Context, threadID uuid.UUID, authorExternalID string, req dto.AddCommentRequest) (uuid.UUID, error)
	SearchThreads(query string, limit int) ([]dto.ThreadHit, error)
}

type threadService struct {
	threadRepo    repository.ThreadRepository
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
	search        SearchIndex
	revalidator   cache.Revalidator
	redisClient   *redis.Client
	postInterval  time.Duration
	sanitizer     *bluemonday.Policy
}

func NewThreadService(
	threadRepo repository.ThreadRepository,
	userRepo repository.UserRepository,
	communityRepo repository.CommunityRepository,
	search SearchIndex,
	revalidator cache.Revalidator,
	redisClient *redis.Client,
	postInterval time.Duration,
) ThreadService {
	return &threadService{
		threadRepo:    threadRepo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		search:        search,
		revalidator:   revalidator,
		redisClient:   redisClient,
		postInterval:  postInterval,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *threadService) CreateThread(ctx context.Context, authorExternalID string, req dto.CreateThreadRequest) (uuid.UUID, error) {
	author, err := s.userRepo.FindByExternalID(ctx, authorExternalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating thread: %w", err)
	}
	if author == nil {
		return uuid.Nil, fmt.Errorf("creating thread: author %s: %w", authorExternalID, apperror.ErrNotFound)
	}

	// Validate before the rate limit check: a rejected post must not consume
	// the caller's posting slot.
	text := strings.TrimSpace(s.sanitizer.Sanitize(req.Text))
	if text == "" {
		return uuid.Nil, fmt.Errorf("creating thread: empty text: %w", apperror.ErrInvalidInput)
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, authorExternalID, "create_thread", s.postInterval)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating thread: %w", err)
	}
	if !allowed {
		return uuid.Nil, s.rateLimited(ctx, authorExternalID, "create_thread")
	}

	// A community id that resolves to nothing is tolerated: the thread is
	// simply posted without a community attachment. Only a store failure
	// during the lookup aborts the operation.
	var communityID *uuid.UUID
	if req.CommunityID != nil && *req.CommunityID != "" {
		community, err := s.communityRepo.FindByExternalID(ctx, *req.CommunityID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("creating thread: %w", err)
		}
		if community != nil {
			communityID = &community.ID
		} else {
			log.Printf("create thread: community %s not found, posting without community", *req.CommunityID)
		}
	}

	thread := &model.Thread{
		Text:        text,
		AuthorID:    author.ID,
		CommunityID: communityID,
	}

	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return uuid.Nil, fmt.Errorf("creating thread: %w", err)
	}

	if s.search != nil {
		thread.Author = *author
		if err := s.search.IndexThread(thread); err != nil {
			log.Printf("create thread: failed to index %s: %v", thread.ID, err)
		}
	}

	s.revalidator.Revalidate(ctx, req.Path)

	return thread.ID, nil
}

func (s *threadService) FetchFeed(ctx context.Context, page, limit int) (*dto.FeedResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	offset := (page - 1) * limit
	threads, total, err := s.threadRepo.FindTopLevel(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	return &dto.FeedResponse{
		Data: toThreadResponses(threads, listingReplyDepth),
		Meta: dto.PaginationMeta{
			Page:    page,
			Limit:   limit,
			HasNext: total > int64(offset+len(threads)),
		},
	}, nil
}

func (s *threadService) FetchThreadByID(ctx context.Context, id uuid.UUID) (*dto.ThreadResponse, error) {
	thread, err := s.threadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching thread: %w", err)
	}
	if thread == nil {
		return nil, nil
	}

	resp := toThreadResponse(thread, detailReplyDepth)
	return &resp, nil
}

func (s *threadService) AddComment(ctx context.Context, threadID uuid.UUID, authorExternalID string, req dto.AddCommentRequest) (uuid.UUID, error) {
	exists, err := s.threadRepo.Exists(ctx, threadID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding comment: %w", err)
	}
	if !exists {
		return uuid.Nil, fmt.Errorf("adding comment: thread %s: %w", threadID, apperror.ErrNotFound)
	}

	author, err := s.userRepo.FindByExternalID(ctx, authorExternalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding comment: %w", err)
	}
	if author == nil {
		return uuid.Nil, fmt.Errorf("adding comment: author %s: %w", authorExternalID, apperror.ErrNotFound)
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(req.Text))
	if text == "" {
		return uuid.Nil, fmt.Errorf("adding comment: empty text: %w", apperror.ErrInvalidInput)
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, authorExternalID, "add_comment", s.postInterval)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding comment: %w", err)
	}
	if !allowed {
		return uuid.Nil, s.rateLimited(ctx, authorExternalID, "add_comment")
	}

	// The comment is durable before anything references it: inserting the
	// row with ParentID set is the single step that both creates the reply
	// and links it under the parent.
	comment := &model.Thread{
		Text:     text,
		AuthorID: author.ID,
		ParentID: &threadID,
	}

	if err := s.threadRepo.Create(ctx, comment); err != nil {
		return uuid.Nil, fmt.Errorf("adding comment: %w", err)
	}

	if s.search != nil {
		comment.Author = *author
		if err := s.search.IndexThread(comment); err != nil {
			log.Printf("add comment: failed to index %s: %v", comment.ID, err)
		}
	}

	s.revalidator.Revalidate(ctx, req.Path)

	return comment.ID, nil
}

// rateLimited builds the rejection, carrying how long the caller has to wait
// when the window is known.
func (s *threadService) rateLimited(ctx context.Context, userID, action string) error {
	ttl, err := GetRateLimitTTL(ctx, s.redisClient, userID, action)
	if err != nil || ttl <= 0 {
		return apperror.ErrRateLimitExceeded
	}
	return fmt.Errorf("try again in %s: %w", ttl.Round(time.Second), apperror.ErrRateLimitExceeded)
}

func (s *threadService) SearchThreads(query string, limit int) ([]dto.ThreadHit, error) {
	if s.search == nil {
		return []dto.ThreadHit{}, nil
	}
	return s.search.SearchThreads(query, limit)
}
