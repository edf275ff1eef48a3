package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/model"
)

// memStore is a shared in-memory stand-in for the database. The repository
// fakes over it resolve references with plain map lookups and always hand out
// copies, so tests can't accidentally mutate stored state through a response.
type memStore struct {
	mu          sync.Mutex
	users       []*model.User
	threads     []*model.Thread
	communities []*model.Community
	clock       time.Time
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// tick hands out strictly increasing timestamps so creation order and
// chronological order always agree.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) userByExternalID(externalID string) *model.User {
	for _, u := range s.users {
		if u.ExternalID == externalID {
			return u
		}
	}
	return nil
}

func (s *memStore) userByID(id uuid.UUID) *model.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *memStore) threadByID(id uuid.UUID) *model.Thread {
	for _, t := range s.threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *memStore) communityByID(id uuid.UUID) *model.Community {
	for _, c := range s.communities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *memStore) childrenOf(id uuid.UUID) []*model.Thread {
	var children []*model.Thread
	for _, t := range s.threads {
		if t.ParentID != nil && *t.ParentID == id {
			children = append(children, t)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})
	return children
}

func copyUser(u *model.User) model.User {
	return model.User{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Username:   u.Username,
		Name:       u.Name,
		Bio:        u.Bio,
		Image:      u.Image,
		Onboarded:  u.Onboarded,
		CreatedAt:  u.CreatedAt,
	}
}

// minimalUser mirrors the reply-author projection the real repository
// applies: primary key and display fields only.
func minimalUser(u *model.User) model.User {
	return model.User{ID: u.ID, Name: u.Name, Image: u.Image}
}

func copyCommunity(c *model.Community) *model.Community {
	if c == nil {
		return nil
	}
	return &model.Community{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Username:   c.Username,
		Name:       c.Name,
		Bio:        c.Bio,
		Image:      c.Image,
		CreatedAt:  c.CreatedAt,
	}
}

// populate builds a detached copy of a thread with depth levels of children
// resolved, reply authors carrying the minimal projection.
func (s *memStore) populate(t *model.Thread, depth int) *model.Thread {
	out := &model.Thread{
		ID:          t.ID,
		Text:        t.Text,
		AuthorID:    t.AuthorID,
		CommunityID: t.CommunityID,
		ParentID:    t.ParentID,
		CreatedAt:   t.CreatedAt,
	}
	if author := s.userByID(t.AuthorID); author != nil {
		out.Author = copyUser(author)
	}
	if t.CommunityID != nil {
		out.Community = copyCommunity(s.communityByID(*t.CommunityID))
	}
	if depth > 0 {
		for _, child := range s.childrenOf(t.ID) {
			childCopy := s.populate(child, depth-1)
			if author := s.userByID(child.AuthorID); author != nil {
				childCopy.Author = minimalUser(author)
			}
			out.Children = append(out.Children, childCopy)
		}
	}
	return out
}

// --- ThreadRepository fake ---

type fakeThreadRepo struct {
	store     *memStore
	createErr error
}

func (r *fakeThreadRepo) Create(ctx context.Context, thread *model.Thread) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	thread.CreatedAt = r.store.tick()
	r.store.threads = append(r.store.threads, &model.Thread{
		ID:          thread.ID,
		Text:        thread.Text,
		AuthorID:    thread.AuthorID,
		CommunityID: thread.CommunityID,
		ParentID:    thread.ParentID,
		CreatedAt:   thread.CreatedAt,
	})
	return nil
}

func (r *fakeThreadRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Thread, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	thread := r.store.threadByID(id)
	if thread == nil {
		return nil, nil
	}
	return r.store.populate(thread, 2), nil
}

func (r *fakeThreadRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.threadByID(id) != nil, nil
}

func (r *fakeThreadRepo) FindTopLevel(ctx context.Context, offset, limit int) ([]*model.Thread, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var topLevel []*model.Thread
	for _, t := range r.store.threads {
		if t.ParentID == nil {
			topLevel = append(topLevel, t)
		}
	}
	sort.Slice(topLevel, func(i, j int) bool {
		return topLevel[i].CreatedAt.After(topLevel[j].CreatedAt)
	})

	total := int64(len(topLevel))
	if offset >= len(topLevel) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(topLevel) {
		end = len(topLevel)
	}

	var page []*model.Thread
	for _, t := range topLevel[offset:end] {
		page = append(page, r.store.populate(t, 1))
	}
	return page, total, nil
}

func (r *fakeThreadRepo) FindRepliesTo(ctx context.Context, authorID uuid.UUID) ([]*model.Thread, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var replies []*model.Thread
	for _, t := range r.store.threads {
		if t.ParentID == nil || t.AuthorID == authorID {
			continue
		}
		parent := r.store.threadByID(*t.ParentID)
		if parent == nil || parent.AuthorID != authorID {
			continue
		}
		reply := r.store.populate(t, 0)
		if author := r.store.userByID(t.AuthorID); author != nil {
			reply.Author = minimalUser(author)
		}
		replies = append(replies, reply)
	}
	sort.Slice(replies, func(i, j int) bool {
		return replies[i].CreatedAt.After(replies[j].CreatedAt)
	})
	return replies, nil
}

// --- UserRepository fake ---

type fakeUserRepo struct {
	store     *memStore
	upsertErr error
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing := r.store.userByExternalID(user.ExternalID); existing != nil {
		existing.Username = user.Username
		existing.Name = user.Name
		existing.Bio = user.Bio
		existing.Image = user.Image
		existing.Onboarded = user.Onboarded
		// Mirrors the upsert's RETURNING clause: the caller's struct ends up
		// with the persisted row's id, not a provisional one.
		user.ID = existing.ID
		return nil
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := copyUser(user)
	stored.CreatedAt = r.store.tick()
	r.store.users = append(r.store.users, &stored)
	return nil
}

func (r *fakeUserRepo) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user := r.store.userByExternalID(externalID)
	if user == nil {
		return nil, nil
	}
	out := copyUser(user)
	for _, c := range user.Communities {
		out.Communities = append(out.Communities, copyCommunity(c))
	}
	return &out, nil
}

func (r *fakeUserRepo) FindWithThreads(ctx context.Context, externalID string) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user := r.store.userByExternalID(externalID)
	if user == nil {
		return nil, nil
	}

	out := copyUser(user)
	var authored []*model.Thread
	for _, t := range r.store.threads {
		if t.AuthorID == user.ID && t.ParentID == nil {
			authored = append(authored, t)
		}
	}
	sort.Slice(authored, func(i, j int) bool {
		return authored[i].CreatedAt.After(authored[j].CreatedAt)
	})
	for _, t := range authored {
		out.Threads = append(out.Threads, r.store.populate(t, 1))
	}
	return &out, nil
}

// --- CommunityRepository fake ---

type fakeCommunityRepo struct {
	store   *memStore
	findErr error
}

func (r *fakeCommunityRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Community, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.communities {
		if c.ExternalID == externalID {
			return copyCommunity(c), nil
		}
	}
	return nil, nil
}

func (r *fakeCommunityRepo) FindDetails(ctx context.Context, externalID string) (*model.Community, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.communities {
		if c.ExternalID == externalID {
			out := copyCommunity(c)
			for _, m := range c.Members {
				member := minimalUser(m)
				out.Members = append(out.Members, &member)
			}
			return out, nil
		}
	}
	return nil, nil
}

func (r *fakeCommunityRepo) FindPosts(ctx context.Context, externalID string) (*model.Community, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, c := range r.store.communities {
		if c.ExternalID == externalID {
			out := copyCommunity(c)
			var posts []*model.Thread
			for _, t := range r.store.threads {
				if t.CommunityID != nil && *t.CommunityID == c.ID && t.ParentID == nil {
					posts = append(posts, t)
				}
			}
			sort.Slice(posts, func(i, j int) bool {
				return posts[i].CreatedAt.After(posts[j].CreatedAt)
			})
			for _, t := range posts {
				out.Threads = append(out.Threads, r.store.populate(t, 1))
			}
			return out, nil
		}
	}
	return nil, nil
}

func (r *fakeCommunityRepo) FindAll(ctx context.Context, search string, offset, limit int) ([]*model.Community, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*model.Community
	for _, c := range r.store.communities {
		if search == "" || containsFold(c.Name, search) || containsFold(c.Username, search) {
			matched = append(matched, c)
		}
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	var page []*model.Community
	for _, c := range matched[offset:end] {
		page = append(page, copyCommunity(c))
	}
	return page, total, nil
}

// --- collaborator fakes ---

type recordingRevalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRevalidator) Revalidate(ctx context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingRevalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type fakeSearchIndex struct {
	mu             sync.Mutex
	indexedThreads []string
	indexedUsers   []string
	indexedUserIDs []string
}

func (f *fakeSearchIndex) IndexThread(thread *model.Thread) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexedThreads = append(f.indexedThreads, thread.ID.String())
	return nil
}

func (f *fakeSearchIndex) IndexUser(user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexedUsers = append(f.indexedUsers, user.ExternalID)
	f.indexedUserIDs = append(f.indexedUserIDs, user.ID.String())
	return nil
}

func (f *fakeSearchIndex) SearchThreads(query string, limit int) ([]dto.ThreadHit, error) {
	return nil, nil
}

func (f *fakeSearchIndex) SearchUsers(query string, limit int) ([]dto.UserHit, error) {
	return nil, nil
}

// --- wiring helpers ---

type testEnv struct {
	store         *memStore
	threadRepo    *fakeThreadRepo
	userRepo      *fakeUserRepo
	communityRepo *fakeCommunityRepo
	revalidator   *recordingRevalidator
	search        *fakeSearchIndex

	threads     ThreadService
	users       UserService
	communities CommunityService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	env := &testEnv{
		store:         store,
		threadRepo:    &fakeThreadRepo{store: store},
		userRepo:      &fakeUserRepo{store: store},
		communityRepo: &fakeCommunityRepo{store: store},
		revalidator:   &recordingRevalidator{},
		search:        &fakeSearchIndex{},
	}
	env.threads = NewThreadService(env.threadRepo, env.userRepo, env.communityRepo, env.search, env.revalidator, nil, time.Second)
	env.users = NewUserService(env.userRepo, env.threadRepo, env.search, env.revalidator)
	env.communities = NewCommunityService(env.communityRepo)
	return env
}

// newTestEnvWithRedis swaps the thread service for one backed by a real redis
// protocol server, so the rate limit window is enforced.
func newTestEnvWithRedis(t *testing.T, postInterval time.Duration) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv()
	env.threads = NewThreadService(env.threadRepo, env.userRepo, env.communityRepo, env.search, env.revalidator, client, postInterval)
	return env
}

func (e *testEnv) seedUser(externalID, username, name string) *model.User {
	user := &model.User{
		ID:         uuid.New(),
		ExternalID: externalID,
		Username:   username,
		Name:       name,
		Onboarded:  true,
	}
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	user.CreatedAt = e.store.tick()
	e.store.users = append(e.store.users, user)
	return user
}

func (e *testEnv) seedCommunity(externalID, username, name string) *model.Community {
	community := &model.Community{
		ID:         uuid.New(),
		ExternalID: externalID,
		Username:   username,
		Name:       name,
	}
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	community.CreatedAt = e.store.tick()
	e.store.communities = append(e.store.communities, community)
	return community
}

func containsFold(haystack, needle string) bool {
	h := []rune(haystack)
	n := []rune(needle)
	if len(n) == 0 {
		return true
	}
	lower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if lower(h[i+j]) != lower(n[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
