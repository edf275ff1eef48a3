package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"

	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/model"
)

// SearchIndex is the write/read surface of the search engine. Indexing is
// best-effort from callers' perspective: a failed index never fails the write
// that triggered it.
type SearchIndex interface {
	IndexThread(thread *model.Thread) error
	IndexUser(user *model.User) error
	SearchThreads(query string, limit int) ([]dto.ThreadHit, error)
	SearchUsers(query string, limit int) ([]dto.UserHit, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchIndex {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	sortableAttrs := []string{"created_at"}
	_, err := s.client.Index("threads").UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		log.Printf("Failed to update threads sortable attributes: %v", err)
	}

	userSearchable := []string{"username", "name"}
	_, err = s.client.Index("users").UpdateSearchableAttributes(&userSearchable)
	if err != nil {
		log.Printf("Failed to update users searchable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliThreadDoc struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"created_at"`
}

type meiliUserDoc struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Image      string `json:"image"`
}

func (s *meiliSearchService) cleanTextForIndex(text string) string {
	sanitized := s.sanitizer.Sanitize(text)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexThread(thread *model.Thread) error {
	doc := meiliThreadDoc{
		ID:        thread.ID.String(),
		Text:      s.cleanTextForIndex(thread.Text),
		Author:    thread.Author.Username,
		CreatedAt: thread.CreatedAt.Unix(),
	}

	task, err := s.client.Index("threads").AddDocuments([]meiliThreadDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed thread %s, task id: %d", thread.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) IndexUser(user *model.User) error {
	doc := meiliUserDoc{
		ID:         user.ID.String(),
		ExternalID: user.ExternalID,
		Username:   user.Username,
		Name:       user.Name,
		Image:      getStringOrEmpty(user.Image),
	}

	// The users index is keyed by the provider id: profile edits repeat for
	// the same person and must overwrite one document, never add another.
	task, err := s.client.Index("users").AddDocuments([]meiliUserDoc{doc}, strPtr("external_id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed user %s, task id: %d", user.ExternalID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) SearchThreads(query string, limit int) ([]dto.ThreadHit, error) {
	resp, err := s.client.Index("threads").Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("searching threads: %w", err)
	}

	var hits []dto.ThreadHit
	if err := decodeHits(resp.Hits, &hits); err != nil {
		return nil, fmt.Errorf("searching threads: %w", err)
	}
	return hits, nil
}

func (s *meiliSearchService) SearchUsers(query string, limit int) ([]dto.UserHit, error) {
	resp, err := s.client.Index("users").Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}

	var hits []dto.UserHit
	if err := decodeHits(resp.Hits, &hits); err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return hits, nil
}

// decodeHits re-marshals the engine's loosely typed hits into the response
// shape.
func decodeHits(hits interface{}, out interface{}) error {
	raw, err := json.Marshal(hits)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func getStringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
