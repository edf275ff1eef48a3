package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/threadnest/api/internal/model"
)

// Communities are provisioned by the identity provider, so this repository
// only reads.
type CommunityRepository interface {
	// FindByExternalID resolves a provider organization id to the community
	// row, without populating relations. (nil, nil) when absent.
	FindByExternalID(ctx context.Context, externalID string) (*model.Community, error)
	// FindDetails returns the community with Members and CreatedBy populated.
	FindDetails(ctx context.Context, externalID string) (*model.Community, error)
	// FindPosts returns the community with its top-level threads populated,
	// replies included with minimal author data.
	FindPosts(ctx context.Context, externalID string) (*model.Community, error)
	FindAll(ctx context.Context, search string, offset, limit int) ([]*model.Community, int64, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Community, error) {
	var community model.Community
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindDetails(ctx context.Context, externalID string) (*model.Community, error) {
	var community model.Community
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("CreatedBy").
		Where("external_id = ?", externalID).
		First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindPosts(ctx context.Context, externalID string) (*model.Community, error) {
	var community model.Community
	err := r.db.WithContext(ctx).
		Preload("Threads", func(db *gorm.DB) *gorm.DB {
			return db.Where("parent_id IS NULL").Order("created_at DESC")
		}).
		Preload("Threads.Author").
		Preload("Threads.Children", childrenAsc).
		Preload("Threads.Children.Author", replyAuthor).
		Where("external_id = ?", externalID).
		First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindAll(ctx context.Context, search string, offset, limit int) ([]*model.Community, int64, error) {
	var communities []*model.Community
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Community{})

	if search != "" {
		query = query.Where("name ILIKE ? OR username ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&communities).Error; err != nil {
		return nil, 0, err
	}

	return communities, total, nil
}
