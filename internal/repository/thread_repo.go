package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadnest/api/internal/model"
)

type ThreadRepository interface {
	Create(ctx context.Context, thread *model.Thread) error
	// FindByID returns the thread with its reply tree resolved exactly two
	// levels deep. A missing id yields (nil, nil), not an error.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Thread, error)
	// Exists reports whether a thread row with the given id is present.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// FindTopLevel returns one feed page of top-level threads (newest first)
	// plus the total count of top-level threads.
	FindTopLevel(ctx context.Context, offset, limit int) ([]*model.Thread, int64, error)
	// FindRepliesTo returns replies other users left on threads authored by
	// the given user, newest first.
	FindRepliesTo(ctx context.Context, authorID uuid.UUID) ([]*model.Thread, error)
}

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *model.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

// replyAuthor limits the populated author of a reply to the minimal display
// projection. The primary key stays in so gorm can stitch the rows together.
func replyAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "image")
}

func childrenAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func (r *threadRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Thread, error) {
	var thread model.Thread
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		Preload("Children", childrenAsc).
		Preload("Children.Author", replyAuthor).
		Preload("Children.Children", childrenAsc).
		Preload("Children.Children.Author", replyAuthor).
		Where("id = ?", id).
		First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Thread{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *threadRepository) FindTopLevel(ctx context.Context, offset, limit int) ([]*model.Thread, int64, error) {
	var threads []*model.Thread
	var total int64

	query := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		Preload("Children", childrenAsc).
		Preload("Children.Author", replyAuthor).
		Where("parent_id IS NULL")

	if err := query.Model(&model.Thread{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error; err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

func (r *threadRepository) FindRepliesTo(ctx context.Context, authorID uuid.UUID) ([]*model.Thread, error) {
	var replies []*model.Thread

	err := r.db.WithContext(ctx).
		Joins("JOIN threads parents ON parents.id = threads.parent_id").
		Where("parents.author_id = ? AND threads.author_id <> ?", authorID, authorID).
		Order("threads.created_at DESC").
		Preload("Author", replyAuthor).
		Find(&replies).Error
	if err != nil {
		return nil, err
	}

	return replies, nil
}
