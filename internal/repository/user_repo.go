package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadnest/api/internal/model"
)

type UserRepository interface {
	// Upsert inserts the user or, when a row with the same ExternalID already
	// exists, updates its mutable profile fields in place.
	Upsert(ctx context.Context, user *model.User) error
	// FindByExternalID returns the user with Communities populated, or
	// (nil, nil) when absent.
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)
	// FindWithThreads returns the user with their authored top-level threads
	// populated, each thread carrying its replies with minimal author data.
	FindWithThreads(ctx context.Context, externalID string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Upsert's RETURNING clause writes the persisted row id back into user, so on
// the conflict-update branch the caller holds the existing row's id rather
// than the provisional one assigned in BeforeCreate.
func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"username", "name", "bio", "image", "onboarded",
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "id"}}},
		).
		Create(user).Error
}

func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Communities").
		Where("external_id = ?", externalID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindWithThreads(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Threads", func(db *gorm.DB) *gorm.DB {
			return db.Where("parent_id IS NULL").Order("created_at DESC")
		}).
		Preload("Threads.Community").
		Preload("Threads.Children", childrenAsc).
		Preload("Threads.Children.Author", replyAuthor).
		Where("external_id = ?", externalID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
