package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors the identity provider's account. ExternalID is the provider's
// stable user identifier; ID is ours. Onboarded stays false until the profile
// form has been completed once.
type User struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID  string       `gorm:"size:64;uniqueIndex;not null" json:"external_id"`
	Username    string       `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	Bio         *string      `gorm:"type:text" json:"bio,omitempty"`
	Image       *string      `gorm:"type:text" json:"image,omitempty"`
	Onboarded   bool         `gorm:"default:false" json:"onboarded"`
	Threads     []*Thread    `gorm:"foreignKey:AuthorID" json:"threads,omitempty"`
	Communities []*Community `gorm:"many2many:community_members" json:"communities,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
