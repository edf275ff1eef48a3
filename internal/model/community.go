package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Community is provisioned externally (identity provider organizations) and
// read-only here. ExternalID is the provider's organization identifier, used
// to resolve the community when a thread is posted into it.
type Community struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID  string     `gorm:"size:64;uniqueIndex;not null" json:"external_id"`
	Username    string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Image       *string    `gorm:"type:text" json:"image,omitempty"`
	Bio         *string    `gorm:"type:text" json:"bio,omitempty"`
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Threads     []*Thread  `gorm:"foreignKey:CommunityID" json:"threads,omitempty"`
	Members     []*User    `gorm:"many2many:community_members" json:"members,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
