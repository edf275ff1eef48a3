package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Thread is a post. A thread with a nil ParentID is a top-level post and
// shows up in the feed; a thread with ParentID set is a reply to that parent.
// Children is the inverse of ParentID, so a reply is always reachable from
// its parent and vice versa.
type Thread struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	AuthorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      User       `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	CommunityID *uuid.UUID `gorm:"type:uuid;index" json:"community_id,omitempty"`
	Community   *Community `gorm:"constraint:OnDelete:SET NULL" json:"community,omitempty"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Children    []*Thread  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"children,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (t *Thread) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}
