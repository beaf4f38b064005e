package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPostContentLength bounds post content, matching the column size.
const MaxPostContentLength = 180

// Post belongs to exactly one page. ReplyToID is a weak self-reference:
// deleting the target nulls it out, nothing else cascades. Acyclicity is
// assumed, not enforced.
type Post struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PageID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"page_id"`
	Page      Page       `gorm:"foreignKey:PageID" json:"-"`
	Content   string     `gorm:"size:180;not null" json:"content"`
	ReplyToID *uuid.UUID `gorm:"type:uuid;index" json:"reply_to"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Likes []User `gorm:"many2many:post_likes" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
