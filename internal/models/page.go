package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page is a user-owned content stream. The uuid primary key doubles as the
// page's public immutable identifier.
//
// Invariant: a user is never in both Followers and FollowRequests at once.
// FollowRequests only grow while IsPrivate is true; flipping a page public
// does not purge pending requests.
type Page struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:80;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Image       string     `gorm:"size:200" json:"image"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       User       `gorm:"foreignKey:OwnerID" json:"-"`
	IsPrivate   bool       `gorm:"not null;default:false" json:"is_private"`
	IsBlocked   bool       `gorm:"not null;default:false" json:"is_blocked"`
	UnblockDate *time.Time `json:"unblock_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Tags           []Tag  `gorm:"many2many:page_tags" json:"tags"`
	Followers      []User `gorm:"many2many:page_followers" json:"-"`
	FollowRequests []User `gorm:"many2many:page_follow_requests" json:"-"`
	Posts          []Post `gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE" json:"-"`
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
