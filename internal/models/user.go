package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles form a closed set; there is no hierarchy beyond these three values.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:9;not null;default:'user'" json:"role"`
	Title     string    `gorm:"size:80" json:"title"`
	IsBlocked bool      `gorm:"not null;default:false" json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pages []Page `gorm:"foreignKey:OwnerID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAuthority reports whether the user holds a moderation role.
func (u *User) IsAuthority() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}
