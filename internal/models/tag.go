package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is created lazily when first referenced by name.
type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:30;not null;uniqueIndex" json:"name"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
