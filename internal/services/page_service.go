package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/innotter/backend/internal/events"
	"github.com/innotter/backend/internal/models"
)

var (
	ErrPageNotFound = errors.New("page not found")
	ErrTagNotFound  = errors.New("tag not found")
)

type PageService struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewPageService(db *gorm.DB, bus *events.Bus) *PageService {
	return &PageService{db: db, bus: bus}
}

func (s *PageService) Get(id uuid.UUID) (*models.Page, error) {
	var page models.Page
	err := s.db.Preload("Tags").Preload("Owner").First(&page, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (s *PageService) List() ([]models.Page, error) {
	var pages []models.Page
	err := s.db.Preload("Tags").Order("created_at DESC").Find(&pages).Error
	return pages, err
}

// Create creates a page owned by the actor, resolving tags by name through
// the lazy upsert, and announces the new page to the stats sink.
func (s *PageService) Create(owner *models.User, name, description string, isPrivate bool, tagNames []string) (*models.Page, error) {
	page := models.Page{
		Name:        name,
		Description: description,
		OwnerID:     owner.ID,
		IsPrivate:   isPrivate,
	}
	if err := s.db.Create(&page).Error; err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if len(tagNames) > 0 {
		if err := s.AddTags(&page, tagNames); err != nil {
			return nil, err
		}
	}

	page.Owner = *owner
	s.bus.Emit(events.Event{Type: events.PageCreated, Page: &page})
	return &page, nil
}

// Update applies an already-authorized field-scoped partial update.
// unblock_date accepts an RFC 3339 string or null.
func (s *PageService) Update(page *models.Page, fields map[string]any) (*models.Page, error) {
	for name, value := range fields {
		switch name {
		case "name":
			v, ok := value.(string)
			if !ok || v == "" {
				return nil, fmt.Errorf("%w: name", ErrInvalidFieldValue)
			}
			page.Name = v
		case "description":
			v, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: description", ErrInvalidFieldValue)
			}
			page.Description = v
		case "image":
			v, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: image", ErrInvalidFieldValue)
			}
			page.Image = v
		case "is_private":
			v, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: is_private", ErrInvalidFieldValue)
			}
			page.IsPrivate = v
		case "is_blocked":
			v, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: is_blocked", ErrInvalidFieldValue)
			}
			page.IsBlocked = v
		case "unblock_date":
			if value == nil {
				page.UnblockDate = nil
				break
			}
			v, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: unblock_date", ErrInvalidFieldValue)
			}
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("%w: unblock_date", ErrInvalidFieldValue)
			}
			page.UnblockDate = &ts
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidFieldValue, name)
		}
	}

	// Save won't write a NULL over a cleared pointer, so update the
	// column set explicitly.
	err := s.db.Model(page).Updates(map[string]any{
		"name":         page.Name,
		"description":  page.Description,
		"image":        page.Image,
		"is_private":   page.IsPrivate,
		"is_blocked":   page.IsBlocked,
		"unblock_date": page.UnblockDate,
	}).Error
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PageService) Delete(page *models.Page) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []uuid.UUID
		if err := tx.Model(&models.Post{}).Where("page_id = ?", page.ID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			tx.Exec("DELETE FROM post_likes WHERE post_id IN ?", postIDs)
			if err := tx.Where("page_id = ?", page.ID).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		tx.Exec("DELETE FROM page_followers WHERE page_id = ?", page.ID)
		tx.Exec("DELETE FROM page_follow_requests WHERE page_id = ?", page.ID)
		tx.Exec("DELETE FROM page_tags WHERE page_id = ?", page.ID)
		return tx.Delete(page).Error
	})
}

// AddTags attaches tags by name, creating missing ones through an atomic
// upsert keyed by the unique name (no check-then-insert race).
func (s *PageService) AddTags(page *models.Page, names []string) error {
	for _, name := range names {
		tag, err := s.upsertTag(name)
		if err != nil {
			return err
		}
		if err := s.db.Model(page).Association("Tags").Append(tag); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTags detaches tags by name; unknown names are skipped.
func (s *PageService) RemoveTags(page *models.Page, names []string) error {
	for _, name := range names {
		var tag models.Tag
		if err := s.db.Where("name = ?", name).First(&tag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if err := s.db.Model(page).Association("Tags").Delete(&tag); err != nil {
			return err
		}
	}
	return nil
}

func (s *PageService) upsertTag(name string) (*models.Tag, error) {
	tag := models.Tag{Name: name}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag).Error
	if err != nil {
		return nil, err
	}
	// On conflict the insert is skipped; fetch the existing row.
	if err := s.db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// Search matches pages by name, id or tag name, case-insensitive substring.
func (s *PageService) Search(query string) ([]models.Page, error) {
	var pages []models.Page
	pattern := "%" + query + "%"
	err := s.db.Preload("Tags").
		Joins("LEFT JOIN page_tags ON page_tags.page_id = pages.id").
		Joins("LEFT JOIN tags ON tags.id = page_tags.tag_id").
		Where("pages.name LIKE ? OR CAST(pages.id AS TEXT) LIKE ? OR tags.name LIKE ?", pattern, pattern, pattern).
		Group("pages.id").
		Find(&pages).Error
	return pages, err
}

// UnblockExpired clears the blocked flag and timer on every page whose
// unblock date has passed. One failing page is logged and skipped; the sweep
// keeps going. Returns how many pages were unblocked.
func (s *PageService) UnblockExpired(now time.Time) (int, error) {
	var pages []models.Page
	err := s.db.
		Where("is_blocked = ? AND unblock_date IS NOT NULL AND unblock_date <= ?", true, now).
		Find(&pages).Error
	if err != nil {
		return 0, err
	}

	unblocked := 0
	for i := range pages {
		page := &pages[i]
		err := s.db.Model(page).Updates(map[string]any{
			"is_blocked":   false,
			"unblock_date": nil,
		}).Error
		if err != nil {
			slog.Error("unblock sweep failed for page", "page_id", page.ID, "error", err)
			continue
		}
		unblocked++
	}
	return unblocked, nil
}
