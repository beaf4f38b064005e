package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/innotter/backend/internal/events"
	"github.com/innotter/backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidFieldValue = errors.New("invalid field value")
)

type UserService struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewUserService(db *gorm.DB, bus *events.Bus) *UserService {
	return &UserService{db: db, bus: bus}
}

func (s *UserService) Get(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("username").Find(&users).Error
	return users, err
}

// Update applies an already-authorized partial update. Field names follow the
// JSON representation; anything outside the known set is rejected here as a
// second line of defense behind the permission engine.
func (s *UserService) Update(user *models.User, fields map[string]any) (*models.User, error) {
	for name, value := range fields {
		switch name {
		case "username":
			v, ok := value.(string)
			if !ok || v == "" {
				return nil, fmt.Errorf("%w: username", ErrInvalidFieldValue)
			}
			user.Username = v
		case "email":
			v, ok := value.(string)
			if !ok || v == "" {
				return nil, fmt.Errorf("%w: email", ErrInvalidFieldValue)
			}
			user.Email = v
		case "is_blocked":
			v, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: is_blocked", ErrInvalidFieldValue)
			}
			user.IsBlocked = v
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidFieldValue, name)
		}
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}

	// The blocked flag cascades onto owned pages via the reaction pipeline.
	s.bus.Emit(events.Event{Type: events.UserSaved, User: user})
	return user, nil
}

func (s *UserService) Delete(id uuid.UUID) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		tx.Where("user_id = ?", id).Delete(&models.RefreshToken{})
		tx.Exec("DELETE FROM page_followers WHERE user_id = ?", id)
		tx.Exec("DELETE FROM page_follow_requests WHERE user_id = ?", id)
		tx.Exec("DELETE FROM post_likes WHERE user_id = ?", id)
		return tx.Delete(user).Error
	})
}

// LikedPosts lists every post the user has liked.
func (s *UserService) LikedPosts(userID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.
		Joins("JOIN post_likes ON post_likes.post_id = posts.id").
		Where("post_likes.user_id = ?", userID).
		Order("posts.created_at DESC").
		Find(&posts).Error
	return posts, err
}

// NewsFeed returns posts from pages the user follows plus their own pages,
// newest first.
func (s *UserService) NewsFeed(user *models.User) ([]models.Post, error) {
	followed := s.db.Table("page_followers").Select("page_id").Where("user_id = ?", user.ID)

	var posts []models.Post
	err := s.db.
		Joins("JOIN pages ON pages.id = posts.page_id").
		Where("pages.owner_id = ? OR posts.page_id IN (?)", user.ID, followed).
		Order("posts.created_at DESC").
		Find(&posts).Error
	return posts, err
}

// Search matches users by username or title, case-insensitive substring.
func (s *UserService) Search(query string) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := s.db.
		Where("username LIKE ? OR title LIKE ?", pattern, pattern).
		Order("username").
		Find(&users).Error
	return users, err
}
