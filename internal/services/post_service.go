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
	ErrPostNotFound   = errors.New("post not found")
	ErrContentTooLong = errors.New("post content exceeds maximum length")
	ErrLikeOwnPost    = errors.New("you cannot like a post that you own")
	ErrNotLiked       = errors.New("you have not liked this post")
)

type PostService struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewPostService(db *gorm.DB, bus *events.Bus) *PostService {
	return &PostService{db: db, bus: bus}
}

func (s *PostService) Get(id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Page").Preload("Page.Owner").First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostService) ListForPage(pageID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.Where("page_id = ?", pageID).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// Create writes the post, then hands off follower notification and the stats
// update to the reaction pipeline. The page must come in with its owner
// loaded; authorization happens at the boundary.
func (s *PostService) Create(page *models.Page, content string, replyTo *uuid.UUID) (*models.Post, error) {
	if len(content) > models.MaxPostContentLength {
		return nil, ErrContentTooLong
	}

	post := models.Post{
		PageID:    page.ID,
		Content:   content,
		ReplyToID: replyTo,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.bus.Emit(events.Event{Type: events.PostCreated, Post: &post, Page: page})
	return &post, nil
}

// Reply creates a post on the actor's page threaded under parent. The parent
// reference is weak: it may point at any post, including one on a page the
// actor doesn't follow.
func (s *PostService) Reply(page *models.Page, parent *models.Post, content string) (*models.Post, error) {
	return s.Create(page, content, &parent.ID)
}

func (s *PostService) Update(post *models.Post, content string) (*models.Post, error) {
	if len(content) > models.MaxPostContentLength {
		return nil, ErrContentTooLong
	}
	if err := s.db.Model(post).Update("content", content).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes the post, detaching likes and nulling any replies that
// pointed at it.
func (s *PostService) Delete(post *models.Post) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		tx.Exec("DELETE FROM post_likes WHERE post_id = ?", post.ID)
		if err := tx.Model(&models.Post{}).
			Where("reply_to_id = ?", post.ID).
			Update("reply_to_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

// Like adds the actor to the post's like set. The owning page's owner cannot
// like their own posts; a repeated like is a no-op on the relation.
func (s *PostService) Like(actor *models.User, post *models.Post) error {
	if actor.ID == post.Page.OwnerID {
		return ErrLikeOwnPost
	}
	if err := s.db.Model(post).Association("Likes").Append(actor); err != nil {
		return err
	}
	s.bus.Emit(events.Event{Type: events.LikesChanged, Page: &post.Page, Post: post})
	return nil
}

// Unlike removes the actor from the like set; denied unless they are a
// current liker.
func (s *PostService) Unlike(actor *models.User, post *models.Post) error {
	liked, err := s.IsLiker(actor.ID, post.ID)
	if err != nil {
		return err
	}
	if !liked {
		return ErrNotLiked
	}
	if err := s.db.Model(post).Association("Likes").Delete(actor); err != nil {
		return err
	}
	s.bus.Emit(events.Event{Type: events.LikesChanged, Page: &post.Page, Post: post})
	return nil
}

// IsLiker reports whether the user is in the post's like set.
func (s *PostService) IsLiker(userID, postID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.Table("post_likes").
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	return n > 0, err
}
