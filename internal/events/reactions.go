package events

import (
	"gorm.io/gorm"

	"github.com/innotter/backend/internal/models"
	"github.com/innotter/backend/internal/notify"
	"github.com/innotter/backend/internal/stats"
)

// RegisterReactions wires the default cascading effects onto the bus.
// Reactions are intentionally decoupled from the triggering transaction:
// each runs after commit and its failure is swallowed by the bus.
func RegisterReactions(bus *Bus, db *gorm.DB, notifier notify.Notifier, producer stats.Producer) {
	bus.Subscribe(UserSaved, cascadeOwnerBlock(db))
	bus.Subscribe(PostCreated, notifyFollowers(db, notifier))
	bus.Subscribe(PageCreated, registerPageStats(producer))
	bus.Subscribe(PostCreated, reportPostCount(db, producer))
	bus.Subscribe(LikesChanged, reportLikeTotal(db, producer))
	bus.Subscribe(FollowersChanged, reportFollowerCount(db, producer))
}

// cascadeOwnerBlock mirrors the owner's blocked flag onto every page they
// own. An owner block overwrites any admin-set unblock timer; an owner
// unblock clears it just the same.
func cascadeOwnerBlock(db *gorm.DB) HandlerFunc {
	return func(e Event) error {
		return db.Model(&models.Page{}).
			Where("owner_id = ?", e.User.ID).
			Updates(map[string]any{"is_blocked": e.User.IsBlocked, "unblock_date": nil}).Error
	}
}

// notifyFollowers enqueues one delivery job per current follower of the
// post's page. Dispatch is isolated per follower downstream.
func notifyFollowers(db *gorm.DB, notifier notify.Notifier) HandlerFunc {
	return func(e Event) error {
		var followers []models.User
		if err := db.Model(e.Page).Association("Followers").Find(&followers); err != nil {
			return err
		}

		payload := notify.NewPost{
			PostID:        e.Post.ID,
			PageID:        e.Page.ID,
			Content:       e.Post.Content,
			OwnerUsername: e.Page.Owner.Username,
		}
		for _, f := range followers {
			notifier.Enqueue(notify.Job{Username: f.Username, Email: f.Email, Post: payload})
		}
		return nil
	}
}

func registerPageStats(producer stats.Producer) HandlerFunc {
	return func(e Event) error {
		return producer.Publish(map[string]any{
			"owner_id":  e.Page.OwnerID,
			"page_id":   e.Page.ID,
			"posts":     0,
			"followers": 0,
			"likes":     0,
		})
	}
}

func reportPostCount(db *gorm.DB, producer stats.Producer) HandlerFunc {
	return func(e Event) error {
		var posts int64
		if err := db.Model(&models.Post{}).Where("page_id = ?", e.Page.ID).Count(&posts).Error; err != nil {
			return err
		}
		return producer.Publish(map[string]any{
			"owner_id": e.Page.OwnerID,
			"page_id":  e.Page.ID,
			"posts":    posts,
		})
	}
}

// reportLikeTotal recomputes the aggregate like count across all of the
// page's posts, not just the post whose like set changed.
func reportLikeTotal(db *gorm.DB, producer stats.Producer) HandlerFunc {
	return func(e Event) error {
		var likes int64
		err := db.Table("post_likes").
			Joins("JOIN posts ON posts.id = post_likes.post_id").
			Where("posts.page_id = ?", e.Page.ID).
			Count(&likes).Error
		if err != nil {
			return err
		}
		return producer.Publish(map[string]any{
			"owner_id": e.Page.OwnerID,
			"page_id":  e.Page.ID,
			"likes":    likes,
		})
	}
}

func reportFollowerCount(db *gorm.DB, producer stats.Producer) HandlerFunc {
	return func(e Event) error {
		var followers int64
		if err := db.Table("page_followers").Where("page_id = ?", e.Page.ID).Count(&followers).Error; err != nil {
			return err
		}
		return producer.Publish(map[string]any{
			"owner_id":  e.Page.OwnerID,
			"page_id":   e.Page.ID,
			"followers": followers,
		})
	}
}
