// Package subscriptions implements the follow/request/approve state machine
// between users and pages.
//
// States per (user, page) pair: none, requested (private pages only),
// following. A user is never in both the follower and the request relation at
// once; the "following" check short-circuits the "requested" check in both
// directions so a defensively-inconsistent pair resolves toward the follower
// relation.
package subscriptions

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/innotter/backend/internal/events"
	"github.com/innotter/backend/internal/models"
)

type State string

const (
	StateNone      State = "none"
	StateRequested State = "requested"
	StateFollowing State = "following"
)

var (
	ErrSelfFollow         = errors.New("you cannot subscribe to yourself")
	ErrAlreadyFollowing   = errors.New("you have already subscribed to the page")
	ErrRequestAlreadySent = errors.New("your subscription request has already been sent")
	ErrNotSubscribed      = errors.New("you have not subscribed to the page")
	ErrNotPageOwner       = errors.New("you are not allowed to perform this action")
)

type Manager struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewManager(db *gorm.DB, bus *events.Bus) *Manager {
	return &Manager{db: db, bus: bus}
}

// StateOf resolves the subscription state of a user relative to a page.
func (m *Manager) StateOf(page *models.Page, userID uuid.UUID) (State, error) {
	n, err := m.countRelation("page_followers", page.ID, userID)
	if err != nil {
		return StateNone, err
	}
	if n > 0 {
		return StateFollowing, nil
	}

	n, err = m.countRelation("page_follow_requests", page.ID, userID)
	if err != nil {
		return StateNone, err
	}
	if n > 0 {
		return StateRequested, nil
	}
	return StateNone, nil
}

// Follow subscribes the user to a public page, or files a follow request on a
// private one. A duplicate call reports the existing state instead of
// changing anything.
func (m *Manager) Follow(user *models.User, page *models.Page) (State, error) {
	if user.ID == page.OwnerID {
		return StateNone, ErrSelfFollow
	}

	state, err := m.StateOf(page, user.ID)
	if err != nil {
		return StateNone, err
	}
	switch state {
	case StateFollowing:
		return StateFollowing, ErrAlreadyFollowing
	case StateRequested:
		return StateRequested, ErrRequestAlreadySent
	}

	if page.IsPrivate {
		if err := m.db.Model(page).Association("FollowRequests").Append(user); err != nil {
			return StateNone, err
		}
		return StateRequested, nil
	}

	if err := m.db.Model(page).Association("Followers").Append(user); err != nil {
		return StateNone, err
	}
	m.bus.Emit(events.Event{Type: events.FollowersChanged, Page: page})
	return StateFollowing, nil
}

// Unfollow removes the user's subscription, or cancels their pending request.
// The returned state is the one that was cleared.
func (m *Manager) Unfollow(user *models.User, page *models.Page) (State, error) {
	state, err := m.StateOf(page, user.ID)
	if err != nil {
		return StateNone, err
	}

	switch state {
	case StateFollowing:
		if err := m.db.Model(page).Association("Followers").Delete(user); err != nil {
			return StateNone, err
		}
		m.bus.Emit(events.Event{Type: events.FollowersChanged, Page: page})
		return StateFollowing, nil
	case StateRequested:
		if err := m.db.Model(page).Association("FollowRequests").Delete(user); err != nil {
			return StateNone, err
		}
		return StateRequested, nil
	}
	return StateNone, ErrNotSubscribed
}

// Accept moves each pending requester in ids into the follower set. Owner
// only. Ids without a pending request are skipped; the whole batch is
// processed either way. Returns how many users were accepted.
func (m *Manager) Accept(actor *models.User, page *models.Page, ids []uuid.UUID) (int, error) {
	if actor.ID != page.OwnerID {
		return 0, ErrNotPageOwner
	}

	users, err := m.pendingRequesters(page, ids)
	if err != nil {
		return 0, err
	}

	accepted := 0
	for i := range users {
		u := &users[i]
		if err := m.db.Model(page).Association("FollowRequests").Delete(u); err != nil {
			return accepted, err
		}
		if err := m.db.Model(page).Association("Followers").Append(u); err != nil {
			return accepted, err
		}
		accepted++
	}

	if accepted > 0 {
		m.bus.Emit(events.Event{Type: events.FollowersChanged, Page: page})
	}
	return accepted, nil
}

// Reject drops each pending requester in ids without adding them to the
// follower set. Owner only.
func (m *Manager) Reject(actor *models.User, page *models.Page, ids []uuid.UUID) (int, error) {
	if actor.ID != page.OwnerID {
		return 0, ErrNotPageOwner
	}

	users, err := m.pendingRequesters(page, ids)
	if err != nil {
		return 0, err
	}

	rejected := 0
	for i := range users {
		if err := m.db.Model(page).Association("FollowRequests").Delete(&users[i]); err != nil {
			return rejected, err
		}
		rejected++
	}
	return rejected, nil
}

// Followers lists the page's current followers.
func (m *Manager) Followers(page *models.Page) ([]models.User, error) {
	var users []models.User
	err := m.db.Model(page).Association("Followers").Find(&users)
	return users, err
}

// Requests lists pending follow requests. Owner only.
func (m *Manager) Requests(actor *models.User, page *models.Page) ([]models.User, error) {
	if actor.ID != page.OwnerID {
		return nil, ErrNotPageOwner
	}
	var users []models.User
	err := m.db.Model(page).Association("FollowRequests").Find(&users)
	return users, err
}

func (m *Manager) countRelation(table string, pageID, userID uuid.UUID) (int64, error) {
	var n int64
	err := m.db.Table(table).
		Where("page_id = ? AND user_id = ?", pageID, userID).
		Count(&n).Error
	return n, err
}

func (m *Manager) pendingRequesters(page *models.Page, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := m.db.
		Joins("JOIN page_follow_requests pfr ON pfr.user_id = users.id AND pfr.page_id = ?", page.ID).
		Where("users.id IN ?", ids).
		Find(&users).Error
	return users, err
}
