package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/innotter/backend/internal/models"
	"github.com/innotter/backend/internal/notify"
)

type captureNotifier struct {
	jobs []notify.Job
}

func (n *captureNotifier) Enqueue(job notify.Job) {
	n.jobs = append(n.jobs, job)
}

type captureProducer struct {
	published []map[string]any
}

func (p *captureProducer) Publish(body any) error {
	m, ok := body.(map[string]any)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", body)
	}
	p.published = append(p.published, m)
	return nil
}

// lastWith returns the most recent payload carrying the given key.
func (p *captureProducer) lastWith(key string) map[string]any {
	for i := len(p.published) - 1; i >= 0; i-- {
		if _, ok := p.published[i][key]; ok {
			return p.published[i]
		}
	}
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Tag{}, &models.Page{}, &models.Post{}))
	return db
}

type fixture struct {
	db       *gorm.DB
	bus      *Bus
	notifier *captureNotifier
	producer *captureProducer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       openTestDB(t),
		bus:      NewBus(),
		notifier: &captureNotifier{},
		producer: &captureProducer{},
	}
	RegisterReactions(f.bus, f.db, f.notifier, f.producer)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) page(t *testing.T, owner *models.User) *models.Page {
	t.Helper()
	p := &models.Page{Name: "stream", OwnerID: owner.ID, Owner: *owner}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func TestOwnerBlockCascadesToPages(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	f.page(t, owner)
	second := f.page(t, owner)

	// An admin-set timer on one of the pages must be overwritten.
	deadline := time.Now().Add(24 * time.Hour)
	require.NoError(t, f.db.Model(second).Updates(map[string]any{
		"is_blocked": true, "unblock_date": deadline,
	}).Error)

	owner.IsBlocked = true
	f.bus.Emit(Event{Type: UserSaved, User: owner})

	var pages []models.Page
	require.NoError(t, f.db.Where("owner_id = ?", owner.ID).Find(&pages).Error)
	require.Len(t, pages, 2)
	for _, p := range pages {
		assert.True(t, p.IsBlocked)
		assert.Nil(t, p.UnblockDate)
	}
}

func TestOwnerUnblockCascadesToPages(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)
	deadline := time.Now().Add(time.Hour)
	require.NoError(t, f.db.Model(page).Updates(map[string]any{
		"is_blocked": true, "unblock_date": deadline,
	}).Error)

	owner.IsBlocked = false
	f.bus.Emit(Event{Type: UserSaved, User: owner})

	var got models.Page
	require.NoError(t, f.db.First(&got, "id = ?", page.ID).Error)
	assert.False(t, got.IsBlocked)
	assert.Nil(t, got.UnblockDate)
}

func TestNewPostNotifiesEachFollowerOnce(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	require.NoError(t, f.db.Model(page).Association("Followers").Append(alice, bob))

	post := &models.Post{PageID: page.ID, Content: "hello"}
	require.NoError(t, f.db.Create(post).Error)

	f.bus.Emit(Event{Type: PostCreated, Post: post, Page: page})

	require.Len(t, f.notifier.jobs, 2)
	emails := []string{f.notifier.jobs[0].Email, f.notifier.jobs[1].Email}
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, emails)
	for _, job := range f.notifier.jobs {
		assert.Equal(t, post.ID, job.Post.PostID)
		assert.Equal(t, page.ID, job.Post.PageID)
		assert.Equal(t, "hello", job.Post.Content)
		assert.Equal(t, "owner", job.Post.OwnerUsername)
	}
}

func TestNewPostWithoutFollowersNotifiesNobody(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)
	post := &models.Post{PageID: page.ID, Content: "quiet"}
	require.NoError(t, f.db.Create(post).Error)

	f.bus.Emit(Event{Type: PostCreated, Post: post, Page: page})
	assert.Empty(t, f.notifier.jobs)
}

func TestPageCreatedRegistersZeroedStats(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)

	f.bus.Emit(Event{Type: PageCreated, Page: page})

	require.Len(t, f.producer.published, 1)
	payload := f.producer.published[0]
	assert.Equal(t, page.ID, payload["page_id"])
	assert.Equal(t, page.OwnerID, payload["owner_id"])
	assert.Equal(t, 0, payload["posts"])
	assert.Equal(t, 0, payload["followers"])
	assert.Equal(t, 0, payload["likes"])
}

func TestPostCreatedReportsPostCount(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.db.Create(&models.Post{PageID: page.ID, Content: "n"}).Error)
	}

	post := &models.Post{PageID: page.ID, Content: "latest"}
	require.NoError(t, f.db.Create(post).Error)
	f.bus.Emit(Event{Type: PostCreated, Post: post, Page: page})

	payload := f.producer.lastWith("posts")
	require.NotNil(t, payload)
	assert.Equal(t, int64(4), payload["posts"])
}

func TestLikesChangedReportsPageWideTotal(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	first := &models.Post{PageID: page.ID, Content: "a"}
	second := &models.Post{PageID: page.ID, Content: "b"}
	require.NoError(t, f.db.Create(first).Error)
	require.NoError(t, f.db.Create(second).Error)
	require.NoError(t, f.db.Model(first).Association("Likes").Append(alice, bob))
	require.NoError(t, f.db.Model(second).Association("Likes").Append(alice))

	f.bus.Emit(Event{Type: LikesChanged, Post: second, Page: page})

	payload := f.producer.lastWith("likes")
	require.NotNil(t, payload)
	assert.Equal(t, int64(3), payload["likes"])
}

func TestFollowersChangedReportsCount(t *testing.T) {
	f := newFixture(t)

	owner := f.user(t, "owner")
	page := f.page(t, owner)
	require.NoError(t, f.db.Model(page).Association("Followers").Append(f.user(t, "alice")))

	f.bus.Emit(Event{Type: FollowersChanged, Page: page})

	payload := f.producer.lastWith("followers")
	require.NotNil(t, payload)
	assert.Equal(t, int64(1), payload["followers"])
}
