package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/innotter/backend/internal/events"
	"github.com/innotter/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Tag{}, &models.Page{}, &models.Post{}, &models.RefreshToken{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPage(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Page {
	t.Helper()
	p := &models.Page{Name: name, OwnerID: owner.ID, Owner: *owner}
	require.NoError(t, db.Create(p).Error)
	return p
}

// recordingBus counts emitted events per type without running any reactions.
func recordingBus() (*events.Bus, map[events.Type]int) {
	bus := events.NewBus()
	counts := make(map[events.Type]int)
	for _, typ := range []events.Type{
		events.UserSaved, events.PageCreated, events.PostCreated,
		events.LikesChanged, events.FollowersChanged,
	} {
		typ := typ
		bus.Subscribe(typ, func(e events.Event) error {
			counts[typ]++
			return nil
		})
	}
	return bus, counts
}
