// Package events is a lightweight in-process event-reaction system. Mutation
// operations emit an event after their write commits; registered reactions run
// best-effort. A failing or panicking reaction is logged and never affects the
// triggering mutation or sibling reactions.
package events

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/innotter/backend/internal/models"
)

type Type string

const (
	UserSaved        Type = "user.saved"
	PageCreated      Type = "page.created"
	PostCreated      Type = "post.created"
	LikesChanged     Type = "post.likes_changed"
	FollowersChanged Type = "page.followers_changed"
)

// Event carries the entities involved in the triggering mutation. Which
// fields are set depends on the type; Page always includes its Owner for
// PostCreated so reactions don't have to re-query it.
type Event struct {
	Type Type
	User *models.User
	Page *models.Page
	Post *models.Post
}

type HandlerFunc func(e Event) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]HandlerFunc
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]HandlerFunc)}
}

func (b *Bus) Subscribe(t Type, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Emit runs every handler registered for the event's type. Handlers are
// independent: one failing does not stop the others, and no error reaches
// the caller.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := safeHandle(h, e); err != nil {
			slog.Error("event handler failed", "event", string(e.Type), "error", err)
		}
	}
}

func safeHandle(h HandlerFunc, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(e)
}
