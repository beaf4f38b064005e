package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitRunsAllHandlers(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.Subscribe(PageCreated, func(e Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe(PageCreated, func(e Event) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Emit(Event{Type: PageCreated})
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEmitOnlyMatchingType(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(UserSaved, func(e Event) error {
		called = true
		return nil
	})

	bus.Emit(Event{Type: PostCreated})
	assert.False(t, called)
}

func TestFailingHandlerDoesNotStopSiblings(t *testing.T) {
	bus := NewBus()

	var calls []string
	bus.Subscribe(PostCreated, func(e Event) error {
		calls = append(calls, "failing")
		return errors.New("boom")
	})
	bus.Subscribe(PostCreated, func(e Event) error {
		calls = append(calls, "survivor")
		return nil
	})

	bus.Emit(Event{Type: PostCreated})
	assert.Equal(t, []string{"failing", "survivor"}, calls)
}

func TestPanickingHandlerIsRecovered(t *testing.T) {
	bus := NewBus()

	survived := false
	bus.Subscribe(LikesChanged, func(e Event) error {
		panic("handler exploded")
	})
	bus.Subscribe(LikesChanged, func(e Event) error {
		survived = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(Event{Type: LikesChanged})
	})
	assert.True(t, survived)
}

func TestEmitWithNoHandlers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Emit(Event{Type: FollowersChanged})
	})
}
