package notify

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	fails map[string]bool
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails[to] {
		return errors.New("relay refused")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.to
	}
	return out
}

func testJob(username, email string) Job {
	return Job{
		Username: username,
		Email:    email,
		Post: NewPost{
			PostID:        uuid.New(),
			PageID:        uuid.New(),
			Content:       "fresh content",
			OwnerUsername: "author",
		},
	}
}

func TestDispatcherDeliversJobs(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, 2, 8)

	d.Enqueue(testJob("alice", "alice@example.com"))
	d.Enqueue(testJob("bob", "bob@example.com"))
	d.Stop()

	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, mailer.recipients())
}

func TestDispatcherMessageFormat(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, 1, 1)

	job := testJob("alice", "alice@example.com")
	d.Enqueue(job)
	d.Stop()

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, "Dear alice!", mail.subject)
	assert.Contains(t, mail.body, "author just published a new post!")
	assert.Contains(t, mail.body, "fresh content")
	assert.Contains(t, mail.body, job.Post.PageID.String())
	assert.Contains(t, mail.body, job.Post.PostID.String())
}

func TestFailedSendDoesNotStopOtherDeliveries(t *testing.T) {
	mailer := &fakeMailer{fails: map[string]bool{"broken@example.com": true}}
	d := NewDispatcher(mailer, 1, 8)

	d.Enqueue(testJob("broken", "broken@example.com"))
	d.Enqueue(testJob("alice", "alice@example.com"))
	d.Stop()

	assert.Equal(t, []string{"alice@example.com"}, mailer.recipients())
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	mailer := &fakeMailer{}

	// No workers, so the buffer never drains and the second enqueue must
	// take the drop path without blocking.
	d := &Dispatcher{jobs: make(chan Job, 1), mailer: mailer}
	d.Enqueue(testJob("first", "first@example.com"))

	done := make(chan struct{})
	go func() {
		d.Enqueue(testJob("second", "second@example.com"))
		close(done)
	}()
	<-done

	assert.Len(t, d.jobs, 1)
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&fakeMailer{}, 1, 1)
	d.Stop()
	assert.NotPanics(t, func() { d.Stop() })
}
