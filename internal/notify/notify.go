// Package notify delivers new-post emails to page followers. Dispatch is
// asynchronous and per-recipient: a failed send is logged and never surfaces
// to the request that created the post.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// NewPost is the notification payload built when a post is created.
type NewPost struct {
	PostID        uuid.UUID
	PageID        uuid.UUID
	Content       string
	OwnerUsername string
}

// Job is one per-follower delivery.
type Job struct {
	Username string
	Email    string
	Post     NewPost
}

// Mailer sends a single message.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through an SMTP relay via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// Notifier accepts jobs for asynchronous delivery.
type Notifier interface {
	Enqueue(job Job)
}

// Dispatcher fans jobs out to a fixed pool of sender goroutines.
type Dispatcher struct {
	jobs   chan Job
	mailer Mailer
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(mailer Mailer, workers, buffer int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		jobs:   make(chan Job, buffer),
		mailer: mailer,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue hands a job to the pool without blocking the caller. When the
// buffer is full the job is dropped and logged; notification delivery is
// best-effort by contract.
func (d *Dispatcher) Enqueue(job Job) {
	select {
	case d.jobs <- job:
	default:
		slog.Error("notification queue full, dropping job", "recipient", job.Email)
	}
}

// Stop drains outstanding jobs and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		subject := fmt.Sprintf("Dear %s!", job.Username)
		body := fmt.Sprintf(
			"%s just published a new post!\nWhat do they write about? %s\nCheck it out at /pages/%s/posts/%s/\n",
			job.Post.OwnerUsername, job.Post.Content, job.Post.PageID, job.Post.PostID,
		)
		if err := d.mailer.Send(job.Email, subject, body); err != nil {
			slog.Error("notification send failed", "recipient", job.Email, "post_id", job.Post.PostID, "error", err)
		}
	}
}
