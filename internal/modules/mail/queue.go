package mail

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, m Message) error
}

// QueueSender hands messages to a Publisher on a background goroutine.
type QueueSender struct {
	publisher Publisher
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewQueueSender(p Publisher, timeout time.Duration) *QueueSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &QueueSender{publisher: p, timeout: timeout, now: time.Now}
}

func (s *QueueSender) SendConfirmationMail(_ context.Context, email string, token uuid.UUID) {
	s.enqueue(Message{Kind: KindMailConfirmation, Email: email, Token: token})
}

func (s *QueueSender) SendResetPasswordMail(_ context.Context, email string, token uuid.UUID) {
	s.enqueue(Message{Kind: KindResetPassword, Email: email, Token: token})
}

// Wait blocks until every pending publish has finished.
func (s *QueueSender) Wait() {
	s.wg.Wait()
}

// The request context is not reused: the publish outlives the request.
func (s *QueueSender) enqueue(m Message) {
	m.CreatedAt = s.now().UTC()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, m); err != nil {
			log.Printf("mail: publish failed kind=%s email=%s err=%v", m.Kind, m.Email, err)
		}
	}()
}
