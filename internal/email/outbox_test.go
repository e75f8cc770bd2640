package email

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []Message
	failures int
}

func (r *recordingSender) Send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return fmt.Errorf("simulated smtp failure")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestOutboxDeliversEnqueuedMail(t *testing.T) {
	sender := &recordingSender{}
	outbox := NewOutbox(sender, zap.NewNop(), 8)
	outbox.Start(1)

	outbox.Enqueue("test", Message{To: "a@example.com", Subject: "one"})
	outbox.Enqueue("test", Message{To: "b@example.com", Subject: "two"})
	outbox.Close()

	assert.Equal(t, 2, sender.count())
}

func TestOutboxRetriesTransientFailures(t *testing.T) {
	sender := &recordingSender{failures: 2}
	outbox := NewOutbox(sender, zap.NewNop(), 8)
	outbox.Start(1)

	outbox.Enqueue("test", Message{To: "a@example.com", Subject: "flaky"})
	outbox.Close()

	assert.Equal(t, 1, sender.count())
}

func TestOutboxDropsWhenFull(t *testing.T) {
	sender := &recordingSender{}
	outbox := NewOutbox(sender, zap.NewNop(), 1)
	// no workers started: the buffer fills and overflow is dropped

	outbox.Enqueue("test", Message{To: "a@example.com"})
	outbox.Enqueue("test", Message{To: "b@example.com"})

	outbox.Start(1)
	outbox.Close()

	assert.Equal(t, 1, sender.count())
}
