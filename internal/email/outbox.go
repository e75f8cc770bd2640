package email

import (
	"sync"

	"go.uber.org/zap"

	"agency-backend/internal/retry"
)

type task struct {
	name string
	msg  Message
}

// Outbox decouples request handling from SMTP latency: handlers enqueue,
// background workers send with bounded retry. Failures are logged, never
// surfaced to the caller.
type Outbox struct {
	sender Sender
	logger *zap.Logger
	tasks  chan task

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewOutbox(sender Sender, logger *zap.Logger, buffer int) *Outbox {
	if buffer <= 0 {
		buffer = 256
	}
	return &Outbox{
		sender: sender,
		logger: logger,
		tasks:  make(chan task, buffer),
	}
}

func (o *Outbox) Start(workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.run()
	}
}

// Enqueue schedules a message. When the buffer is full the message is
// dropped and logged rather than blocking the request path.
func (o *Outbox) Enqueue(name string, msg Message) {
	select {
	case o.tasks <- task{name: name, msg: msg}:
	default:
		o.logger.Error("email outbox full, dropping message",
			zap.String("email", name),
			zap.String("to", msg.To))
	}
}

// Close stops accepting work and waits for in-flight sends to finish.
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		close(o.tasks)
	})
	o.wg.Wait()
}

func (o *Outbox) run() {
	defer o.wg.Done()
	for t := range o.tasks {
		msg := t.msg
		err := retry.Do(retry.DefaultAttempts, retry.DefaultDelay, func() error {
			return o.sender.Send(msg)
		})
		if err != nil {
			o.logger.Error("failed to send email",
				zap.String("email", t.name),
				zap.String("to", msg.To),
				zap.Error(err))
			continue
		}
		o.logger.Info("email sent",
			zap.String("email", t.name),
			zap.String("to", msg.To))
	}
}
