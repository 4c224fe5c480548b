package events

import (
	"context"
	"log"
	"sync"

	"microblog/internal/domain"
)

// PostCreated is published after a post and its attachments are committed.
// Handlers may receive a stale copy of the post; they are expected to
// re-fetch by ID.
type PostCreated struct {
	Post *domain.Post
}

// PostCreatedHandler processes one delivery. Returning an error triggers
// redelivery up to the bus attempt limit; retry policy beyond that belongs
// to the dispatcher, never to the handler.
type PostCreatedHandler func(ctx context.Context, evt PostCreated) error

const (
	defaultQueueSize   = 64
	defaultMaxAttempts = 3
)

// Bus dispatches PostCreated signals to subscribed handlers with
// at-least-once delivery. In async mode a worker drains a buffered queue;
// sync mode dispatches inline, which tests and single-process setups use.
type Bus struct {
	mu       sync.RWMutex
	handlers []PostCreatedHandler

	sync        bool
	maxAttempts int
	queue       chan delivery
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

type delivery struct {
	evt     PostCreated
	attempt int
}

func NewBus(synchronous bool) *Bus {
	b := &Bus{
		sync:        synchronous,
		maxAttempts: defaultMaxAttempts,
		queue:       make(chan delivery, defaultQueueSize),
		done:        make(chan struct{}),
	}
	if !synchronous {
		b.wg.Add(1)
		go b.run()
	}
	return b
}

func (b *Bus) SubscribePostCreated(h PostCreatedHandler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish hands the event to subscribers. In sync mode the first handler
// error is returned to the caller; in async mode Publish only enqueues.
func (b *Bus) Publish(ctx context.Context, evt PostCreated) error {
	if b.sync {
		return b.dispatch(ctx, evt)
	}
	select {
	case b.queue <- delivery{evt: evt, attempt: 1}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}

func (b *Bus) run() {
	defer b.wg.Done()
	for {
		select {
		case d := <-b.queue:
			if err := b.dispatch(context.Background(), d.evt); err != nil {
				b.redeliver(d, err)
			}
		case <-b.done:
			return
		}
	}
}

func (b *Bus) redeliver(d delivery, err error) {
	postID := ""
	if d.evt.Post != nil {
		postID = d.evt.Post.ID
	}
	if d.attempt >= b.maxAttempts {
		log.Printf("event_dropped event=post_created post_id=%s attempts=%d error=%q", postID, d.attempt, err)
		return
	}
	log.Printf("event_redelivery event=post_created post_id=%s attempt=%d error=%q", postID, d.attempt, err)
	d.attempt++
	select {
	case b.queue <- d:
	case <-b.done:
	}
}

func (b *Bus) dispatch(ctx context.Context, evt PostCreated) error {
	b.mu.RLock()
	handlers := make([]PostCreatedHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
