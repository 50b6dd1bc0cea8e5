package events

import (
	"context"
	"errors"
	"sync"
)

var ErrBrokerClosed = errors.New("broker closed")

type LocalBroker struct {
	mu          sync.Mutex
	subscribers map[int]*localSub
	nextID      int
	closed      bool
}

type localSub struct {
	ch   chan Event
	once sync.Once
}

func (s *localSub) close() {
	s.once.Do(func() { close(s.ch) })
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subscribers: make(map[int]*localSub)}
}

func (b *LocalBroker) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := &localSub{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subscribers[id] = sub
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			sub.close()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return sub.ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (b *LocalBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		sub.close()
	}
	return nil
}
