// Package live pushes breaking news to websocket clients.
//
// Broadcasts travel through a Broker so that every server instance fans them
// out to its own clients. Groups are named "<lang>-live".
package live

import (
	"context"
	"sync"
)

// Handler receives every message published on any group.
type Handler func(group string, payload []byte)

// Broker moves broadcasts between server instances.
type Broker interface {
	Name() string
	Publish(ctx context.Context, group string, payload []byte) error
	// Subscribe blocks, calling fn for each message, until ctx is done.
	Subscribe(ctx context.Context, fn Handler) error
	Close() error
}

// GroupName returns the live group of a language.
func GroupName(lang string) string {
	return lang + "-live"
}

type message struct {
	group   string
	payload []byte
}

// MemoryBroker delivers messages within a single process.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[chan message]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[chan message]struct{})}
}

func (b *MemoryBroker) Name() string { return "memory" }

func (b *MemoryBroker) Publish(ctx context.Context, group string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for ch := range b.subs {
		select {
		case ch <- message{group: group, payload: payload}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, fn Handler) error {
	ch := make(chan message, 64)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBrokerClosed
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			fn(msg.group, msg.payload)
		}
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
