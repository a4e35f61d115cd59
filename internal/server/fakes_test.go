package server

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/udisondev/msgo/internal/bridge"
	"github.com/udisondev/msgo/internal/db"
	"github.com/udisondev/msgo/internal/registry"
)

type fakeRegistry struct {
	mu           sync.Mutex
	registered   []registry.Entry
	unregistered []string
	touched      int
}

func (r *fakeRegistry) Register(_ context.Context, e registry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = append(r.registered, e)
	return nil
}

func (r *fakeRegistry) Touch(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched++
	return nil
}

func (r *fakeRegistry) Unregister(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregistered = append(r.unregistered, id)
	return nil
}

func (r *fakeRegistry) snapshot() (reg []registry.Entry, unreg []string, touched int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.registered), slices.Clone(r.unregistered), r.touched
}

// echoBridge отвечает на каждый пакет тем же пакетом в обратном порядке байт.
type echoBridge struct {
	mu     sync.Mutex
	subs   map[string]func([]byte)
	events []string
}

func newEchoBridge() *echoBridge {
	return &echoBridge{subs: make(map[string]func([]byte))}
}

func (b *echoBridge) PublishPacket(sessionID string, packet []byte) error {
	b.mu.Lock()
	fn := b.subs[sessionID]
	b.mu.Unlock()

	if fn != nil {
		reply := bytes.Clone(packet)
		slices.Reverse(reply)
		fn(reply)
	}
	return nil
}

func (b *echoBridge) SubscribeOutbound(sessionID string, fn func([]byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sessionID] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, sessionID)
		b.mu.Unlock()
	}, nil
}

func (b *echoBridge) PublishLifecycle(event bridge.Event, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, string(event)+":"+sessionID)
	return nil
}

func (b *echoBridge) snapshot() (subs int, events []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs), slices.Clone(b.events)
}

type fakeCapture struct {
	mu       sync.Mutex
	captures []db.Capture
}

func (c *fakeCapture) Record(_ context.Context, capture db.Capture) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captures = append(c.captures, capture)
	return nil
}

func (c *fakeCapture) snapshot() []db.Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.captures)
}
