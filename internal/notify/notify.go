// Package notify fans out change topics so live subscriptions know when to
// reload. Topics are plain strings such as "board:<id>" and "grant:<id>".
package notify

import (
	"context"
	"sync"
)

// BoardTopic is the topic published when a board's grant set changes
func BoardTopic(boardID string) string { return "board:" + boardID }

// GrantTopic is the topic published when a grant's milestones change
func GrantTopic(grantID string) string { return "grant:" + grantID }

// Notifier publishes and delivers change topics. Listener functions must
// not block: they are called from the notifier's delivery path.
type Notifier interface {
	Publish(ctx context.Context, topic string) error
	Listen(topic string, fn func()) (cancel func())
	Close() error
}

// Memory is an in-process notifier
type Memory struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[string]map[int]func()
}

// NewMemory creates an in-process notifier
func NewMemory() *Memory {
	return &Memory{listeners: make(map[string]map[int]func())}
}

// Publish calls every listener of topic
func (m *Memory) Publish(_ context.Context, topic string) error {
	m.dispatch(topic)
	return nil
}

func (m *Memory) dispatch(topic string) {
	m.mu.RLock()
	fns := make([]func(), 0, len(m.listeners[topic]))
	for _, fn := range m.listeners[topic] {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// broadcast calls every listener of every topic
func (m *Memory) broadcast() {
	m.mu.RLock()
	var fns []func()
	for _, byID := range m.listeners {
		for _, fn := range byID {
			fns = append(fns, fn)
		}
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Listen registers fn for topic
func (m *Memory) Listen(topic string, fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.listeners[topic] == nil {
		m.listeners[topic] = make(map[int]func())
	}
	m.listeners[topic][id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners[topic], id)
			if len(m.listeners[topic]) == 0 {
				delete(m.listeners, topic)
			}
		})
	}
}

// Close drops every listener
func (m *Memory) Close() error {
	m.mu.Lock()
	m.listeners = make(map[string]map[int]func())
	m.mu.Unlock()
	return nil
}
