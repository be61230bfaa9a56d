// Package analysis holds domain-level coordination primitives for the
// background analysis pipeline.
package analysis

import "sync"

// Notifier manages subscriptions for job availability wake-ups. Submission
// signals it after creating a pending job so runner workers wake immediately
// instead of waiting out their poll interval.
type Notifier interface {
	Subscribe() (func(), <-chan struct{})
	Notify()
	StopAll()
}

// DefaultNotifier is the in-process implementation of Notifier.
type DefaultNotifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewNotifier constructs the default notifier implementation.
func NewNotifier() *DefaultNotifier {
	return &DefaultNotifier{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a subscriber and returns an unsubscribe function plus
// the wake-up channel. The channel is buffered so a notification arriving
// while the subscriber is busy is not lost.
func (n *DefaultNotifier) Subscribe() (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	n.subs[ch] = struct{}{}

	unsub := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[ch]; !ok {
			return
		}
		delete(n.subs, ch)
		drainAndClose(ch)
	}
	return unsub, ch
}

// Notify wakes all subscribers. Non-blocking: a subscriber with a pending
// notification is not signaled twice.
func (n *DefaultNotifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// StopAll closes every subscription channel. Called during graceful shutdown.
func (n *DefaultNotifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		drainAndClose(ch)
		delete(n.subs, ch)
	}
}

// drainAndClose removes any buffered notification before closing so receivers
// observe a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ Notifier = (*DefaultNotifier)(nil)
