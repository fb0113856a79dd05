// Package status fans job progress events out to stream subscribers.
//
// Publishing is fire-and-forget: a subscriber that cannot keep up has the
// event dropped rather than blocking the job's thread of control.
package status

import (
	"context"
	"sync"
	"time"
)

// Event is one progress update for a job.
type Event struct {
	Ts      string         `json:"ts"`
	Msg     string         `json:"msg"`
	Details map[string]any `json:"details,omitempty"`
}

// Broker routes events to per-job subscribers. Safe for concurrent use by
// independent jobs.
type Broker struct {
	mu          sync.Mutex
	subscribers map[string]map[chan Event]struct{}
	seen        map[string]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: map[string]map[chan Event]struct{}{},
		seen:        map[string]struct{}{},
	}
}

// Subscribe returns a channel of events for the given job. The channel is
// closed when ctx is canceled.
func (b *Broker) Subscribe(ctx context.Context, jobID string) <-chan Event {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subscribers[jobID] == nil {
		b.subscribers[jobID] = map[chan Event]struct{}{}
	}
	b.subscribers[jobID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Close under the same lock Push sends under, so a send can never
		// land on a closed channel.
		b.mu.Lock()
		if b.subscribers[jobID] != nil {
			delete(b.subscribers[jobID], ch)
			if len(b.subscribers[jobID]) == 0 {
				delete(b.subscribers, jobID)
			}
		}
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Push publishes an event for jobID. Slow subscribers are skipped. The sends
// are non-blocking, so holding the lock across them is cheap.
func (b *Broker) Push(jobID, msg string, details map[string]any) {
	event := Event{
		Ts:      time.Now().UTC().Format(time.RFC3339),
		Msg:     msg,
		Details: details,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen[jobID] = struct{}{}
	for ch := range b.subscribers[jobID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Seen reports whether any event was ever published for jobID. Every job
// pushes its queued event synchronously at submission, so an unknown id here
// means the job was never submitted.
func (b *Broker) Seen(jobID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.seen[jobID]
	return ok
}
