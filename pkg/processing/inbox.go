package processing

import (
	"sort"
	"sync"
)

// Delivery is one message received from the bus.
type Delivery struct {
	Topic       string
	Payload     []byte
	TimestampNs int64
}

// Inbox keeps only the newest delivery per topic until it is drained.
// Subscriber goroutines Put, the UI tick Drains.
type Inbox struct {
	mu      sync.Mutex
	pending map[string]Delivery
	dropped int64
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{
		pending: make(map[string]Delivery),
	}
}

// Put stores d, replacing any undrained delivery on the same topic.
// It reports whether an older delivery was overwritten.
func (b *Inbox) Put(d Delivery) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, replaced := b.pending[d.Topic]
	if replaced {
		b.dropped++
	}
	b.pending[d.Topic] = d
	return replaced
}

// Drain returns the pending deliveries ordered by timestamp and clears them.
func (b *Inbox) Drain() []Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	out := make([]Delivery, 0, len(b.pending))
	for _, d := range b.pending {
		out = append(out, d)
	}
	b.pending = make(map[string]Delivery)

	sort.Slice(out, func(i, j int) bool {
		if out[i].TimestampNs == out[j].TimestampNs {
			return out[i].Topic < out[j].Topic
		}
		return out[i].TimestampNs < out[j].TimestampNs
	})
	return out
}

// Len returns the number of topics with an undrained delivery.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Dropped counts deliveries overwritten before they were drained.
func (b *Inbox) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
