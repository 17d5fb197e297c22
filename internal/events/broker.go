package events

import (
	"sync"
	"time"
)

// Stage is a step of the generation pipeline.
type Stage string

const (
	StageReceived       Stage = "RECEIVED"
	StageDescribing     Stage = "DESCRIBING_PHOTO"
	StageComposing      Stage = "COMPOSING"
	StageModelCall      Stage = "MODEL_CALL"
	StagePostProcessing Stage = "POST_PROCESSING"
	StageDone           Stage = "DONE"
	StageFailed         Stage = "FAILED"
)

// Event describes a progress update for one generation request.
type Event struct {
	RequestID   string    `json:"requestId"`
	OwnerID     string    `json:"ownerId,omitempty"`
	PropertyID  string    `json:"propertyId"`
	ContentType string    `json:"contentType,omitempty"`
	Stage       Stage     `json:"stage"`
	At          time.Time `json:"at"`
}

// Publisher is what the generation pipeline needs from a broker.
type Publisher interface {
	Publish(evt Event)
}

// Broker manages SSE subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[chan Event]string
}

// NewBroker constructs a broker instance.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[chan Event]string),
	}
}

// Subscribe returns a channel that receives events for ownerID. An empty
// ownerID receives everything.
func (b *Broker) Subscribe(ownerID string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subscribers[ch] = ownerID
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel from the broker.
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish fans the event out to matching subscribers without blocking.
func (b *Broker) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	for ch, owner := range b.subscribers {
		if owner != "" && owner != evt.OwnerID {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop if subscriber is slow
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many streams are attached.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
