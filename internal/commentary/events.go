package commentary

import (
	"sync"

	"github.com/eleven-am/live-commentary/internal/settings"
)

type EventType string

const (
	EventMessage            EventType = "message"
	EventMessages           EventType = "messages"
	EventState              EventType = "state"
	EventSettings           EventType = "settings"
	EventScreenshareRequest EventType = "screenshare_request"
)

type Event struct {
	Type     EventType          `json:"type"`
	WidgetID string             `json:"widget_id"`
	Message  *ChatMessage       `json:"message,omitempty"`
	Messages []ChatMessage      `json:"messages,omitempty"`
	State    *State             `json:"state,omitempty"`
	Settings *settings.Settings `json:"settings,omitempty"`
}

const subscriberBuffer = 64

// broadcaster fans events out to subscribers. Slow subscribers miss events
// instead of blocking the orchestrator.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
