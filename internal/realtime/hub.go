package realtime

import (
	"context"
	"sync"

	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

const subscriberBuffer = 8

// Event announces a stored worksheet change. Origin names the writer so a
// session can skip its own echoes.
type Event struct {
	WorksheetID string
	Origin      string
	Deleted     bool
	Worksheet   sheet.Worksheet
}

// Hub fans worksheet updates out to subscribers. Slow subscribers lose
// events rather than blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a feed of events for one worksheet and a cancel func
// that closes it.
func (h *Hub) Subscribe(worksheetID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, subscriberBuffer)
	if h.subs[worksheetID] == nil {
		h.subs[worksheetID] = make(map[int]chan Event)
	}
	h.subs[worksheetID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[worksheetID], id)
			if len(h.subs[worksheetID]) == 0 {
				delete(h.subs, worksheetID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of its worksheet.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ev.WorksheetID] {
		select {
		case ch <- ev:
		default:
			logger.WarnLog(ctx, "dropping update for worksheet %s: subscriber is behind", ev.WorksheetID)
		}
	}
}

// Subscribers counts the live subscriptions of a worksheet.
func (h *Hub) Subscribers(worksheetID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[worksheetID])
}
