package cache

import (
	"log/slog"
	"sync"

	"pickstation/models"
)

// ScreenHub fans reconciled lines out to every screen open on the same picklist.
type ScreenHub struct {
	mu      sync.RWMutex
	screens map[string]map[string]chan<- models.ItemUpdate
}

func NewScreenHub() *ScreenHub {
	return &ScreenHub{screens: make(map[string]map[string]chan<- models.ItemUpdate)}
}

func (h *ScreenHub) Subscribe(picklist, screenID string, ch chan<- models.ItemUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.screens[picklist]
	if !ok {
		subs = make(map[string]chan<- models.ItemUpdate)
		h.screens[picklist] = subs
	}
	subs[screenID] = ch
}

func (h *ScreenHub) Unsubscribe(picklist, screenID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.screens[picklist]
	if !ok {
		return
	}
	delete(subs, screenID)
	if len(subs) == 0 {
		delete(h.screens, picklist)
	}
}

// Publish delivers u to every other screen on the picklist and reports how
// many accepted it. A screen whose queue is full misses the update.
func (h *ScreenHub) Publish(u models.ItemUpdate) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for id, ch := range h.screens[u.Picklist] {
		if id == u.Origin {
			continue
		}
		select {
		case ch <- u:
			delivered++
		default:
			slog.Warn("screen update queue full", slog.String("picklist", u.Picklist), slog.String("screen_id", id))
		}
	}
	return delivered
}

// Count is the number of screens open on picklist.
func (h *ScreenHub) Count(picklist string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.screens[picklist])
}
