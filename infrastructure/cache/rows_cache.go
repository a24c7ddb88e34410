package cache

import (
	"sync"
	"time"

	"pickstation/models"
)

// RowsCache keeps the rows a page was rendered from so the screen opened by
// the page's socket starts from the same snapshot. Snapshots are scoped to the
// backend token the page was loaded with, so one operator's rows never seed
// another operator's screen.
type RowsCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	rows map[rowsKey]rowsEntry
}

type rowsKey struct {
	picklist string
	token    string
}

type rowsEntry struct {
	items  []models.PickItem
	stored time.Time
}

func NewRowsCache(ttl time.Duration) *RowsCache {
	return &RowsCache{ttl: ttl, now: time.Now, rows: make(map[rowsKey]rowsEntry)}
}

// Add stores a snapshot and drops every expired one; pages whose socket never
// connects would otherwise stay forever.
func (c *RowsCache) Add(picklist, token string, items []models.PickItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.rows {
		if now.Sub(e.stored) > c.ttl {
			delete(c.rows, k)
		}
	}
	c.rows[rowsKey{picklist, token}] = rowsEntry{items: append([]models.PickItem(nil), items...), stored: now}
}

// Take returns and forgets a fresh snapshot.
func (c *RowsCache) Take(picklist, token string) ([]models.PickItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := rowsKey{picklist, token}
	e, ok := c.rows[key]
	if !ok {
		return nil, false
	}
	delete(c.rows, key)
	if c.now().Sub(e.stored) > c.ttl {
		return nil, false
	}
	return e.items, true
}

// Len is the number of snapshots held.
func (c *RowsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}
