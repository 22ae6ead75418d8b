package projection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DisplayCache keeps rendered scoreboards for one poll interval.
// Every mutation of a match must call Invalidate for it.
type DisplayCache struct {
	store Store
	ttl   time.Duration

	mu   sync.Mutex
	keys map[uuid.UUID]struct{}
}

// NewDisplayCache creates a cache over store. A zero ttl disables caching.
func NewDisplayCache(store Store, ttl time.Duration) *DisplayCache {
	return &DisplayCache{store: store, ttl: ttl, keys: make(map[uuid.UUID]struct{})}
}

func displayKey(matchID uuid.UUID) string {
	return "display:" + matchID.String()
}

// Get returns the cached scoreboard for matchID, if present and fresh.
func (c *DisplayCache) Get(ctx context.Context, matchID uuid.UUID) (*Scoreboard, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	var sb Scoreboard
	if err := GetJSON(ctx, c.store, displayKey(matchID), &sb); err != nil {
		return nil, false
	}
	return &sb, true
}

// Put stores sb under its match id.
func (c *DisplayCache) Put(ctx context.Context, sb *Scoreboard) error {
	if c == nil || c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.keys[sb.MatchID] = struct{}{}
	c.mu.Unlock()
	return SetJSON(ctx, c.store, displayKey(sb.MatchID), sb, c.ttl)
}

// Invalidate drops the cached scoreboard for matchID.
func (c *DisplayCache) Invalidate(ctx context.Context, matchID uuid.UUID) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	delete(c.keys, matchID)
	c.mu.Unlock()
	return c.store.Delete(ctx, displayKey(matchID))
}

// InvalidateAll drops every cached scoreboard. Used when teams or settings change.
func (c *DisplayCache) InvalidateAll(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	ids := make([]uuid.UUID, 0, len(c.keys))
	for id := range c.keys {
		ids = append(ids, id)
	}
	c.keys = make(map[uuid.UUID]struct{})
	c.mu.Unlock()

	for _, id := range ids {
		if err := c.store.Delete(ctx, displayKey(id)); err != nil {
			return err
		}
	}
	return nil
}
