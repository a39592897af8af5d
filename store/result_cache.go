// api/store/result_cache.go
package store

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"smartflow/api/models"
	"smartflow/api/utils"
)

// DefaultCacheCapacity bounds the number of cached master datasets. Each
// entry can hold months of events for one flow, so the bound stays small.
const DefaultCacheCapacity = 8

// CachedEventSource puts a content-addressed LRU cache in front of an
// EventSource. The key hashes the query text together with the flow name and
// date window, so a repeated identical fetch is served from memory and any
// change to the query invalidates old entries naturally.
type CachedEventSource struct {
	source   EventSource
	capacity int

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List // front = most recently used
}

type cacheEntry struct {
	key    string
	events []models.FlowEvent
}

func NewCachedEventSource(source EventSource, capacity int) *CachedEventSource {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &CachedEventSource{
		source:   source,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func cacheKey(flowName string, start, end time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s",
		masterQuery, flowName, utils.FormatDate(start), utils.FormatDate(end))))
	return hex.EncodeToString(sum[:])
}

func (c *CachedEventSource) FetchMaster(ctx context.Context, flowName string, start, end time.Time) ([]models.FlowEvent, error) {
	key := cacheKey(flowName, start, end)

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		events := el.Value.(*cacheEntry).events
		c.mu.Unlock()
		log.Printf("Serving master dataset for %q from cache", flowName)
		return events, nil
	}
	c.mu.Unlock()

	// Fetch outside the lock; a failed fetch must not disturb cached entries.
	events, err := c.source.FetchMaster(ctx, flowName, start, end)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).events, nil
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, events: events})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
	return events, nil
}

// Len reports the number of cached datasets.
func (c *CachedEventSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
