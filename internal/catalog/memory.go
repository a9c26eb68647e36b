package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCatalog keeps items in-memory and guards access with a RWMutex.
type MemoryCatalog struct {
	opts options

	mu    sync.RWMutex
	order []string
	items map[string]MediaItem
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog(opts ...Option) *MemoryCatalog {
	return &MemoryCatalog{
		opts:  buildOptions(opts),
		items: make(map[string]MediaItem),
	}
}

// List returns matching items in insertion order.
func (c *MemoryCatalog) List(_ context.Context, filter Filter) ([]MediaItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]MediaItem, 0, len(c.order))
	for _, id := range c.order {
		if item := c.items[id]; filter.matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get returns a copy of the item with the given id.
func (c *MemoryCatalog) Get(_ context.Context, id string) (MediaItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return MediaItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, nil
}

// Add validates and stores a new item.
func (c *MemoryCatalog) Add(_ context.Context, item MediaItem) (MediaItem, error) {
	prepared, err := c.opts.prepare(item)
	if err != nil {
		return MediaItem{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[prepared.ID]; exists {
		return MediaItem{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, prepared.ID)
	}
	c.items[prepared.ID] = prepared
	c.order = append(c.order, prepared.ID)
	return prepared, nil
}

// Update replaces the editable fields of an existing item. CreatedAt is kept.
func (c *MemoryCatalog) Update(_ context.Context, item MediaItem) (MediaItem, error) {
	item, err := normalizeUpdate(item)
	if err != nil {
		return MediaItem{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[item.ID]
	if !ok {
		return MediaItem{}, fmt.Errorf("%w: %s", ErrNotFound, item.ID)
	}
	item.CreatedAt = existing.CreatedAt
	c.items[item.ID] = item
	return item, nil
}

// Delete removes an item.
func (c *MemoryCatalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// MarkBackedUp flags every listed item as backed up, or none of them.
func (c *MemoryCatalog) MarkBackedUp(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		if _, ok := c.items[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	for _, id := range ids {
		item := c.items[id]
		item.BackedUp = true
		c.items[id] = item
	}
	return nil
}

// Close is a no-op for the in-memory catalog.
func (c *MemoryCatalog) Close() error {
	return nil
}
