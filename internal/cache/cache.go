// Package cache maintains the client-side view of one list's items,
// independent of whether the remote collection is reachable. Each cache is
// scoped to a storage namespace derived from the active list; switching lists
// means constructing a new cache, never mutating a shared one.
package cache

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/dmelo/feirinha/internal/kv"
	"github.com/dmelo/feirinha/internal/model"
)

// DefaultNamespace is used when no shared list is active.
const DefaultNamespace = "items:default"

// Namespace returns the storage key for a list's item collection.
func Namespace(listID string) string {
	if listID == "" {
		return DefaultNamespace
	}
	return "items:" + listID
}

type ListCache struct {
	kv     *kv.Store
	ns     string
	listID string
	logger *slog.Logger
}

// New creates a cache for the given list. An empty listID selects the
// default namespace.
func New(store *kv.Store, listID string, logger *slog.Logger) *ListCache {
	return &ListCache{
		kv:     store,
		ns:     Namespace(listID),
		listID: listID,
		logger: logger,
	}
}

// ListID returns the list this cache is scoped to ("" for the default list).
func (c *ListCache) ListID() string { return c.listID }

// Add assigns the next sequence code, stamps creation time and the owning
// list, appends the item and persists. Duplicate names are permitted.
func (c *ListCache) Add(item model.Item) (model.Item, error) {
	items, err := c.load()
	if err != nil {
		return model.Item{}, err
	}

	var maxCode int64
	for _, it := range items {
		if it.Code > maxCode {
			maxCode = it.Code
		}
	}
	item.Code = maxCode + 1
	item.CreatedAt = time.Now().UTC()
	item.ListID = c.listID
	item.Purchased = false

	items = append(items, item)
	if err := c.save(items); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// Update merges the provided patch fields over the cached entry with the
// given code. Nil fields are left untouched; non-nil fields overwrite even
// when they carry a zero value. Silently a no-op if the code is not found.
func (c *ListCache) Update(code int64, p model.ItemPatch) error {
	items, err := c.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Code != code {
			continue
		}
		if p.Name != nil {
			items[i].Name = *p.Name
		}
		if p.Quantity != nil {
			items[i].Quantity = *p.Quantity
		}
		if p.UnitPrice != nil {
			items[i].UnitPrice = *p.UnitPrice
		}
		if p.Purchased != nil {
			items[i].Purchased = *p.Purchased
		}
		return c.save(items)
	}
	return nil
}

// Edit applies only name, quantity and unit price, and only when the provided
// value is usable: nil fields and blank names are suppressed rather than
// overwriting. This is intentionally narrower than Update.
func (c *ListCache) Edit(code int64, p model.ItemPatch) error {
	items, err := c.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Code != code {
			continue
		}
		if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
			items[i].Name = *p.Name
		}
		if p.Quantity != nil {
			items[i].Quantity = *p.Quantity
		}
		if p.UnitPrice != nil {
			items[i].UnitPrice = *p.UnitPrice
		}
		return c.save(items)
	}
	return nil
}

// SetRemoteID records the server-assigned identifier on a cached item.
func (c *ListCache) SetRemoteID(code int64, remoteID string) error {
	items, err := c.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Code == code {
			items[i].RemoteID = remoteID
			return c.save(items)
		}
	}
	return nil
}

// Remove deletes the item with the given code. No-op if not found.
func (c *ListCache) Remove(code int64) error {
	items, err := c.load()
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.Code != code {
			kept = append(kept, it)
		}
	}
	return c.save(kept)
}

// ClearAll replaces the cache with an empty collection.
func (c *ListCache) ClearAll() error {
	return c.save(nil)
}

// Replace overwrites the whole cache with the given snapshot. This is the
// entry point for server-pushed snapshots: the remote is authoritative and
// the previous local state is discarded entirely.
func (c *ListCache) Replace(items []model.Item) error {
	return c.save(items)
}

// List returns the current collection.
func (c *ListCache) List() ([]model.Item, error) {
	return c.load()
}

// TotalAll returns the sum of quantity × unit price over all items.
func (c *ListCache) TotalAll() (float64, error) {
	items, err := c.load()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += it.Total()
	}
	return total, nil
}

// TotalPurchased returns the sum of quantity × unit price over purchased items.
func (c *ListCache) TotalPurchased() (float64, error) {
	items, err := c.load()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		if it.Purchased {
			total += it.Total()
		}
	}
	return total, nil
}

// IsComplete reports whether the cache is non-empty and every item has been
// purchased.
func (c *ListCache) IsComplete() (bool, error) {
	items, err := c.load()
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	for _, it := range items {
		if !it.Purchased {
			return false, nil
		}
	}
	return true, nil
}

func (c *ListCache) load() ([]model.Item, error) {
	raw, err := c.kv.Get(c.ns)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var stored []storedItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		// Fail open: corrupt data degrades to an empty collection so the
		// app stays usable, but make it visible in the logs.
		c.logger.Warn("corrupt item cache, starting empty", "namespace", c.ns, "error", err)
		return nil, nil
	}

	items := make([]model.Item, 0, len(stored))
	for _, s := range stored {
		items = append(items, s.item())
	}
	return items, nil
}

func (c *ListCache) save(items []model.Item) error {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.kv.Set(c.ns, string(data))
}
