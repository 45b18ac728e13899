// Package sync keeps the local item cache and the server-side item collection
// converging. Writes are optimistic: the cache is updated first so the app
// stays responsive, then the change is pushed to the server. Server snapshots
// always win and overwrite the cache wholesale.
package sync

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmelo/feirinha/internal/cache"
	"github.com/dmelo/feirinha/internal/kv"
	"github.com/dmelo/feirinha/internal/metrics"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/store"
)

// State tracks where the syncer is in its subscription lifecycle.
type State string

const (
	StateUnsubscribed State = "unsubscribed"
	StateSubscribing  State = "subscribing"
	StateSynced       State = "synced"
	StateError        State = "error"
)

// SnapshotListener observes every snapshot applied to the cache, after the
// cache has been overwritten.
type SnapshotListener func(listID string, items []model.Item)

type Syncer struct {
	items  *store.ItemStore
	kv     *kv.Store
	logger *slog.Logger

	mu          sync.Mutex
	cache       *cache.ListCache
	state       State
	unsubscribe func()
	listeners   []SnapshotListener
}

// New creates a syncer bound to the default (local-only) list.
func New(items *store.ItemStore, kvStore *kv.Store, logger *slog.Logger) *Syncer {
	return &Syncer{
		items:  items,
		kv:     kvStore,
		logger: logger,
		cache:  cache.New(kvStore, "", logger),
		state:  StateUnsubscribed,
	}
}

// OnSnapshot registers a listener for applied snapshots. Must be called
// before SetActiveList.
func (s *Syncer) OnSnapshot(fn SnapshotListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns the current subscription state.
func (s *Syncer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveListID returns the list the syncer is bound to ("" for local-only).
func (s *Syncer) ActiveListID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.ListID()
}

// SetActiveList tears down the current subscription, swaps the cache to the
// new list's namespace and, for a non-empty list ID, subscribes to its server
// snapshots. The server pushes the initial snapshot during Subscribe, so a
// successful switch lands in StateSynced with the cache already populated.
func (s *Syncer) SetActiveList(listID string) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
		metrics.ActiveSubscriptions.Dec()
	}
	s.cache = cache.New(s.kv, listID, s.logger)

	if listID == "" {
		s.state = StateUnsubscribed
		s.mu.Unlock()
		return nil
	}

	s.state = StateSubscribing
	s.mu.Unlock()

	cancel := s.items.Subscribe(listID, func(items []model.Item) {
		s.applySnapshot(listID, items)
	})

	s.mu.Lock()
	s.unsubscribe = cancel
	s.mu.Unlock()
	metrics.ActiveSubscriptions.Inc()
	return nil
}

// Close cancels any active subscription.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
		s.state = StateUnsubscribed
		metrics.ActiveSubscriptions.Dec()
	}
}

func (s *Syncer) applySnapshot(listID string, items []model.Item) {
	s.mu.Lock()
	c := s.cache
	if c.ListID() != listID {
		// Stale callback from a subscription being torn down.
		s.mu.Unlock()
		return
	}
	if err := c.Replace(items); err != nil {
		s.state = StateError
		s.mu.Unlock()
		s.logger.Error("apply snapshot", "list_id", listID, "error", err)
		return
	}
	s.state = StateSynced
	listeners := make([]SnapshotListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	metrics.SnapshotsApplied.Inc()
	for _, fn := range listeners {
		fn(listID, items)
	}
}

// Add appends an item locally, then pushes it to the server when a shared
// list is active. A failed remote write is logged and counted but never
// surfaced: the item stays in the cache and the server snapshot will
// reconcile later.
func (s *Syncer) Add(item model.Item) (model.Item, error) {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()

	added, err := c.Add(item)
	if err != nil {
		metrics.SyncOps.WithLabelValues("add", "error").Inc()
		return model.Item{}, err
	}
	metrics.SyncOps.WithLabelValues("add", "success").Inc()

	if c.ListID() == "" {
		return added, nil
	}
	remoteID, err := s.items.Add(added)
	if err != nil {
		s.remoteFailed("add", added.Code, err)
		return added, nil
	}
	added.RemoteID = remoteID
	if err := c.SetRemoteID(added.Code, remoteID); err != nil {
		s.logger.Warn("record remote id", "code", added.Code, "error", err)
	}
	return added, nil
}

// Update applies every provided patch field to the cached item, including
// zero values, then pushes the result to the server.
func (s *Syncer) Update(code int64, p model.ItemPatch) error {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()

	if err := c.Update(code, p); err != nil {
		metrics.SyncOps.WithLabelValues("update", "error").Inc()
		return err
	}
	metrics.SyncOps.WithLabelValues("update", "success").Inc()
	s.pushItem(c, "update", code)
	return nil
}

// Edit applies only usable name, quantity and price values, then pushes the
// result to the server.
func (s *Syncer) Edit(code int64, p model.ItemPatch) error {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()

	if err := c.Edit(code, p); err != nil {
		metrics.SyncOps.WithLabelValues("edit", "error").Inc()
		return err
	}
	metrics.SyncOps.WithLabelValues("edit", "success").Inc()
	s.pushItem(c, "edit", code)
	return nil
}

// Toggle flips an item's purchased flag. Unknown codes are a no-op.
func (s *Syncer) Toggle(code int64) error {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()

	item, err := s.find(c, code)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	flipped := !item.Purchased
	if err := c.Update(code, model.ItemPatch{Purchased: &flipped}); err != nil {
		metrics.SyncOps.WithLabelValues("toggle", "error").Inc()
		return err
	}
	metrics.SyncOps.WithLabelValues("toggle", "success").Inc()
	s.pushItem(c, "toggle", code)
	return nil
}

// Remove deletes an item locally and, when it has a remote identity, from the
// server too.
func (s *Syncer) Remove(code int64) error {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()

	item, err := s.find(c, code)
	if err != nil {
		return err
	}
	if err := c.Remove(code); err != nil {
		metrics.SyncOps.WithLabelValues("remove", "error").Inc()
		return err
	}
	metrics.SyncOps.WithLabelValues("remove", "success").Inc()

	if c.ListID() == "" || item == nil || item.RemoteID == "" {
		return nil
	}
	if err := s.items.Delete(c.ListID(), item.RemoteID); err != nil {
		s.remoteFailed("remove", code, err)
	}
	return nil
}

// ClearAll deletes every remote item in one batch, then empties the cache.
// The local clear happens even when the batch delete fails, so the user
// always ends with an empty list.
func (s *Syncer) ClearAll() error {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()

	if c.ListID() != "" {
		items, err := c.List()
		if err != nil {
			return err
		}
		var remoteIDs []string
		for _, it := range items {
			if it.RemoteID != "" {
				remoteIDs = append(remoteIDs, it.RemoteID)
			}
		}
		if err := s.items.DeleteBatch(c.ListID(), remoteIDs); err != nil {
			s.remoteFailed("clear", 0, err)
		}
	}
	if err := c.ClearAll(); err != nil {
		metrics.SyncOps.WithLabelValues("clear", "error").Inc()
		return err
	}
	metrics.SyncOps.WithLabelValues("clear", "success").Inc()
	return nil
}

// Items returns the cached collection.
func (s *Syncer) Items() ([]model.Item, error) {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()
	return c.List()
}

// TotalAll returns the cached sum of quantity × unit price over all items.
func (s *Syncer) TotalAll() (float64, error) {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()
	return c.TotalAll()
}

// TotalPurchased returns the cached sum over purchased items only.
func (s *Syncer) TotalPurchased() (float64, error) {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()
	return c.TotalPurchased()
}

// IsComplete reports whether the active list is non-empty and fully purchased.
func (s *Syncer) IsComplete() (bool, error) {
	s.mu.Lock()
	c := s.cache
	s.mu.Unlock()
	return c.IsComplete()
}

// pushItem sends the cached item's current state to the server. Items without
// a remote identity are skipped; their pending add failure already logged.
func (s *Syncer) pushItem(c *cache.ListCache, op string, code int64) {
	if c.ListID() == "" {
		return
	}
	item, err := s.find(c, code)
	if err != nil || item == nil || item.RemoteID == "" {
		return
	}
	if err := s.items.Update(*item); err != nil {
		s.remoteFailed(op, code, err)
	}
}

func (s *Syncer) find(c *cache.ListCache, code int64) (*model.Item, error) {
	items, err := c.List()
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	for i := range items {
		if items[i].Code == code {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (s *Syncer) remoteFailed(op string, code int64, err error) {
	metrics.RemoteWriteFailures.Inc()
	s.logger.Warn("remote write failed, keeping local state", "op", op, "code", code, "error", err)
}
