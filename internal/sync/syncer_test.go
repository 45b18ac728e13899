package sync

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmelo/feirinha/internal/database"
	"github.com/dmelo/feirinha/internal/kv"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/store"
)

func setupSyncer(t *testing.T) (*Syncer, *store.ItemStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	items := store.NewItemStore(db)
	s := New(items, kv.New(db), logger)
	t.Cleanup(s.Close)
	return s, items
}

func TestLocalOnlyOpsNeverReachServer(t *testing.T) {
	s, items := setupSyncer(t)

	if s.State() != StateUnsubscribed {
		t.Fatalf("state = %q, want unsubscribed", s.State())
	}
	added, err := s.Add(model.Item{Name: "Pão", Quantity: 1, UnitPrice: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Code != 1 || added.RemoteID != "" {
		t.Errorf("added = %+v, want code 1 and no remote id", added)
	}

	remote, _ := items.ListByList("lst-1")
	if len(remote) != 0 {
		t.Errorf("server got %d items, want 0", len(remote))
	}
}

func TestSetActiveListSubscribesAndApplies(t *testing.T) {
	s, items := setupSyncer(t)

	// Server already has data for the list before we join it.
	items.Add(model.Item{ListID: "lst-1", Code: 1, Name: "Leite", Quantity: 1, UnitPrice: 5, CreatedAt: time.Now().UTC()})

	if err := s.SetActiveList("lst-1"); err != nil {
		t.Fatalf("set active list: %v", err)
	}
	if s.State() != StateSynced {
		t.Fatalf("state = %q, want synced", s.State())
	}

	cached, err := s.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(cached) != 1 || cached[0].Name != "Leite" {
		t.Errorf("cache = %+v, want server snapshot", cached)
	}
}

func TestAddPushesToServer(t *testing.T) {
	s, items := setupSyncer(t)
	s.SetActiveList("lst-1")

	added, err := s.Add(model.Item{Name: "Café", Quantity: 1, UnitPrice: 9})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.RemoteID == "" {
		t.Error("add did not record a remote id")
	}

	remote, _ := items.ListByList("lst-1")
	if len(remote) != 1 || remote[0].Name != "Café" {
		t.Fatalf("server = %+v, want Café", remote)
	}
	if remote[0].RemoteID != added.RemoteID {
		t.Errorf("remote id mismatch: %q vs %q", remote[0].RemoteID, added.RemoteID)
	}
}

func TestTogglePushesToServer(t *testing.T) {
	s, items := setupSyncer(t)
	s.SetActiveList("lst-1")

	added, _ := s.Add(model.Item{Name: "Arroz", Quantity: 1, UnitPrice: 6})
	if err := s.Toggle(added.Code); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	remote, _ := items.ListByList("lst-1")
	if len(remote) != 1 || !remote[0].Purchased {
		t.Errorf("server item not marked purchased: %+v", remote)
	}

	cached, _ := s.Items()
	if !cached[0].Purchased {
		t.Error("cached item not marked purchased")
	}
}

func TestToggleUnknownCodeIsNoOp(t *testing.T) {
	s, _ := setupSyncer(t)
	if err := s.Toggle(99); err != nil {
		t.Fatalf("toggle unknown: %v", err)
	}
}

func TestRemoveDeletesRemote(t *testing.T) {
	s, items := setupSyncer(t)
	s.SetActiveList("lst-1")

	added, _ := s.Add(model.Item{Name: "Sabão", Quantity: 1, UnitPrice: 3})
	if err := s.Remove(added.Code); err != nil {
		t.Fatalf("remove: %v", err)
	}

	remote, _ := items.ListByList("lst-1")
	if len(remote) != 0 {
		t.Errorf("server = %+v, want empty", remote)
	}
	cached, _ := s.Items()
	if len(cached) != 0 {
		t.Errorf("cache = %+v, want empty", cached)
	}
}

func TestClearAllEmptiesBothSides(t *testing.T) {
	s, items := setupSyncer(t)
	s.SetActiveList("lst-1")

	s.Add(model.Item{Name: "Leite", Quantity: 1, UnitPrice: 5})
	s.Add(model.Item{Name: "Pão", Quantity: 2, UnitPrice: 1})

	if err := s.ClearAll(); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	remote, _ := items.ListByList("lst-1")
	if len(remote) != 0 {
		t.Errorf("server = %+v, want empty", remote)
	}
	cached, _ := s.Items()
	if len(cached) != 0 {
		t.Errorf("cache = %+v, want empty", cached)
	}
}

func TestServerSnapshotOverwritesCache(t *testing.T) {
	s, items := setupSyncer(t)
	s.SetActiveList("lst-1")

	s.Add(model.Item{Name: "Leite", Quantity: 1, UnitPrice: 5})

	// Another member of the list writes directly to the server.
	items.Add(model.Item{ListID: "lst-1", Code: 2, Name: "Queijo", Quantity: 1, UnitPrice: 12, CreatedAt: time.Now().UTC()})

	cached, _ := s.Items()
	if len(cached) != 2 {
		t.Fatalf("cache = %d items, want 2", len(cached))
	}
	if cached[1].Name != "Queijo" {
		t.Errorf("cache missing other member's item: %+v", cached)
	}
}

func TestSwitchingListsSwapsNamespace(t *testing.T) {
	s, _ := setupSyncer(t)

	s.SetActiveList("lst-1")
	s.Add(model.Item{Name: "Leite", Quantity: 1, UnitPrice: 5})

	s.SetActiveList("lst-2")
	if s.ActiveListID() != "lst-2" {
		t.Fatalf("active list = %q, want lst-2", s.ActiveListID())
	}
	cached, _ := s.Items()
	if len(cached) != 0 {
		t.Errorf("lst-2 cache = %+v, want empty", cached)
	}

	// Going back to the default list leaves shared data behind.
	s.SetActiveList("")
	if s.State() != StateUnsubscribed {
		t.Errorf("state = %q, want unsubscribed", s.State())
	}
	cached, _ = s.Items()
	if len(cached) != 0 {
		t.Errorf("default cache = %+v, want empty", cached)
	}
}

func TestSnapshotListenerFires(t *testing.T) {
	s, _ := setupSyncer(t)

	var gotList string
	var gotItems []model.Item
	s.OnSnapshot(func(listID string, items []model.Item) {
		gotList = listID
		gotItems = items
	})

	s.SetActiveList("lst-1")
	s.Add(model.Item{Name: "Leite", Quantity: 1, UnitPrice: 5})

	if gotList != "lst-1" {
		t.Errorf("listener list = %q, want lst-1", gotList)
	}
	if len(gotItems) != 1 || gotItems[0].Name != "Leite" {
		t.Errorf("listener items = %+v", gotItems)
	}
}
