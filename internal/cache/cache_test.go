package cache

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dmelo/feirinha/internal/database"
	"github.com/dmelo/feirinha/internal/kv"
	"github.com/dmelo/feirinha/internal/model"
)

func setupCache(t *testing.T, listID string) (*ListCache, *kv.Store) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := kv.New(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, listID, logger), store
}

func ptr[T any](v T) *T { return &v }

func TestAddAssignsSequentialCodes(t *testing.T) {
	c, _ := setupCache(t, "")

	for i := 1; i <= 5; i++ {
		item, err := c.Add(model.Item{Name: "item"})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if item.Code != int64(i) {
			t.Errorf("code = %d, want %d", item.Code, i)
		}
	}

	items, err := c.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("len = %d, want 5", len(items))
	}
	for i, it := range items {
		if it.Code != int64(i+1) {
			t.Errorf("items[%d].Code = %d, want %d", i, it.Code, i+1)
		}
	}
}

func TestCodesNeverReused(t *testing.T) {
	c, _ := setupCache(t, "")

	c.Add(model.Item{Name: "a"})
	b, _ := c.Add(model.Item{Name: "b"})
	c.Add(model.Item{Name: "c"})

	if err := c.Remove(b.Code); err != nil {
		t.Fatalf("remove: %v", err)
	}
	d, err := c.Add(model.Item{Name: "d"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if d.Code != 4 {
		t.Errorf("code after remove = %d, want 4", d.Code)
	}
}

func TestRemove(t *testing.T) {
	c, _ := setupCache(t, "")

	a, _ := c.Add(model.Item{Name: "a"})
	c.Add(model.Item{Name: "b"})

	if err := c.Remove(a.Code); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, _ := c.List()
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	for _, it := range items {
		if it.Code == a.Code {
			t.Errorf("removed code %d still present", a.Code)
		}
	}

	// Removing a nonexistent code leaves the list unchanged.
	if err := c.Remove(999); err != nil {
		t.Fatalf("remove nonexistent: %v", err)
	}
	items, _ = c.List()
	if len(items) != 1 {
		t.Errorf("len after nonexistent remove = %d, want 1", len(items))
	}
}

func TestEditSuppressesEmptyValues(t *testing.T) {
	c, _ := setupCache(t, "")

	item, _ := c.Add(model.Item{Name: "Leite", Quantity: 2, UnitPrice: 4})

	// Blank name and nil numbers must not overwrite.
	if err := c.Edit(item.Code, model.ItemPatch{Name: ptr("  ")}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	items, _ := c.List()
	if items[0].Name != "Leite" {
		t.Errorf("name = %q, want unchanged %q", items[0].Name, "Leite")
	}
	if items[0].Quantity != 2 || items[0].UnitPrice != 4 {
		t.Errorf("quantity/price changed: %v/%v", items[0].Quantity, items[0].UnitPrice)
	}

	// Provided values do overwrite.
	if err := c.Edit(item.Code, model.ItemPatch{Name: ptr("Leite Integral"), Quantity: ptr(3.0)}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	items, _ = c.List()
	if items[0].Name != "Leite Integral" {
		t.Errorf("name = %q, want %q", items[0].Name, "Leite Integral")
	}
	if items[0].Quantity != 3 {
		t.Errorf("quantity = %v, want 3", items[0].Quantity)
	}

	// Edit never touches the purchased flag.
	if err := c.Edit(item.Code, model.ItemPatch{Purchased: ptr(true)}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	items, _ = c.List()
	if items[0].Purchased {
		t.Error("edit changed purchased flag")
	}
}

func TestUpdateOverwritesWithZeroValues(t *testing.T) {
	c, _ := setupCache(t, "")

	item, _ := c.Add(model.Item{Name: "Arroz", Quantity: 2, UnitPrice: 5})

	if err := c.Update(item.Code, model.ItemPatch{Name: ptr(""), Quantity: ptr(0.0), Purchased: ptr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, _ := c.List()
	if items[0].Name != "" {
		t.Errorf("name = %q, want empty (update overwrites falsy values)", items[0].Name)
	}
	if items[0].Quantity != 0 {
		t.Errorf("quantity = %v, want 0", items[0].Quantity)
	}
	if !items[0].Purchased {
		t.Error("purchased not set")
	}
	// Unprovided fields stay put.
	if items[0].UnitPrice != 5 {
		t.Errorf("unit price = %v, want 5", items[0].UnitPrice)
	}
}

func TestUpdateUnknownCodeIsNoop(t *testing.T) {
	c, _ := setupCache(t, "")
	c.Add(model.Item{Name: "a", Quantity: 1})

	if err := c.Update(42, model.ItemPatch{Name: ptr("x")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, _ := c.List()
	if items[0].Name != "a" {
		t.Errorf("name = %q, want %q", items[0].Name, "a")
	}
}

func TestTotals(t *testing.T) {
	c, _ := setupCache(t, "")

	first, _ := c.Add(model.Item{Name: "a", Quantity: 2, UnitPrice: 3.5})
	c.Add(model.Item{Name: "b", Quantity: 1, UnitPrice: 0})

	total, err := c.TotalAll()
	if err != nil {
		t.Fatalf("total all: %v", err)
	}
	if total != 7.0 {
		t.Errorf("TotalAll = %v, want 7.0", total)
	}

	purchased, _ := c.TotalPurchased()
	if purchased != 0 {
		t.Errorf("TotalPurchased = %v, want 0", purchased)
	}

	c.Update(first.Code, model.ItemPatch{Purchased: ptr(true)})
	purchased, _ = c.TotalPurchased()
	if purchased != 7.0 {
		t.Errorf("TotalPurchased = %v, want 7.0", purchased)
	}
}

func TestIsComplete(t *testing.T) {
	c, _ := setupCache(t, "")

	if done, _ := c.IsComplete(); done {
		t.Error("empty list reported complete")
	}

	a, _ := c.Add(model.Item{Name: "a"})
	c.Update(a.Code, model.ItemPatch{Purchased: ptr(true)})
	if done, _ := c.IsComplete(); !done {
		t.Error("fully purchased list reported incomplete")
	}

	c.Add(model.Item{Name: "b"})
	if done, _ := c.IsComplete(); done {
		t.Error("partially purchased list reported complete")
	}
}

func TestClearAll(t *testing.T) {
	c, _ := setupCache(t, "")
	c.Add(model.Item{Name: "a"})
	c.Add(model.Item{Name: "b"})

	if err := c.ClearAll(); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	items, _ := c.List()
	if len(items) != 0 {
		t.Errorf("len after clear = %d, want 0", len(items))
	}
}

func TestCorruptDataFailsOpen(t *testing.T) {
	c, store := setupCache(t, "")
	c.Add(model.Item{Name: "a"})

	if err := store.Set(DefaultNamespace, "{not json"); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	items, err := c.List()
	if err != nil {
		t.Fatalf("list on corrupt data: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0 (fail open)", len(items))
	}
}

func TestNonNumericValuesCoerceToZero(t *testing.T) {
	c, store := setupCache(t, "")

	raw := `[{"code":1,"name":"a","quantity":"2","unit_price":"abc","purchased":true}]`
	if err := store.Set(DefaultNamespace, raw); err != nil {
		t.Fatalf("seed: %v", err)
	}

	total, err := c.TotalAll()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	// "2" coerces to 2, "abc" to 0.
	if total != 0 {
		t.Errorf("TotalAll = %v, want 0", total)
	}
	items, _ := c.List()
	if items[0].Quantity != 2 {
		t.Errorf("quantity = %v, want 2 (numeric string coerced)", items[0].Quantity)
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := kv.New(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	def := New(store, "", logger)
	shared := New(store, "list-abc", logger)

	def.Add(model.Item{Name: "local"})
	shared.Add(model.Item{Name: "shared"})

	defItems, _ := def.List()
	sharedItems, _ := shared.List()
	if len(defItems) != 1 || defItems[0].Name != "local" {
		t.Errorf("default namespace = %+v", defItems)
	}
	if len(sharedItems) != 1 || sharedItems[0].Name != "shared" {
		t.Errorf("shared namespace = %+v", sharedItems)
	}
	if sharedItems[0].ListID != "list-abc" {
		t.Errorf("list id = %q, want %q", sharedItems[0].ListID, "list-abc")
	}
}

func TestReplaceOverwritesLocalState(t *testing.T) {
	c, _ := setupCache(t, "")

	c.Add(model.Item{Name: "optimistic"})

	snapshot := []model.Item{{Code: 1, Name: "from-server"}}
	if err := c.Replace(snapshot); err != nil {
		t.Fatalf("replace: %v", err)
	}
	items, _ := c.List()
	if len(items) != 1 || items[0].Name != "from-server" {
		t.Errorf("items = %+v, want the snapshot only", items)
	}
}
