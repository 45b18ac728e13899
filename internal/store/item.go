package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmelo/feirinha/internal/model"
	"github.com/google/uuid"
)

// SnapshotFunc receives the full ordered contents of a list's remote
// collection. It is invoked on every server-side change, Firestore-style:
// subscribers always see complete snapshots, never deltas.
type SnapshotFunc func(items []model.Item)

// ItemStore is the server-authoritative item collection. Every mutation of a
// list pushes a fresh snapshot to that list's subscribers.
type ItemStore struct {
	db *sql.DB

	mu   sync.Mutex
	subs map[string]map[int64]SnapshotFunc // listID -> subID -> callback
	next int64
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{
		db:   db,
		subs: make(map[string]map[int64]SnapshotFunc),
	}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var createdBy sql.NullInt64
	var purchased int

	err := scanner.Scan(
		&item.RemoteID, &item.ListID, &item.Code, &item.Name,
		&item.Quantity, &item.UnitPrice, &purchased, &createdBy, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Purchased = purchased != 0
	if createdBy.Valid {
		item.CreatedBy = createdBy.Int64
	}
	return &item, nil
}

const itemCols = `remote_id, list_id, code, name, quantity, unit_price, purchased, created_by, created_at`

// ListByList returns a list's items ordered by sequence code ascending.
func (s *ItemStore) ListByList(listID string) ([]model.Item, error) {
	rows, err := s.db.Query(
		`SELECT `+itemCols+` FROM items WHERE list_id = ? ORDER BY code ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Add persists an item and returns the server-assigned remote ID.
func (s *ItemStore) Add(item model.Item) (string, error) {
	remoteID := uuid.NewString()
	var createdBy sql.NullInt64
	if item.CreatedBy != 0 {
		createdBy = sql.NullInt64{Int64: item.CreatedBy, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO items (remote_id, list_id, code, name, quantity, unit_price, purchased, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		remoteID, item.ListID, item.Code, item.Name, item.Quantity, item.UnitPrice,
		boolToInt(item.Purchased), createdBy, item.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	s.notify(item.ListID)
	return remoteID, nil
}

// Update overwrites the mutable fields of an item by remote ID.
func (s *ItemStore) Update(item model.Item) error {
	if item.RemoteID == "" {
		return fmt.Errorf("update item: missing remote id")
	}
	_, err := s.db.Exec(
		`UPDATE items SET name = ?, quantity = ?, unit_price = ?, purchased = ? WHERE remote_id = ?`,
		item.Name, item.Quantity, item.UnitPrice, boolToInt(item.Purchased), item.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	s.notify(item.ListID)
	return nil
}

// Delete removes one item by remote ID.
func (s *ItemStore) Delete(listID, remoteID string) error {
	_, err := s.db.Exec(`DELETE FROM items WHERE remote_id = ?`, remoteID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.notify(listID)
	return nil
}

// DeleteList removes every item in a list, for list deletion.
func (s *ItemStore) DeleteList(listID string) error {
	_, err := s.db.Exec(`DELETE FROM items WHERE list_id = ?`, listID)
	if err != nil {
		return fmt.Errorf("delete list items: %w", err)
	}
	s.notify(listID)
	return nil
}

// DeleteBatch removes every given remote ID in a single transaction.
func (s *ItemStore) DeleteBatch(listID string, remoteIDs []string) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch delete: %w", err)
	}
	defer tx.Rollback()

	for _, id := range remoteIDs {
		if _, err := tx.Exec(`DELETE FROM items WHERE remote_id = ?`, id); err != nil {
			return fmt.Errorf("batch delete %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch delete: %w", err)
	}
	s.notify(listID)
	return nil
}

// Subscribe registers a snapshot callback for a list and immediately pushes
// the current snapshot. The returned function cancels the subscription.
func (s *ItemStore) Subscribe(listID string, fn SnapshotFunc) func() {
	s.mu.Lock()
	s.next++
	id := s.next
	if s.subs[listID] == nil {
		s.subs[listID] = make(map[int64]SnapshotFunc)
	}
	s.subs[listID][id] = fn
	s.mu.Unlock()

	s.notifyOne(listID, fn)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[listID], id)
		if len(s.subs[listID]) == 0 {
			delete(s.subs, listID)
		}
	}
}

func (s *ItemStore) notify(listID string) {
	s.mu.Lock()
	fns := make([]SnapshotFunc, 0, len(s.subs[listID]))
	for _, fn := range s.subs[listID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	items, err := s.ListByList(listID)
	if err != nil {
		return
	}
	for _, fn := range fns {
		fn(items)
	}
}

func (s *ItemStore) notifyOne(listID string, fn SnapshotFunc) {
	items, err := s.ListByList(listID)
	if err != nil {
		return
	}
	fn(items)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
