package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmelo/feirinha/internal/model"
	"github.com/google/uuid"
)

type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

func scanList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	err := scanner.Scan(&l.ID, &l.Name, &l.OwnerID, &l.OwnerEmail, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanListMember(scanner interface{ Scan(...any) error }) (*model.ListMember, error) {
	var m model.ListMember
	var joinedAt sql.NullTime
	err := scanner.Scan(&m.ID, &m.ListID, &m.UserID, &m.Role, &joinedAt)
	if err != nil {
		return nil, err
	}
	if joinedAt.Valid {
		m.JoinedAt = &joinedAt.Time
	}
	return &m, nil
}

const listCols = `id, name, owner_id, owner_email, created_at, updated_at`
const listMemberCols = `id, list_id, user_id, role, joined_at`

// Create inserts a list and its owner membership in one transaction. The
// owner is always a member.
func (s *ListStore) Create(name string, ownerID int64, ownerEmail string) (*model.ShoppingList, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO lists (id, name, owner_id, owner_email) VALUES (?, ?, ?, ?)`,
		id, name, ownerID, ownerEmail,
	); err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO list_members (list_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		id, ownerID, model.RoleOwner, time.Now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("insert owner member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *ListStore) GetByID(id string) (*model.ShoppingList, error) {
	row := s.db.QueryRow(`SELECT `+listCols+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// ListForUser returns every list the user is a member of.
func (s *ListStore) ListForUser(userID int64) ([]model.ShoppingList, error) {
	rows, err := s.db.Query(
		`SELECT l.id, l.name, l.owner_id, l.owner_email, l.created_at, l.updated_at
		 FROM lists l
		 JOIN list_members lm ON l.id = lm.list_id
		 WHERE lm.user_id = ?
		 ORDER BY l.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lists for user: %w", err)
	}
	defer rows.Close()

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *ListStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

func (s *ListStore) Touch(id string) error {
	_, err := s.db.Exec(`UPDATE lists SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch list: %w", err)
	}
	return nil
}

func (s *ListStore) AddMember(listID string, userID int64, role string) (*model.ListMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO list_members (list_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		listID, userID, role, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+listMemberCols+` FROM list_members WHERE id = ?`, id)
	return scanListMember(row)
}

func (s *ListStore) RemoveMember(listID string, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM list_members WHERE list_id = ? AND user_id = ?`,
		listID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *ListStore) GetMember(listID string, userID int64) (*model.ListMember, error) {
	row := s.db.QueryRow(
		`SELECT `+listMemberCols+` FROM list_members WHERE list_id = ? AND user_id = ?`,
		listID, userID,
	)
	m, err := scanListMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *ListStore) ListMembers(listID string) ([]model.ListMember, error) {
	rows, err := s.db.Query(
		`SELECT `+listMemberCols+` FROM list_members WHERE list_id = ? ORDER BY joined_at ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.ListMember
	for rows.Next() {
		m, err := scanListMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
