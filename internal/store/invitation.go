package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmelo/feirinha/internal/model"
	"github.com/google/uuid"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	var invitedUserID sql.NullInt64
	err := scanner.Scan(
		&inv.ID, &inv.ListID, &inv.ListName, &inv.OwnerID, &inv.OwnerEmail,
		&inv.InvitedEmail, &invitedUserID, &inv.Status, &inv.Token,
		&inv.CreatedAt, &inv.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	if invitedUserID.Valid {
		inv.InvitedUserID = &invitedUserID.Int64
	}
	return &inv, nil
}

const invitationCols = `id, list_id, list_name, owner_id, owner_email, invited_email, invited_user_id, status, token, created_at, expires_at`

// Create inserts a pending invitation with the given expiry.
func (s *InvitationStore) Create(inv model.Invitation) (*model.Invitation, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO invitations (id, list_id, list_name, owner_id, owner_email, invited_email, status, token, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ListID, inv.ListName, inv.OwnerID, inv.OwnerEmail,
		inv.InvitedEmail, model.InviteStatusPending, inv.Token, inv.CreatedAt, inv.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return s.GetByID(inv.ID)
}

func (s *InvitationStore) GetByID(id string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// ListPendingForEmail returns the unexpired pending invitations addressed to
// an email.
func (s *InvitationStore) ListPendingForEmail(email string, now time.Time) ([]model.Invitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM invitations
		 WHERE invited_email = ? AND status = ? AND expires_at > ?
		 ORDER BY created_at DESC`,
		email, model.InviteStatusPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	defer rows.Close()

	var invs []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// SetStatus moves an invitation to a terminal state, optionally recording the
// acting user.
func (s *InvitationStore) SetStatus(id, status string, userID *int64) error {
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE invitations SET status = ?, invited_user_id = ? WHERE id = ?`,
		status, uid, id,
	)
	if err != nil {
		return fmt.Errorf("set invitation status: %w", err)
	}
	return nil
}

// DeleteExpired removes pending invitations past their expiry.
func (s *InvitationStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM invitations WHERE status = ? AND expires_at <= ?`,
		model.InviteStatusPending, now,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired invitations: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
